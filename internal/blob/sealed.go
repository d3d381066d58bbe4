package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"verstore/internal/encryption"
	"verstore/internal/vs"
)

// ErrLocked is returned when sealed content is read before Unlock.
var ErrLocked = errors.New("blob store is locked: passphrase required")

// SealedStore encrypts blobs before handing them to an inner store and
// decrypts them on the way out. Writes need only the public key; reads
// need the store to be unlocked first.
type SealedStore struct {
	inner     vs.BlobStore
	encryptor encryption.Encryptor

	mu         sync.RWMutex
	decryption encryption.DecryptionContext
}

// NewSealedStore wraps inner.
func NewSealedStore(inner vs.BlobStore, encryptor encryption.Encryptor) *SealedStore {
	return &SealedStore{inner: inner, encryptor: encryptor}
}

// Unlock opens the private key for reads.
func (s *SealedStore) Unlock(passphrase string) error {
	dc, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking blob store: %w", err)
	}
	s.mu.Lock()
	s.decryption = dc
	s.mu.Unlock()
	return nil
}

// Locked reports whether reads still need Unlock.
func (s *SealedStore) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decryption == nil
}

// Put seals r on the fly. size is the plaintext size; the sealed size is
// not known up front, so the inner store sees -1.
func (s *SealedStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	counted := &countingReader{r: r}
	pr, pw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		err := s.encryptor.Encrypt(counted, pw)
		pw.CloseWithError(err)
		done <- err
	}()

	putErr := s.inner.Put(ctx, key, pr, -1)
	pr.Close()
	sealErr := <-done

	if putErr != nil {
		return putErr
	}
	if sealErr != nil {
		return fmt.Errorf("sealing blob: %w", sealErr)
	}
	if size >= 0 && counted.n != size {
		s.inner.Delete(context.WithoutCancel(ctx), key)
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counted.n)
	}
	return nil
}

// Get streams the sealed blob through the decryption context into w.
func (s *SealedStore) Get(ctx context.Context, key string, w io.Writer) error {
	s.mu.RLock()
	dc := s.decryption
	s.mu.RUnlock()
	if dc == nil {
		return ErrLocked
	}

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := s.inner.Get(ctx, key, pw)
		pw.CloseWithError(err)
		done <- err
	}()

	openErr := dc.Decrypt(pr, w)
	pr.Close()
	getErr := <-done

	if getErr != nil && (openErr == nil || errors.Is(getErr, vs.ErrBlobNotFound)) {
		return getErr
	}
	if openErr != nil {
		return fmt.Errorf("opening sealed blob: %w", openErr)
	}
	return nil
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

// List delegates to the inner store. Sizes are sealed sizes.
func (s *SealedStore) List(ctx context.Context, prefix string) ([]vs.BlobInfo, error) {
	lister, ok := s.inner.(vs.BlobLister)
	if !ok {
		return nil, fmt.Errorf("inner blob store cannot list keys")
	}
	return lister.List(ctx, prefix)
}

// ValidateSetup checks the key pair and the inner store.
func (s *SealedStore) ValidateSetup() error {
	if !s.encryptor.IsConfigured() {
		return fmt.Errorf("encryption keys not found: run 'verstore keys init'")
	}
	return s.inner.ValidateSetup()
}

var (
	_ vs.BlobStore  = (*SealedStore)(nil)
	_ vs.BlobLister = (*SealedStore)(nil)
)
