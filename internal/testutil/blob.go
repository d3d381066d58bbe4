package testutil

import (
	"context"
	"errors"
	"io"
	"sync"

	"verstore/internal/blob"
	"verstore/internal/vs"
)

// NewTestBlobStore creates an in-memory blob store whose modification
// times follow clock.
func NewTestBlobStore(clock vs.Clock) *blob.MemoryStore {
	return blob.NewMemoryStore(clock)
}

// ErrInjected is returned by FailingBlobStore for operations set to fail.
var ErrInjected = errors.New("injected blob store failure")

// FailingBlobStore wraps a store and fails selected operations.
type FailingBlobStore struct {
	*blob.MemoryStore

	mu         sync.Mutex
	failPut    bool
	failGet    bool
	failDelete bool
	puts       int
	deletes    []string
}

// NewFailingBlobStore wraps inner with no failures enabled.
func NewFailingBlobStore(inner *blob.MemoryStore) *FailingBlobStore {
	return &FailingBlobStore{MemoryStore: inner}
}

// FailPut makes Put consume its input and then fail.
func (f *FailingBlobStore) FailPut(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut = fail
}

// FailGet makes Get fail before writing anything.
func (f *FailingBlobStore) FailGet(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = fail
}

// FailDelete makes Delete fail.
func (f *FailingBlobStore) FailDelete(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete = fail
}

// Puts returns how many Put calls were made.
func (f *FailingBlobStore) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// Deletes returns the keys passed to Delete, in order.
func (f *FailingBlobStore) Deletes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

func (f *FailingBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	f.mu.Lock()
	f.puts++
	fail := f.failPut
	f.mu.Unlock()

	if fail {
		io.Copy(io.Discard, r)
		return ErrInjected
	}
	return f.MemoryStore.Put(ctx, key, r, size)
}

func (f *FailingBlobStore) Get(ctx context.Context, key string, w io.Writer) error {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()

	if fail {
		return ErrInjected
	}
	return f.MemoryStore.Get(ctx, key, w)
}

func (f *FailingBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, key)
	fail := f.failDelete
	f.mu.Unlock()

	if fail {
		return ErrInjected
	}
	return f.MemoryStore.Delete(ctx, key)
}

// GatedBlobStore writes each Put through to the wrapped store and then
// holds the call until Release. Tests use it to stop an upload between
// its blob write and its metadata commit.
type GatedBlobStore struct {
	vs.BlobStore
	stored  chan string
	release chan struct{}
}

// NewGatedBlobStore wraps inner. Only one Put may be pending at a time.
func NewGatedBlobStore(inner vs.BlobStore) *GatedBlobStore {
	return &GatedBlobStore{
		BlobStore: inner,
		stored:    make(chan string, 1),
		release:   make(chan struct{}),
	}
}

// Stored delivers the key of each Put once its bytes are in the store.
func (g *GatedBlobStore) Stored() <-chan string { return g.stored }

// Release lets held Put calls return. Call it once.
func (g *GatedBlobStore) Release() { close(g.release) }

func (g *GatedBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := g.BlobStore.Put(ctx, key, r, size); err != nil {
		return err
	}
	g.stored <- key

	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	_ vs.BlobStore = (*FailingBlobStore)(nil)
	_ vs.BlobStore = (*GatedBlobStore)(nil)
)
