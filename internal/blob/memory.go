package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"verstore/internal/vs"
)

type memoryBlob struct {
	data       []byte
	modifiedAt time.Time
}

// MemoryStore keeps blobs in a map. It is safe for concurrent use and is
// meant for tests and throwaway setups.
type MemoryStore struct {
	clock vs.Clock

	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

// NewMemoryStore creates an empty store. Modification times come from
// clock, or the wall clock if nil.
func NewMemoryStore(clock vs.Clock) *MemoryStore {
	if clock == nil {
		clock = vs.RealClock{}
	}
	return &MemoryStore{
		clock: clock,
		blobs: make(map[string]memoryBlob),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = memoryBlob{data: data, modifiedAt: m.clock.Now()}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string, w io.Writer) error {
	m.mu.RLock()
	b, ok := m.blobs[key]
	m.mu.RUnlock()
	if !ok {
		return vs.ErrBlobNotFound
	}

	if _, err := io.Copy(w, bytes.NewReader(b.data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok, nil
}

// List returns the keys under prefix in lexical order.
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]vs.BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var infos []vs.BlobInfo
	for key, b := range m.blobs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, vs.BlobInfo{Key: key, Size: int64(len(b.data)), ModifiedAt: b.modifiedAt})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup() error {
	return nil
}

var (
	_ vs.BlobStore  = (*MemoryStore)(nil)
	_ vs.BlobLister = (*MemoryStore)(nil)
)
