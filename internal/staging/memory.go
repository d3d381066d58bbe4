package staging

import (
	"bytes"

	"verstore/internal/vs"
)

// MemoryStagingArea keeps staged uploads in memory. Useful for tests and
// small files.
type MemoryStagingArea struct {
	*stagingArea
}

// NewMemoryStagingArea creates an in-memory staging area.
func NewMemoryStagingArea() *MemoryStagingArea {
	return &MemoryStagingArea{stagingArea: &stagingArea{store: memorySpools{}}}
}

type memorySpools struct{}

func (memorySpools) create() (spool, error) {
	return &memorySpool{}, nil
}

type memorySpool struct {
	bytes.Buffer
}

func (m *memorySpool) finish(size int64) (vs.StagedContent, error) {
	return &memoryContent{Reader: bytes.NewReader(m.Bytes()), size: size}, nil
}

func (m *memorySpool) discard() {
	m.Reset()
}

type memoryContent struct {
	*bytes.Reader
	size int64
}

func (c *memoryContent) Size() int64  { return c.size }
func (c *memoryContent) Close() error { return nil }
