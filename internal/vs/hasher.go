package vs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/zeebo/blake3"
)

// Supported content digest algorithms. Both produce 256-bit digests
// rendered as 64 lowercase hex characters.
const (
	HashSHA256 = "sha256"
	HashBLAKE3 = "blake3"
)

// hashChunkSize bounds how much of an upload is read at once.
const hashChunkSize = 64 * 1024

// Hasher computes content fingerprints for deduplication and change detection.
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewHasher returns a Hasher for the named algorithm. An empty name selects SHA-256.
func NewHasher(algorithm string) (*Hasher, error) {
	switch algorithm {
	case HashSHA256, "":
		return &Hasher{algorithm: HashSHA256, newHash: sha256.New}, nil
	case HashBLAKE3:
		return &Hasher{algorithm: HashBLAKE3, newHash: func() hash.Hash { return blake3.New() }}, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %q", algorithm)
	}
}

// Algorithm returns the algorithm name.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Sum reads r from its current position to EOF in bounded chunks and
// returns the hex digest and the number of bytes read. Afterwards r is
// positioned where it started so it can be read again for persistence.
// Read errors are returned as-is; a failed read never yields a digest.
func (h *Hasher) Sum(r io.ReadSeeker) (string, int64, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", 0, fmt.Errorf("reading stream position: %w", err)
	}

	d := h.newHash()
	buf := make([]byte, hashChunkSize)
	n, err := io.CopyBuffer(d, readerOnly{r}, buf)
	if err != nil {
		return "", 0, fmt.Errorf("reading content: %w", err)
	}

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return "", 0, fmt.Errorf("rewinding stream: %w", err)
	}

	return hex.EncodeToString(d.Sum(nil)), n, nil
}

// readerOnly hides WriterTo/ReaderFrom so io.CopyBuffer honours the chunk buffer.
type readerOnly struct {
	io.Reader
}
