package vs

import "io"

// StagingArea spools upload streams that cannot be rewound so the hasher
// and the blob store can each read them from the start.
type StagingArea interface {
	// Stage copies r into the staging area. At most limit bytes are
	// accepted; a longer stream fails with an error wrapping ErrFileTooLarge
	// and nothing is left behind. limit <= 0 means unlimited.
	Stage(r io.Reader, limit int64) (StagedContent, error)
}

// StagedContent is a rewindable copy of an upload. Close releases it.
type StagedContent interface {
	io.ReadSeeker
	io.Closer
	Size() int64
}
