package staging

import (
	"io"

	"verstore/internal/vs"
)

// spoolStore abstracts where staged bytes are kept. The shared
// algorithm in stagingArea decides what is accepted.
type spoolStore interface {
	// create opens a new empty spool.
	create() (spool, error)
}

// spool receives one upload stream.
type spool interface {
	io.Writer

	// finish returns the written bytes as rewindable content, positioned
	// at the first byte.
	finish(size int64) (vs.StagedContent, error)

	// discard releases everything written so far.
	discard()
}
