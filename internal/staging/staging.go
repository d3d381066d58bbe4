package staging

import (
	"fmt"
	"io"
	"sync/atomic"

	"verstore/internal/vs"
)

// stagingArea implements vs.StagingArea on top of a spoolStore.
type stagingArea struct {
	store  spoolStore
	active atomic.Int64
}

var _ vs.StagingArea = (*stagingArea)(nil)

// Stage copies r into a new spool. The stream is read through a limit of
// limit+1 bytes so an oversized upload is detected without reading all
// of it.
func (s *stagingArea) Stage(r io.Reader, limit int64) (vs.StagedContent, error) {
	sp, err := s.store.create()
	if err != nil {
		return nil, fmt.Errorf("creating spool: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	n, err := io.Copy(sp, src)
	if err != nil {
		sp.discard()
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	if limit > 0 && n > limit {
		sp.discard()
		return nil, fmt.Errorf("%w: stream exceeds %d bytes", vs.ErrFileTooLarge, limit)
	}

	content, err := sp.finish(n)
	if err != nil {
		sp.discard()
		return nil, fmt.Errorf("finishing spool: %w", err)
	}

	s.active.Add(1)
	return &trackedContent{StagedContent: content, area: s}, nil
}

// Active returns the number of staged uploads not yet closed.
func (s *stagingArea) Active() int64 {
	return s.active.Load()
}

// trackedContent decrements the active count exactly once on Close.
type trackedContent struct {
	vs.StagedContent
	area   *stagingArea
	closed atomic.Bool
}

func (c *trackedContent) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.area.active.Add(-1)
	return c.StagedContent.Close()
}
