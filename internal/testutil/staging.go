package testutil

import (
	"verstore/internal/staging"
	"verstore/internal/vs"
)

// NewTestStagingArea creates a new in-memory staging area for testing.
func NewTestStagingArea() vs.StagingArea {
	return staging.NewMemoryStagingArea()
}
