package testutil

import (
	"testing"

	"verstore/internal/database"
	"verstore/internal/vs"
)

// Env is a VSService wired to in-memory fakes, with handles on each
// dependency so tests can inspect or break them.
type Env struct {
	Service  *vs.VSService
	Database *database.SQLDatabase
	Blobs    *FailingBlobStore
	Events   *RecordingSink
	Clock    *StubClock
	IDs      *StubIDGenerator
}

// NewTestEnv builds an Env with the given limits and SHA-256 hashing.
func NewTestEnv(t *testing.T, limits vs.Limits) *Env {
	t.Helper()

	clock := FixedClock()
	env := &Env{
		Database: NewTestDatabase(t),
		Blobs:    NewFailingBlobStore(NewTestBlobStore(clock)),
		Events:   &RecordingSink{},
		Clock:    clock,
		IDs:      NewStubIDGenerator(),
	}

	hasher, err := vs.NewHasher(vs.HashSHA256)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}

	env.Service = vs.NewVSService(
		env.Database,
		env.Blobs,
		NewTestStagingArea(),
		hasher,
		env.Events,
		vs.NewNopLogger(),
		clock,
		env.IDs,
		limits,
	)
	return env
}
