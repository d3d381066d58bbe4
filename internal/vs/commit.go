package vs

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// CommitPlan is everything the commit engine needs to persist a new
// version. It is produced from a Resolution with outcome new_version or
// new_file.
type CommitPlan struct {
	Project     *Project
	ActorID     string
	Name        string
	Folder      string
	ContentHash string
	Size        int64
	Version     int64

	// PriorID is the latest version to demote, empty for a new logical file.
	PriorID string

	// Action is the activity label recorded with the commit.
	Action string
}

// CommitEngine performs the state transition that stores a new version:
// the blob write followed by one metadata transaction.
type CommitEngine struct {
	database Database
	blobs    BlobStore
	quota    *QuotaLedger
	events   EventSink
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewCommitEngine creates a CommitEngine with the provided dependencies.
func NewCommitEngine(database Database, blobs BlobStore, quota *QuotaLedger, events EventSink, logger Logger, clock Clock, idgen IDGenerator) *CommitEngine {
	return &CommitEngine{
		database: database,
		blobs:    blobs,
		quota:    quota,
		events:   events,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// Commit stores content as a new version according to plan.
//
// The bytes are written before the metadata transaction starts so no lock
// is held across blob I/O. Each attempt writes under a key derived from
// its own version ID, and a failed attempt deletes only that key. Errors
// from the transaction are returned as-is so callers can tell
// ErrCommitConflict and ErrQuotaExceeded apart.
func (e *CommitEngine) Commit(ctx context.Context, plan *CommitPlan, content io.ReadSeeker) (*FileVersion, error) {
	ownerID := plan.Project.OwnerID
	id := e.idgen.New()
	key := StorageKey(ownerID, plan.Project.ID, plan.Folder, plan.Name, plan.Version, plan.ContentHash, id)

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding content: %w", err)
	}
	if err := e.blobs.Put(ctx, key, content, plan.Size); err != nil {
		e.cleanup(ctx, key)
		return nil, &BlobError{Op: "put", Key: key, Err: err}
	}

	now := e.clock.Now()
	version := &FileVersion{
		ID:          id,
		ProjectID:   plan.Project.ID,
		OwnerID:     ownerID,
		Name:        plan.Name,
		Folder:      plan.Folder,
		ContentHash: plan.ContentHash,
		Version:     plan.Version,
		Size:        plan.Size,
		StorageKey:  key,
		IsLatest:    true,
		CreatedAt:   now,
	}
	activity := &ActivityEntry{
		ActorID:     plan.ActorID,
		ProjectID:   plan.Project.ID,
		ProjectName: plan.Project.Name,
		FileID:      version.ID,
		FileName:    version.Name,
		FileVersion: version.Version,
		Action:      plan.Action,
		CreatedAt:   now,
	}

	err := e.database.CommitFileVersion(ctx, &CommitTx{
		Version:  version,
		PriorID:  plan.PriorID,
		Activity: activity,
	})
	if err != nil {
		e.cleanup(ctx, key)
		return nil, err
	}

	e.quota.Invalidate(ownerID)
	e.logger.Info("file version committed",
		"project", plan.Project.ID,
		"name", version.Name,
		"version", version.Version,
		"size", version.Size,
		"actor", plan.ActorID)

	e.events.Emit(Event{
		Kind:        EventFileCommitted,
		ProjectID:   version.ProjectID,
		OwnerID:     version.OwnerID,
		FileID:      version.ID,
		Name:        version.Name,
		Version:     version.Version,
		ContentHash: version.ContentHash,
		StorageKey:  version.StorageKey,
		Size:        version.Size,
		At:          now,
	})

	return version, nil
}

// cleanup removes the key written by a failed commit attempt. It runs
// even when ctx has been cancelled, since a cancelled upload must not
// leave the blob behind. The reference check covers a transaction that
// committed but reported an error.
func (e *CommitEngine) cleanup(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)

	inUse, err := e.database.StorageKeyInUse(ctx, key)
	if err != nil {
		e.logger.Warn("checking blob reference failed, leaving blob for reconciliation", "error", err)
		return
	}
	if inUse {
		return
	}

	if err := e.blobs.Delete(ctx, key); err != nil && !errors.Is(err, ErrBlobNotFound) {
		e.logger.Warn("removing uncommitted blob failed, leaving it for reconciliation", "error", err)
	}
}
