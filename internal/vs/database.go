package vs

import (
	"context"
	"time"
)

// Database provides an interface for metadata storage operations.
// Lookups return (nil, nil) when nothing matches. Methods that change more
// than one row run in a single transaction.
type Database interface {
	// Owner operations

	// CreateOwner records a new owner and its storage limit.
	// Returns ErrOwnerExists if the name is taken.
	CreateOwner(ctx context.Context, owner *Owner) error

	// FindOwner returns an owner by ID.
	FindOwner(ctx context.Context, id string) (*Owner, error)

	// FindOwnerByName returns an owner by its unique name.
	FindOwnerByName(ctx context.Context, name string) (*Owner, error)

	// SetStorageLimit replaces the owner's storage limit.
	SetStorageLimit(ctx context.Context, ownerID string, limitBytes int64) error

	// UsedBytes returns the sum of sizes of all file versions charged to the owner.
	UsedBytes(ctx context.Context, ownerID string) (int64, error)

	// Project operations

	// CreateProject inserts a project, makes the owner its admin and
	// records the creation in the activity log.
	// Returns ErrProjectExists if the owner already has a live project with that name.
	CreateProject(ctx context.Context, project *Project, at time.Time) error

	// FindProject returns a project by ID, including soft-deleted ones.
	FindProject(ctx context.Context, id string) (*Project, error)

	// FindProjectByName returns a live project of the owner by name.
	FindProjectByName(ctx context.Context, ownerID string, name string) (*Project, error)

	// ListProjects returns the owner's live projects, newest first.
	ListProjects(ctx context.Context, ownerID string) ([]*Project, error)

	// ArchiveProject soft-deletes a project and records the action.
	ArchiveProject(ctx context.Context, project *Project, actorID string, at time.Time) error

	// DeleteProject removes a project and all of its file versions in one
	// transaction and records a single activity entry. It returns the
	// storage keys of the removed versions so the caller can delete the blobs.
	DeleteProject(ctx context.Context, project *Project, actorID string, at time.Time) ([]string, error)

	// ProjectUsedBytes returns the sum of sizes of the project's file versions.
	ProjectUsedBytes(ctx context.Context, projectID string) (int64, error)

	// Membership operations

	// FindRole returns the principal's explicit role on a project, or RoleNone.
	FindRole(ctx context.Context, projectID string, principalID string) (Role, error)

	// GrantRole adds or replaces a membership and records the action.
	GrantRole(ctx context.Context, project *Project, principalID string, role Role, actorID string, at time.Time) error

	// RevokeRole removes a membership and records the action.
	RevokeRole(ctx context.Context, project *Project, principalID string, actorID string, at time.Time) error

	// File version operations

	// FindFileVersion returns a file version by ID.
	FindFileVersion(ctx context.Context, id string) (*FileVersion, error)

	// FindFileVersionByHash returns the version in the project storing the given content.
	FindFileVersionByHash(ctx context.Context, projectID string, contentHash string) (*FileVersion, error)

	// FindLatestVersions returns the rows flagged latest for a logical file,
	// highest version first, at most two. More than one row means the
	// single-latest invariant is broken.
	FindLatestVersions(ctx context.Context, projectID string, name string) ([]*FileVersion, error)

	// MaxVersion returns the highest version number of a logical file, 0 if none.
	MaxVersion(ctx context.Context, projectID string, name string) (int64, error)

	// ListFileVersions returns all versions of a logical file, highest version first.
	ListFileVersions(ctx context.Context, projectID string, name string) ([]*FileVersion, error)

	// ListLatestFiles returns the latest version of every logical file in the project, by name.
	ListLatestFiles(ctx context.Context, projectID string) ([]*FileVersion, error)

	// ListAllFileVersions returns every stored version. Used by reconciliation.
	ListAllFileVersions(ctx context.Context) ([]*FileVersion, error)

	// StorageKeyInUse reports whether any version references the key.
	StorageKeyInUse(ctx context.Context, key string) (bool, error)

	// CommitFileVersion atomically applies a commit. See CommitTx.
	CommitFileVersion(ctx context.Context, tx *CommitTx) error

	// PromoteFileVersion makes an existing version the latest of its logical
	// file, flipping the current latest row in the same transaction.
	PromoteFileVersion(ctx context.Context, version *FileVersion, activity *ActivityEntry) error

	// DeleteFileVersion removes a version. If it was the latest, the highest
	// remaining version of the same logical file becomes latest.
	DeleteFileVersion(ctx context.Context, version *FileVersion, activity *ActivityEntry) error

	// Activity operations

	// ListActivityByActor returns the actor's most recent activity, newest first.
	ListActivityByActor(ctx context.Context, actorID string, limit int) ([]*ActivityEntry, error)

	// ListActivityByProject returns a project's most recent activity, newest first.
	ListActivityByProject(ctx context.Context, projectID string, limit int) ([]*ActivityEntry, error)

	// Close closes the database connection.
	Close() error
}

// CommitTx is the metadata half of a commit. The implementation must, in
// one transaction serialized against other commits charged to the same owner:
//
//  1. re-check the owner's quota: used + Version.Size <= limit, else ErrQuotaExceeded;
//  2. verify no version in the project has Version.ContentHash, else ErrCommitConflict;
//  3. verify the latest row of the logical file is still PriorID ("" = none), else ErrCommitConflict;
//  4. if PriorID is set, clear its latest flag (exactly one row);
//  5. insert Version with IsLatest = true (unique violations map to ErrCommitConflict);
//  6. append Activity.
type CommitTx struct {
	Version  *FileVersion
	PriorID  string
	Activity *ActivityEntry
}
