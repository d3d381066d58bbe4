package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"verstore/internal/database/sqlc"
	"verstore/internal/vs"
)

const defaultActivityLimit = 50

// SQLDatabase implements vs.Database on SQLite or PostgreSQL.
type SQLDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	dialect dialect
}

func newSQLDatabase(db *sql.DB, d dialect) *SQLDatabase {
	return &SQLDatabase{
		db:      db,
		queries: sqlc.New(d.wrap(db)),
		dialect: d,
	}
}

// DB returns the underlying connection.
func (s *SQLDatabase) DB() *sql.DB {
	return s.db
}

// withTx runs fn in a transaction and commits if it returns nil.
// Statements inside fn must go through the queries it is given: an
// in-memory SQLite database has a single connection.
func (s *SQLDatabase) withTx(ctx context.Context, fn func(tx *sql.Tx, qtx *sqlc.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx, sqlc.New(s.dialect.wrap(tx))); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Owner operations

func (s *SQLDatabase) CreateOwner(ctx context.Context, owner *vs.Owner) error {
	err := s.queries.CreateOwner(ctx, sqlc.CreateOwnerParams{
		ID:                owner.ID,
		Name:              owner.Name,
		StorageLimitBytes: owner.StorageLimitBytes,
		CreatedAt:         owner.CreatedAt,
	})
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", vs.ErrOwnerExists, owner.Name)
		}
		return fmt.Errorf("inserting owner: %w", err)
	}
	return nil
}

func (s *SQLDatabase) FindOwner(ctx context.Context, id string) (*vs.Owner, error) {
	owner, err := s.queries.GetOwner(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding owner: %w", err)
	}
	return toOwner(owner), nil
}

func (s *SQLDatabase) FindOwnerByName(ctx context.Context, name string) (*vs.Owner, error) {
	owner, err := s.queries.GetOwnerByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding owner by name: %w", err)
	}
	return toOwner(owner), nil
}

func (s *SQLDatabase) SetStorageLimit(ctx context.Context, ownerID string, limitBytes int64) error {
	n, err := s.queries.UpdateOwnerStorageLimit(ctx, sqlc.UpdateOwnerStorageLimitParams{
		StorageLimitBytes: limitBytes,
		ID:                ownerID,
	})
	if err != nil {
		return fmt.Errorf("updating storage limit: %w", err)
	}
	if n == 0 {
		return vs.ErrOwnerNotFound
	}
	return nil
}

func (s *SQLDatabase) UsedBytes(ctx context.Context, ownerID string) (int64, error) {
	used, err := s.queries.SumOwnerFileSizes(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("summing file sizes: %w", err)
	}
	return used, nil
}

// Project operations

func (s *SQLDatabase) CreateProject(ctx context.Context, project *vs.Project, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx, qtx *sqlc.Queries) error {
		err := qtx.CreateProject(ctx, sqlc.CreateProjectParams{
			ID:          project.ID,
			OwnerID:     project.OwnerID,
			Name:        project.Name,
			Description: project.Description,
			IsPrivate:   project.IsPrivate,
			CreatedAt:   project.CreatedAt,
			UpdatedAt:   project.UpdatedAt,
		})
		if err != nil {
			if s.dialect.isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", vs.ErrProjectExists, project.Name)
			}
			return fmt.Errorf("inserting project: %w", err)
		}

		err = qtx.UpsertMember(ctx, sqlc.UpsertMemberParams{
			ProjectID: project.ID,
			OwnerID:   project.OwnerID,
			Role:      string(vs.RoleAdmin),
			CreatedAt: at,
		})
		if err != nil {
			return fmt.Errorf("adding owner as admin: %w", err)
		}

		return insertActivity(ctx, qtx, projectActivity(project, project.OwnerID, vs.ActionProjectCreated, at))
	})
}

func (s *SQLDatabase) FindProject(ctx context.Context, id string) (*vs.Project, error) {
	project, err := s.queries.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding project: %w", err)
	}
	return toProject(project), nil
}

func (s *SQLDatabase) FindProjectByName(ctx context.Context, ownerID string, name string) (*vs.Project, error) {
	project, err := s.queries.GetLiveProjectByName(ctx, sqlc.GetLiveProjectByNameParams{
		OwnerID: ownerID,
		Name:    name,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding project by name: %w", err)
	}
	return toProject(project), nil
}

func (s *SQLDatabase) ListProjects(ctx context.Context, ownerID string) ([]*vs.Project, error) {
	rows, err := s.queries.ListLiveProjects(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	projects := make([]*vs.Project, len(rows))
	for i := range rows {
		projects[i] = toProject(rows[i])
	}
	return projects, nil
}

func (s *SQLDatabase) ArchiveProject(ctx context.Context, project *vs.Project, actorID string, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx, qtx *sqlc.Queries) error {
		n, err := qtx.ArchiveProject(ctx, sqlc.ArchiveProjectParams{UpdatedAt: at, ID: project.ID})
		if err != nil {
			return fmt.Errorf("archiving project: %w", err)
		}
		if n == 0 {
			return vs.ErrProjectNotFound
		}
		return insertActivity(ctx, qtx, projectActivity(project, actorID, vs.ActionProjectArchived, at))
	})
}

func (s *SQLDatabase) DeleteProject(ctx context.Context, project *vs.Project, actorID string, at time.Time) ([]string, error) {
	var keys []string
	err := s.withTx(ctx, func(tx *sql.Tx, qtx *sqlc.Queries) error {
		if err := s.dialect.lockOwner(ctx, tx, project.OwnerID); err != nil {
			return fmt.Errorf("locking owner: %w", err)
		}

		var err error
		keys, err = qtx.ListProjectStorageKeys(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("listing storage keys: %w", err)
		}

		if err := qtx.DeleteProjectFiles(ctx, project.ID); err != nil {
			return fmt.Errorf("deleting files: %w", err)
		}

		n, err := qtx.DeleteProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}
		if n == 0 {
			return vs.ErrProjectNotFound
		}

		return insertActivity(ctx, qtx, projectActivity(project, actorID, vs.ActionProjectDeleted, at))
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *SQLDatabase) ProjectUsedBytes(ctx context.Context, projectID string) (int64, error) {
	used, err := s.queries.SumProjectFileSizes(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("summing file sizes: %w", err)
	}
	return used, nil
}

// Membership operations

func (s *SQLDatabase) FindRole(ctx context.Context, projectID string, principalID string) (vs.Role, error) {
	role, err := s.queries.GetMemberRole(ctx, sqlc.GetMemberRoleParams{
		ProjectID: projectID,
		OwnerID:   principalID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vs.RoleNone, nil
		}
		return vs.RoleNone, fmt.Errorf("finding role: %w", err)
	}
	return vs.Role(role), nil
}

func (s *SQLDatabase) GrantRole(ctx context.Context, project *vs.Project, principalID string, role vs.Role, actorID string, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx, qtx *sqlc.Queries) error {
		err := qtx.UpsertMember(ctx, sqlc.UpsertMemberParams{
			ProjectID: project.ID,
			OwnerID:   principalID,
			Role:      string(role),
			CreatedAt: at,
		})
		if err != nil {
			return fmt.Errorf("saving membership: %w", err)
		}
		return insertActivity(ctx, qtx, projectActivity(project, actorID, vs.ActionMemberGranted, at))
	})
}

func (s *SQLDatabase) RevokeRole(ctx context.Context, project *vs.Project, principalID string, actorID string, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx, qtx *sqlc.Queries) error {
		n, err := qtx.DeleteMember(ctx, sqlc.DeleteMemberParams{
			ProjectID: project.ID,
			OwnerID:   principalID,
		})
		if err != nil {
			return fmt.Errorf("removing membership: %w", err)
		}
		if n == 0 {
			return &vs.InvalidArgumentError{Field: "member", Value: principalID, Reason: "not a member of the project"}
		}
		return insertActivity(ctx, qtx, projectActivity(project, actorID, vs.ActionMemberRevoked, at))
	})
}

// File version operations

func (s *SQLDatabase) FindFileVersion(ctx context.Context, id string) (*vs.FileVersion, error) {
	f, err := s.queries.GetFile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding file version: %w", err)
	}
	return toFileVersion(f), nil
}

func (s *SQLDatabase) FindFileVersionByHash(ctx context.Context, projectID string, contentHash string) (*vs.FileVersion, error) {
	f, err := s.queries.GetFileByHash(ctx, sqlc.GetFileByHashParams{
		ProjectID:   projectID,
		ContentHash: contentHash,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding file version by hash: %w", err)
	}
	return toFileVersion(f), nil
}

func (s *SQLDatabase) FindLatestVersions(ctx context.Context, projectID string, name string) ([]*vs.FileVersion, error) {
	rows, err := s.queries.GetLatestFiles(ctx, sqlc.GetLatestFilesParams{ProjectID: projectID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("finding latest versions: %w", err)
	}
	return toFileVersions(rows), nil
}

func (s *SQLDatabase) MaxVersion(ctx context.Context, projectID string, name string) (int64, error) {
	highest, err := s.queries.GetMaxVersion(ctx, sqlc.GetMaxVersionParams{ProjectID: projectID, Name: name})
	if err != nil {
		return 0, fmt.Errorf("finding max version: %w", err)
	}
	return highest, nil
}

func (s *SQLDatabase) ListFileVersions(ctx context.Context, projectID string, name string) ([]*vs.FileVersion, error) {
	rows, err := s.queries.ListFileVersions(ctx, sqlc.ListFileVersionsParams{ProjectID: projectID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("listing file versions: %w", err)
	}
	return toFileVersions(rows), nil
}

func (s *SQLDatabase) ListLatestFiles(ctx context.Context, projectID string) ([]*vs.FileVersion, error) {
	rows, err := s.queries.ListLatestProjectFiles(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing latest files: %w", err)
	}
	return toFileVersions(rows), nil
}

func (s *SQLDatabase) ListAllFileVersions(ctx context.Context) ([]*vs.FileVersion, error) {
	rows, err := s.queries.ListAllFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing all files: %w", err)
	}
	return toFileVersions(rows), nil
}

func (s *SQLDatabase) StorageKeyInUse(ctx context.Context, key string) (bool, error) {
	n, err := s.queries.CountFilesByStorageKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("counting storage key references: %w", err)
	}
	return n > 0, nil
}

// CommitFileVersion applies a commit atomically. The owner lock
// serializes commits for the owner, so the quota re-check and the plan
// re-validation see every earlier commit.
func (s *SQLDatabase) CommitFileVersion(ctx context.Context, c *vs.CommitTx) error {
	v := c.Version

	return s.withTx(ctx, func(tx *sql.Tx, qtx *sqlc.Queries) error {
		if err := s.dialect.lockOwner(ctx, tx, v.OwnerID); err != nil {
			return fmt.Errorf("locking owner: %w", err)
		}

		// Quota
		owner, err := qtx.GetOwner(ctx, v.OwnerID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("finding owner: %w", err)
		}
		used, err := qtx.SumOwnerFileSizes(ctx, v.OwnerID)
		if err != nil {
			return fmt.Errorf("summing file sizes: %w", err)
		}
		if owner.StorageLimitBytes <= 0 || used+v.Size > owner.StorageLimitBytes {
			return fmt.Errorf("%w: %d of %d bytes used", vs.ErrQuotaExceeded, used, owner.StorageLimitBytes)
		}

		// Content must still be new to the project.
		if _, err := qtx.GetFileByHash(ctx, sqlc.GetFileByHashParams{ProjectID: v.ProjectID, ContentHash: v.ContentHash}); err == nil {
			return fmt.Errorf("%w: content stored concurrently", vs.ErrCommitConflict)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking content hash: %w", err)
		}

		// The latest pointer must still be where the plan found it.
		latest, err := qtx.GetLatestFiles(ctx, sqlc.GetLatestFilesParams{ProjectID: v.ProjectID, Name: v.Name})
		if err != nil {
			return fmt.Errorf("finding latest version: %w", err)
		}
		switch {
		case c.PriorID == "" && len(latest) != 0:
			return fmt.Errorf("%w: file created concurrently", vs.ErrCommitConflict)
		case c.PriorID != "" && (len(latest) != 1 || latest[0].ID != c.PriorID):
			return fmt.Errorf("%w: latest version changed", vs.ErrCommitConflict)
		}

		if c.PriorID != "" {
			n, err := qtx.ClearLatest(ctx, c.PriorID)
			if err != nil {
				return fmt.Errorf("clearing latest flag: %w", err)
			}
			if n != 1 {
				return fmt.Errorf("%w: latest flag cleared %d rows", vs.ErrCommitConflict, n)
			}
		}

		err = qtx.InsertFile(ctx, sqlc.InsertFileParams{
			ID:          v.ID,
			ProjectID:   v.ProjectID,
			OwnerID:     v.OwnerID,
			Name:        v.Name,
			Folder:      v.Folder,
			ContentHash: v.ContentHash,
			Version:     v.Version,
			Size:        v.Size,
			StorageKey:  v.StorageKey,
			CreatedAt:   v.CreatedAt,
		})
		if err != nil {
			if s.dialect.isUniqueViolation(err) {
				return fmt.Errorf("%w: %v", vs.ErrCommitConflict, err)
			}
			return fmt.Errorf("inserting file version: %w", err)
		}

		return insertActivity(ctx, qtx, c.Activity)
	})
}

func (s *SQLDatabase) PromoteFileVersion(ctx context.Context, version *vs.FileVersion, activity *vs.ActivityEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx, qtx *sqlc.Queries) error {
		if err := s.dialect.lockOwner(ctx, tx, version.OwnerID); err != nil {
			return fmt.Errorf("locking owner: %w", err)
		}

		current, err := qtx.GetFile(ctx, version.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return vs.ErrFileNotFound
			}
			return fmt.Errorf("finding file version: %w", err)
		}
		if current.IsLatest {
			return nil
		}

		latest, err := qtx.GetLatestFiles(ctx, sqlc.GetLatestFilesParams{ProjectID: current.ProjectID, Name: current.Name})
		if err != nil {
			return fmt.Errorf("finding latest version: %w", err)
		}
		for _, f := range latest {
			if _, err := qtx.ClearLatest(ctx, f.ID); err != nil {
				return fmt.Errorf("clearing latest flag: %w", err)
			}
		}

		n, err := qtx.SetLatest(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("setting latest flag: %w", err)
		}
		if n != 1 {
			return fmt.Errorf("%w: latest flag set on %d rows", vs.ErrCommitConflict, n)
		}

		return insertActivity(ctx, qtx, activity)
	})
}

func (s *SQLDatabase) DeleteFileVersion(ctx context.Context, version *vs.FileVersion, activity *vs.ActivityEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx, qtx *sqlc.Queries) error {
		if err := s.dialect.lockOwner(ctx, tx, version.OwnerID); err != nil {
			return fmt.Errorf("locking owner: %w", err)
		}

		// Re-read the row: its latest flag may have changed since the caller loaded it.
		current, err := qtx.GetFile(ctx, version.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return vs.ErrFileNotFound
			}
			return fmt.Errorf("finding file version: %w", err)
		}

		if _, err := qtx.DeleteFile(ctx, current.ID); err != nil {
			return fmt.Errorf("deleting file version: %w", err)
		}

		if current.IsLatest {
			next, err := qtx.GetHighestVersion(ctx, sqlc.GetHighestVersionParams{ProjectID: current.ProjectID, Name: current.Name})
			switch {
			case errors.Is(err, sql.ErrNoRows):
				// Last version of the logical file.
			case err != nil:
				return fmt.Errorf("finding next latest version: %w", err)
			default:
				if _, err := qtx.SetLatest(ctx, next.ID); err != nil {
					return fmt.Errorf("setting latest flag: %w", err)
				}
			}
		}

		return insertActivity(ctx, qtx, activity)
	})
}

// Activity operations

func (s *SQLDatabase) ListActivityByActor(ctx context.Context, actorID string, limit int) ([]*vs.ActivityEntry, error) {
	rows, err := s.queries.ListActivityByActor(ctx, sqlc.ListActivityByActorParams{
		ActorID: actorID,
		Limit:   activityLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return toActivityEntries(rows), nil
}

func (s *SQLDatabase) ListActivityByProject(ctx context.Context, projectID string, limit int) ([]*vs.ActivityEntry, error) {
	rows, err := s.queries.ListActivityByProject(ctx, sqlc.ListActivityByProjectParams{
		ProjectID: projectID,
		Limit:     activityLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return toActivityEntries(rows), nil
}

func (s *SQLDatabase) Close() error {
	return s.db.Close()
}

func insertActivity(ctx context.Context, qtx *sqlc.Queries, a *vs.ActivityEntry) error {
	err := qtx.InsertActivity(ctx, sqlc.InsertActivityParams{
		ActorID:     a.ActorID,
		ProjectID:   a.ProjectID,
		ProjectName: a.ProjectName,
		FileID:      a.FileID,
		FileName:    a.FileName,
		FileVersion: a.FileVersion,
		Action:      a.Action,
		CreatedAt:   a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

func projectActivity(project *vs.Project, actorID string, action string, at time.Time) *vs.ActivityEntry {
	return &vs.ActivityEntry{
		ActorID:     actorID,
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Action:      action,
		CreatedAt:   at,
	}
}

func activityLimit(limit int) int64 {
	if limit <= 0 {
		return defaultActivityLimit
	}
	return int64(limit)
}

// Compile-time check that SQLDatabase implements vs.Database.
var _ vs.Database = (*SQLDatabase)(nil)
