package vs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// Limits are the storage limits consumed by the service.
type Limits struct {
	// MaxFileSizeBytes caps a single upload. 0 means no cap.
	MaxFileSizeBytes int64

	// DefaultStorageLimitBytes is assigned to owners created without an
	// explicit limit.
	DefaultStorageLimitBytes int64
}

// VSService is the orchestration layer that coordinates hashing,
// resolution, quota admission and commits, and exposes the operations
// needed by the CLI and other callers.
type VSService struct {
	database    Database
	blobs       BlobStore
	stagingArea StagingArea
	hasher      *Hasher
	quota       *QuotaLedger
	resolver    *VersionResolver
	engine      *CommitEngine
	events      EventSink
	logger      Logger
	clock       Clock
	idgen       IDGenerator
	limits      Limits
}

// NewVSService creates a new VSService with the provided dependencies.
func NewVSService(database Database, blobs BlobStore, stagingArea StagingArea, hasher *Hasher, events EventSink, logger Logger, clock Clock, idgen IDGenerator, limits Limits) *VSService {
	quota := NewQuotaLedger(database)
	return &VSService{
		database:    database,
		blobs:       blobs,
		stagingArea: stagingArea,
		hasher:      hasher,
		quota:       quota,
		resolver:    NewVersionResolver(database),
		engine:      NewCommitEngine(database, blobs, quota, events, logger, clock, idgen),
		events:      events,
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
		limits:      limits,
	}
}

// Owners

// CreateOwner records a quota account for a principal. A negative limit
// selects the configured default.
func (s *VSService) CreateOwner(ctx context.Context, name string, limitBytes int64) (*Owner, error) {
	if err := ValidateName("owner name", name); err != nil {
		return nil, err
	}
	if limitBytes < 0 {
		limitBytes = s.limits.DefaultStorageLimitBytes
	}

	owner := &Owner{
		ID:                s.idgen.New(),
		Name:              name,
		StorageLimitBytes: limitBytes,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.database.CreateOwner(ctx, owner); err != nil {
		return nil, fmt.Errorf("creating owner: %w", err)
	}

	s.logger.Info("owner created", "owner", owner.ID, "limit", limitBytes)
	return owner, nil
}

// FindOwnerByName resolves an owner name to its record.
func (s *VSService) FindOwnerByName(ctx context.Context, name string) (*Owner, error) {
	owner, err := s.database.FindOwnerByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("finding owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: %s", ErrOwnerNotFound, name)
	}
	return owner, nil
}

// SetStorageLimit replaces an owner's storage limit. Lowering the limit
// below current usage is allowed; further uploads are then rejected.
func (s *VSService) SetStorageLimit(ctx context.Context, ownerID string, limitBytes int64) error {
	if limitBytes < 0 {
		return &InvalidArgumentError{Field: "storage limit", Value: fmt.Sprint(limitBytes), Reason: "must not be negative"}
	}
	owner, err := s.database.FindOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("finding owner: %w", err)
	}
	if owner == nil {
		return ErrOwnerNotFound
	}
	if err := s.database.SetStorageLimit(ctx, ownerID, limitBytes); err != nil {
		return fmt.Errorf("setting storage limit: %w", err)
	}
	s.logger.Info("storage limit changed", "owner", ownerID, "limit", limitBytes)
	return nil
}

// Usage returns the owner's storage limit and usage.
func (s *VSService) Usage(ctx context.Context, ownerID string) (QuotaAccount, error) {
	return s.quota.Account(ctx, ownerID)
}

// Projects

// CreateProject creates a project owned by principalID.
func (s *VSService) CreateProject(ctx context.Context, principalID string, name string, description string, isPrivate bool) (*Project, error) {
	if err := ValidateName("project name", name); err != nil {
		return nil, err
	}

	owner, err := s.database.FindOwner(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("finding owner: %w", err)
	}
	if owner == nil {
		return nil, ErrOwnerNotFound
	}

	existing, err := s.database.FindProjectByName(ctx, principalID, name)
	if err != nil {
		return nil, fmt.Errorf("checking for existing project: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, name)
	}

	now := s.clock.Now()
	project := &Project{
		ID:          s.idgen.New(),
		OwnerID:     principalID,
		Name:        name,
		Description: description,
		IsPrivate:   isPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.database.CreateProject(ctx, project, now); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "project", project.ID, "owner", principalID)
	return project, nil
}

// ProjectByName returns one of the principal's own live projects by name.
func (s *VSService) ProjectByName(ctx context.Context, principalID string, name string) (*Project, error) {
	project, err := s.database.FindProjectByName(ctx, principalID, name)
	if err != nil {
		return nil, fmt.Errorf("finding project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}
	return project, nil
}

// ListProjects returns the principal's live projects.
func (s *VSService) ListProjects(ctx context.Context, principalID string) ([]*Project, error) {
	projects, err := s.database.ListProjects(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// ArchiveProject soft-deletes a project. Its files stay stored and keep
// counting against the owner's quota until the project is deleted.
func (s *VSService) ArchiveProject(ctx context.Context, principalID string, projectID string) error {
	project, err := s.liveProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != principalID {
		return &PermissionError{PrincipalID: principalID, ProjectID: projectID, Action: "archive"}
	}

	if err := s.database.ArchiveProject(ctx, project, principalID, s.clock.Now()); err != nil {
		return fmt.Errorf("archiving project: %w", err)
	}

	s.logger.Info("project archived", "project", projectID)
	return nil
}

// DeleteProject removes a project, live or archived, with all of its
// versions, then deletes their blobs. Blob deletion failures are logged
// and left for reconciliation; the metadata change is not undone.
func (s *VSService) DeleteProject(ctx context.Context, principalID string, projectID string) error {
	project, err := s.database.FindProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("finding project: %w", err)
	}
	if project == nil {
		return ErrProjectNotFound
	}
	if project.OwnerID != principalID {
		return &PermissionError{PrincipalID: principalID, ProjectID: projectID, Action: "delete project"}
	}

	now := s.clock.Now()
	keys, err := s.database.DeleteProject(ctx, project, principalID, now)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	s.quota.Invalidate(project.OwnerID)

	failed := 0
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			failed++
			s.logger.Warn("deleting blob failed", "project", projectID, "error", err)
		}
	}

	s.events.Emit(Event{
		Kind:      EventProjectDeleted,
		ProjectID: project.ID,
		OwnerID:   project.OwnerID,
		Name:      project.Name,
		At:        now,
	})

	s.logger.Info("project deleted", "project", projectID, "files", len(keys), "blob_failures", failed)
	return nil
}

// ProjectUsage returns the number of bytes stored in a project.
func (s *VSService) ProjectUsage(ctx context.Context, principalID string, projectID string) (int64, error) {
	project, err := s.liveProject(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if err := s.authorize(ctx, principalID, project, RoleViewer, "view usage"); err != nil {
		return 0, err
	}
	used, err := s.database.ProjectUsedBytes(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("summing project usage: %w", err)
	}
	return used, nil
}

// Membership

// GrantRole gives memberID a role on the project. Only admins may grant.
func (s *VSService) GrantRole(ctx context.Context, principalID string, projectID string, memberID string, role Role) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	project, err := s.liveProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, principalID, project, RoleAdmin, "grant role"); err != nil {
		return err
	}
	if memberID == project.OwnerID {
		return &InvalidArgumentError{Field: "member", Value: memberID, Reason: "the owner always has full access"}
	}

	if err := s.database.GrantRole(ctx, project, memberID, role, principalID, s.clock.Now()); err != nil {
		return fmt.Errorf("granting role: %w", err)
	}
	s.logger.Info("role granted", "project", projectID, "member", memberID, "role", string(role))
	return nil
}

// RevokeRole removes memberID from the project.
func (s *VSService) RevokeRole(ctx context.Context, principalID string, projectID string, memberID string) error {
	project, err := s.liveProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, principalID, project, RoleAdmin, "revoke role"); err != nil {
		return err
	}
	if memberID == project.OwnerID {
		return &InvalidArgumentError{Field: "member", Value: memberID, Reason: "the owner cannot be removed"}
	}

	if err := s.database.RevokeRole(ctx, project, memberID, principalID, s.clock.Now()); err != nil {
		return fmt.Errorf("revoking role: %w", err)
	}
	s.logger.Info("role revoked", "project", projectID, "member", memberID)
	return nil
}

// Files

// ListFiles returns the latest version of every logical file in the project.
func (s *VSService) ListFiles(ctx context.Context, principalID string, projectID string) ([]*FileVersion, error) {
	project, err := s.liveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principalID, project, RoleViewer, "list files"); err != nil {
		return nil, err
	}

	files, err := s.database.ListLatestFiles(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// FileHistory returns every version of a logical file, newest first.
func (s *VSService) FileHistory(ctx context.Context, principalID string, projectID string, name string) ([]*FileVersion, error) {
	project, err := s.liveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principalID, project, RoleViewer, "view history"); err != nil {
		return nil, err
	}

	versions, err := s.database.ListFileVersions(ctx, projectID, name)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return versions, nil
}

// OpenVersion writes the content of a stored version to w.
func (s *VSService) OpenVersion(ctx context.Context, principalID string, fileID string, w io.Writer) (*FileVersion, error) {
	version, _, err := s.authorizeVersion(ctx, principalID, fileID, RoleViewer, "download")
	if err != nil {
		return nil, err
	}

	if err := s.blobs.Get(ctx, version.StorageKey, w); err != nil {
		return nil, &BlobError{Op: "get", Key: version.StorageKey, Err: err}
	}
	return version, nil
}

// DeleteFileVersion removes one version and its blob. If it was the
// latest, the highest remaining version of the logical file becomes latest.
func (s *VSService) DeleteFileVersion(ctx context.Context, principalID string, fileID string) error {
	version, project, err := s.authorizeVersion(ctx, principalID, fileID, RoleAdmin, "delete file")
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.database.DeleteFileVersion(ctx, version, s.activity(principalID, project, version, ActionDeletedFile, now)); err != nil {
		return fmt.Errorf("deleting file version: %w", err)
	}
	s.quota.Invalidate(version.OwnerID)

	if err := s.blobs.Delete(ctx, version.StorageKey); err != nil {
		s.logger.Warn("deleting blob failed, leaving it for reconciliation", "file", fileID, "error", err)
	}

	s.events.Emit(Event{
		Kind:        EventFileDeleted,
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

	s.logger.Info("file version deleted", "project", version.ProjectID, "name", version.Name, "version", version.Version)
	return nil
}

// Activity

// ListActivity returns the principal's own recent activity.
func (s *VSService) ListActivity(ctx context.Context, principalID string, limit int) ([]*ActivityEntry, error) {
	entries, err := s.database.ListActivityByActor(ctx, principalID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}

// ProjectActivity returns a project's recent activity.
func (s *VSService) ProjectActivity(ctx context.Context, principalID string, projectID string, limit int) ([]*ActivityEntry, error) {
	project, err := s.liveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principalID, project, RoleViewer, "view activity"); err != nil {
		return nil, err
	}

	entries, err := s.database.ListActivityByProject(ctx, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}

// Helpers

// liveProject loads a project that has not been archived.
func (s *VSService) liveProject(ctx context.Context, projectID string) (*Project, error) {
	project, err := s.database.FindProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("finding project: %w", err)
	}
	if project == nil || project.Deleted {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// roleOf returns the principal's effective role. The owner is always an
// admin; anyone may view a public project.
func (s *VSService) roleOf(ctx context.Context, principalID string, project *Project) (Role, error) {
	if principalID == project.OwnerID {
		return RoleAdmin, nil
	}
	role, err := s.database.FindRole(ctx, project.ID, principalID)
	if err != nil {
		return RoleNone, fmt.Errorf("finding role: %w", err)
	}
	if role == RoleNone && !project.IsPrivate {
		return RoleViewer, nil
	}
	return role, nil
}

func (s *VSService) authorize(ctx context.Context, principalID string, project *Project, want Role, action string) error {
	role, err := s.roleOf(ctx, principalID, project)
	if err != nil {
		return err
	}
	if !role.Allows(want) {
		return &PermissionError{PrincipalID: principalID, ProjectID: project.ID, Action: action}
	}
	return nil
}

// authorizeVersion loads a version and its live project and checks the
// principal's role on it.
func (s *VSService) authorizeVersion(ctx context.Context, principalID string, fileID string, want Role, action string) (*FileVersion, *Project, error) {
	version, err := s.database.FindFileVersion(ctx, fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("finding file version: %w", err)
	}
	if version == nil {
		return nil, nil, ErrFileNotFound
	}

	project, err := s.liveProject(ctx, version.ProjectID)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}
	if err := s.authorize(ctx, principalID, project, want, action); err != nil {
		return nil, nil, err
	}
	return version, project, nil
}

func (s *VSService) activity(actorID string, project *Project, version *FileVersion, action string, at time.Time) *ActivityEntry {
	return &ActivityEntry{
		ActorID:     actorID,
		ProjectID:   project.ID,
		ProjectName: project.Name,
		FileID:      version.ID,
		FileName:    version.Name,
		FileVersion: version.Version,
		Action:      action,
		CreatedAt:   at,
	}
}

// defaultName derives a logical name from a source path.
func defaultName(source string) string {
	if source == "" {
		return ""
	}
	base := filepath.Base(source)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}
