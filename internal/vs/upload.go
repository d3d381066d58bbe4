package vs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// UploadMode selects how an upload that matches existing content is treated.
type UploadMode int

const (
	// UploadModeCreate stores new content and reports duplicates.
	UploadModeCreate UploadMode = iota

	// UploadModeUpdate replaces an existing logical file. Resubmitting the
	// bytes of its current latest version fails with ErrNoChangeDetected.
	UploadModeUpdate
)

// UploadRequest describes one upload.
type UploadRequest struct {
	PrincipalID string
	ProjectID   string

	// Name is the logical file name. If empty, the base name of
	// SourceName is used.
	Name       string
	SourceName string

	// Folder groups the file. If empty, the folder of the prior version
	// is kept, or one is derived from the name.
	Folder string

	Content io.Reader

	// Size is the declared length of Content, or -1 if unknown.
	Size int64

	Mode UploadMode

	// Promote makes an older version with identical content the latest
	// of its logical file again. Always on in update mode.
	Promote bool
}

// UploadResult reports what an upload did.
type UploadResult struct {
	Outcome     Outcome
	FileID      string
	Name        string
	Version     int64
	ContentHash string
	StorageKey  string
	Size        int64
	CreatedAt   time.Time

	// Promoted is set when a duplicate was made the latest version again.
	Promoted bool
}

// maxCommitAttempts bounds re-resolution after a commit conflict.
const maxCommitAttempts = 2

// Upload hashes, classifies and, unless the content is already stored,
// commits an upload.
//
// Nothing is written for duplicates, validation failures, permission
// failures or quota rejections. A conflicting concurrent commit causes
// one re-resolution; a second conflict is reported as an inconsistency.
func (s *VSService) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	name := req.Name
	if name == "" {
		name = defaultName(req.SourceName)
	}
	if err := ValidateName("file name", name); err != nil {
		return nil, err
	}
	if req.Folder != "" {
		if err := ValidateName("folder", req.Folder); err != nil {
			return nil, err
		}
	}

	maxBytes := s.limits.MaxFileSizeBytes
	if maxBytes > 0 && req.Size > maxBytes {
		return nil, &FileTooLargeError{Name: name, Size: req.Size, MaxBytes: maxBytes}
	}

	project, err := s.liveProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, req.PrincipalID, project, RoleEditor, "upload"); err != nil {
		return nil, err
	}

	staged, err := s.stagingArea.Stage(req.Content, maxBytes)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, &FileTooLargeError{Name: name, Size: req.Size, MaxBytes: maxBytes}
		}
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	defer staged.Close()

	hash, size, err := s.hasher.Sum(staged)
	if err != nil {
		return nil, fmt.Errorf("hashing upload: %w", err)
	}
	if req.Size >= 0 && size != req.Size {
		return nil, fmt.Errorf("%w: %q declared %d bytes, received %d", ErrSizeMismatch, name, req.Size, size)
	}

	for attempt := 1; ; attempt++ {
		result, err := s.uploadOnce(ctx, req, project, name, hash, size, staged)
		if !errors.Is(err, ErrCommitConflict) {
			return result, err
		}
		if attempt >= maxCommitAttempts {
			return nil, &InconsistencyError{
				ProjectID: project.ID,
				Name:      name,
				Detail:    "concurrent commits kept conflicting",
			}
		}
		s.logger.Debug("commit conflict, resolving again", "project", project.ID, "name", name)
	}
}

func (s *VSService) uploadOnce(ctx context.Context, req *UploadRequest, project *Project, name string, hash string, size int64, content io.ReadSeeker) (*UploadResult, error) {
	resolution, err := s.resolver.Resolve(ctx, project, name, hash)
	if err != nil {
		return nil, err
	}

	if resolution.Outcome == OutcomeDuplicate {
		return s.duplicate(ctx, req, project, name, resolution.Existing)
	}

	account, err := s.quota.Account(ctx, project.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("checking quota: %w", err)
	}
	if !fits(account, size) {
		return nil, &QuotaExceededError{
			OwnerID:   project.OwnerID,
			Name:      name,
			Requested: size,
			Used:      account.UsedBytes,
			Limit:     account.LimitBytes,
		}
	}

	plan := &CommitPlan{
		Project:     project,
		ActorID:     req.PrincipalID,
		Name:        name,
		Folder:      req.Folder,
		ContentHash: hash,
		Size:        size,
		Version:     resolution.NextVersion,
	}
	switch {
	case resolution.Prior != nil:
		plan.PriorID = resolution.Prior.ID
		plan.Action = ActionNewFileVersion
		if plan.Folder == "" {
			plan.Folder = resolution.Prior.Folder
		}
	case req.Mode == UploadModeUpdate:
		plan.Action = ActionAddedNewFile
	default:
		plan.Action = ActionUploadedNewFile
	}
	if plan.Folder == "" {
		plan.Folder = DefaultFolder(name)
	}

	version, err := s.engine.Commit(ctx, plan, content)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			// The transaction saw more usage than the advisory check.
			s.quota.Invalidate(project.OwnerID)
			return nil, s.quotaError(ctx, project.OwnerID, name, size)
		}
		return nil, err
	}

	return resultFor(resolution.Outcome, version, false), nil
}

// duplicate handles an upload whose bytes are already stored in the project.
func (s *VSService) duplicate(ctx context.Context, req *UploadRequest, project *Project, name string, existing *FileVersion) (*UploadResult, error) {
	sameFile := existing.Name == name

	if req.Mode == UploadModeUpdate && sameFile && existing.IsLatest {
		return nil, &NoChangeError{ProjectID: project.ID, Name: name, Version: existing.Version}
	}

	promote := req.Promote || req.Mode == UploadModeUpdate
	if !promote || !sameFile || existing.IsLatest {
		s.logger.Debug("duplicate content", "project", project.ID, "name", name, "existing", existing.ID)
		return resultFor(OutcomeDuplicate, existing, false), nil
	}

	now := s.clock.Now()
	if err := s.database.PromoteFileVersion(ctx, existing, s.activity(req.PrincipalID, project, existing, ActionRestoredVersion, now)); err != nil {
		return nil, fmt.Errorf("promoting version: %w", err)
	}
	existing.IsLatest = true

	s.logger.Info("file version restored", "project", project.ID, "name", name, "version", existing.Version)
	s.events.Emit(Event{
		Kind:        EventFileCommitted,
		ProjectID:   existing.ProjectID,
		OwnerID:     existing.OwnerID,
		FileID:      existing.ID,
		Name:        existing.Name,
		Version:     existing.Version,
		ContentHash: existing.ContentHash,
		StorageKey:  existing.StorageKey,
		Size:        existing.Size,
		At:          now,
	})

	return resultFor(OutcomeDuplicate, existing, true), nil
}

func (s *VSService) quotaError(ctx context.Context, ownerID string, name string, size int64) error {
	qe := &QuotaExceededError{OwnerID: ownerID, Name: name, Requested: size}
	if account, err := s.quota.Account(ctx, ownerID); err == nil {
		qe.Used = account.UsedBytes
		qe.Limit = account.LimitBytes
	}
	return qe
}

func resultFor(outcome Outcome, version *FileVersion, promoted bool) *UploadResult {
	return &UploadResult{
		Outcome:     outcome,
		FileID:      version.ID,
		Name:        version.Name,
		Version:     version.Version,
		ContentHash: version.ContentHash,
		StorageKey:  version.StorageKey,
		Size:        version.Size,
		CreatedAt:   version.CreatedAt,
		Promoted:    promoted,
	}
}
