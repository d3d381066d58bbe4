package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"verstore/internal/blob"
	"verstore/internal/config"
	"verstore/internal/database"
	"verstore/internal/encryption"
	"verstore/internal/events"
	"verstore/internal/fs"
	"verstore/internal/maintenance"
	"verstore/internal/staging"
	"verstore/internal/vs"
)

// VSApp is the application layer between the CLI and VSService.
// It constructs all dependencies from config, resolves the configured
// principal and raw CLI arguments, and releases resources on Close.
type VSApp struct {
	cfg        *config.Config
	db         *database.SQLDatabase
	blobs      vs.BlobStore
	staging    vs.StagingArea
	dispatcher *events.Dispatcher
	runner     *maintenance.Runner
	collector  *fs.Collector
	service    *vs.VSService
	logger     vs.Logger
	op         *Operation
	logFile    *os.File
}

// NewVSApp creates a fully wired VSApp from the given config.
// operation names the CLI command being run (e.g. "Upload", "Reconcile").
// The caller must call Close when done.
func NewVSApp(ctx context.Context, cfg *config.Config, operation, parameters string) (*VSApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	op := NewOperation(operation, parameters, time.Now())
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	a := &VSApp{
		cfg:       cfg,
		collector: fs.NewCollector(cfg.Filesystem.Ignore),
		logger:    logger,
		op:        op,
		logFile:   logFile,
	}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}

	logger.Debug("operation started", "operation", op.Name, "parameters", op.Parameters)
	return a, nil
}

func (a *VSApp) wire(ctx context.Context) error {
	cfg := a.cfg

	var enc encryption.Encryptor
	if cfg.Storage.Encrypted {
		var err error
		enc, err = encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return fmt.Errorf("creating encryptor: %w", err)
		}
	}

	blobs, err := blob.NewStoreFromConfig(ctx, cfg.Storage, enc)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}
	if err := blobs.ValidateSetup(); err != nil {
		return fmt.Errorf("blob store not ready: %w", err)
	}
	a.blobs = blobs

	a.staging, err = staging.NewStagingAreaFromConfig(cfg.Staging)
	if err != nil {
		return fmt.Errorf("creating staging area: %w", err)
	}

	hasher, err := vs.NewHasher(cfg.Hashing.Algorithm)
	if err != nil {
		return err
	}

	a.db, err = database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}

	a.dispatcher = events.NewDispatcher(cfg.Events, a.logger,
		events.NewSpatialFilter(cfg.Events.SpatialExtensions, events.LogHandler(a.logger, "spatial file ready for ingestion")),
	)

	limits := vs.Limits{
		MaxFileSizeBytes:         cfg.Limits.MaxFileSizeBytes,
		DefaultStorageLimitBytes: cfg.Limits.DefaultStorageLimitBytes,
	}
	a.service = vs.NewVSService(a.db, blobs, a.staging, hasher, a.dispatcher, a.logger, vs.RealClock{}, vs.UUIDGenerator{}, limits)

	a.runner, err = maintenance.NewRunner(a.service, cfg.Maintenance, a.logger)
	if err != nil {
		return fmt.Errorf("creating maintenance runner: %w", err)
	}
	return nil
}

// Service exposes the underlying service for callers that need more than
// the CLI operations.
func (a *VSApp) Service() *vs.VSService {
	return a.service
}

// Finish records the outcome of the operation in the log.
func (a *VSApp) Finish(err error) {
	d := a.op.Finish(err, time.Now())
	if err != nil {
		a.logger.Error("operation failed", "operation", a.op.Name, "duration", d.String(), "error", err)
		return
	}
	a.logger.Info("operation finished", "operation", a.op.Name, "duration", d.String())
}

// NeedsPassphrase reports whether reading content requires Unlock first.
func (a *VSApp) NeedsPassphrase() bool {
	sealed, ok := a.blobs.(*blob.SealedStore)
	return ok && sealed.Locked()
}

// Unlock opens the encryption key so sealed content can be read.
func (a *VSApp) Unlock(passphrase string) error {
	sealed, ok := a.blobs.(*blob.SealedStore)
	if !ok {
		return nil
	}
	return sealed.Unlock(passphrase)
}

// principal resolves the configured principal name to its owner id.
func (a *VSApp) principal(ctx context.Context) (string, error) {
	if a.cfg.Principal == "" {
		return "", fmt.Errorf("no principal configured: set principal in the config file")
	}
	owner, err := a.service.FindOwnerByName(ctx, a.cfg.Principal)
	if err != nil {
		return "", err
	}
	return owner.ID, nil
}

// project resolves a project argument. "name" is one of the principal's
// projects, "owner/name" a project shared by another owner. Access is
// checked by the operation itself.
func (a *VSApp) project(ctx context.Context, arg string) (string, *vs.Project, error) {
	principalID, err := a.principal(ctx)
	if err != nil {
		return "", nil, err
	}

	ownerID := principalID
	name := arg
	if ownerName, projectName, ok := strings.Cut(arg, "/"); ok {
		owner, err := a.service.FindOwnerByName(ctx, ownerName)
		if err != nil {
			return "", nil, err
		}
		ownerID, name = owner.ID, projectName
	}

	project, err := a.service.ProjectByName(ctx, ownerID, name)
	if err != nil {
		return "", nil, err
	}
	return principalID, project, nil
}

// Owners

// AddOwner creates an owner. A negative limit selects the configured default.
func (a *VSApp) AddOwner(ctx context.Context, name string, limitBytes int64) (*vs.Owner, error) {
	return a.service.CreateOwner(ctx, name, limitBytes)
}

// OwnerQuota returns the storage limit and usage of the named owner, or
// of the principal when name is empty.
func (a *VSApp) OwnerQuota(ctx context.Context, name string) (vs.QuotaAccount, error) {
	if name == "" {
		name = a.cfg.Principal
	}
	owner, err := a.service.FindOwnerByName(ctx, name)
	if err != nil {
		return vs.QuotaAccount{}, err
	}
	return a.service.Usage(ctx, owner.ID)
}

// SetOwnerLimit replaces the storage limit of the named owner.
func (a *VSApp) SetOwnerLimit(ctx context.Context, name string, limitBytes int64) error {
	owner, err := a.service.FindOwnerByName(ctx, name)
	if err != nil {
		return err
	}
	return a.service.SetStorageLimit(ctx, owner.ID, limitBytes)
}

// Projects

// CreateProject creates a project owned by the principal.
func (a *VSApp) CreateProject(ctx context.Context, name, description string, isPrivate bool) (*vs.Project, error) {
	principalID, err := a.principal(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.CreateProject(ctx, principalID, name, description, isPrivate)
}

// ListProjects returns the live projects of the principal.
func (a *VSApp) ListProjects(ctx context.Context) ([]*vs.Project, error) {
	principalID, err := a.principal(ctx)
	if err != nil {
		return nil, err
	}
	return a.service.ListProjects(ctx, principalID)
}

// ArchiveProject hides a project. Its bytes keep counting against the quota.
func (a *VSApp) ArchiveProject(ctx context.Context, name string) error {
	principalID, project, err := a.project(ctx, name)
	if err != nil {
		return err
	}
	return a.service.ArchiveProject(ctx, principalID, project.ID)
}

// DeleteProject removes a project with all its files and blobs.
func (a *VSApp) DeleteProject(ctx context.Context, name string) error {
	principalID, project, err := a.project(ctx, name)
	if err != nil {
		return err
	}
	return a.service.DeleteProject(ctx, principalID, project.ID)
}

// ProjectUsage returns the bytes stored in a project.
func (a *VSApp) ProjectUsage(ctx context.Context, name string) (int64, error) {
	principalID, project, err := a.project(ctx, name)
	if err != nil {
		return 0, err
	}
	return a.service.ProjectUsage(ctx, principalID, project.ID)
}

// Share grants the named owner a role on a project.
func (a *VSApp) Share(ctx context.Context, projectName, memberName, role string) error {
	r, err := vs.ParseRole(role)
	if err != nil {
		return err
	}
	principalID, project, err := a.project(ctx, projectName)
	if err != nil {
		return err
	}
	member, err := a.service.FindOwnerByName(ctx, memberName)
	if err != nil {
		return err
	}
	return a.service.GrantRole(ctx, principalID, project.ID, member.ID, r)
}

// Unshare removes the named owner from a project.
func (a *VSApp) Unshare(ctx context.Context, projectName, memberName string) error {
	principalID, project, err := a.project(ctx, projectName)
	if err != nil {
		return err
	}
	member, err := a.service.FindOwnerByName(ctx, memberName)
	if err != nil {
		return err
	}
	return a.service.RevokeRole(ctx, principalID, project.ID, member.ID)
}

// Files

// UploadOptions are the CLI flags of an upload.
type UploadOptions struct {
	// Name overrides the logical name. Only valid for a single file.
	Name string

	// Folder overrides the folder. Otherwise files below a collected
	// directory use their relative directory.
	Folder string

	Update    bool
	Promote   bool
	Recursive bool
}

// UploadReport is the outcome of one local file.
type UploadReport struct {
	Path      string
	Result    *vs.UploadResult
	Unchanged bool
	Err       error
}

// Upload collects the files at paths and uploads each of them to the
// project. A failure of one file does not stop the others; the returned
// error only covers problems that prevent any upload.
func (a *VSApp) Upload(ctx context.Context, projectName string, paths []string, opts UploadOptions) ([]UploadReport, error) {
	principalID, project, err := a.project(ctx, projectName)
	if err != nil {
		return nil, err
	}

	var files []fs.LocalFile
	for _, p := range paths {
		found, err := a.collector.Collect(p, opts.Recursive)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if opts.Name != "" && len(files) != 1 {
		return nil, fmt.Errorf("--name needs exactly one file, found %d", len(files))
	}

	mode := vs.UploadModeCreate
	if opts.Update {
		mode = vs.UploadModeUpdate
	}

	reports := make([]UploadReport, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		report := UploadReport{Path: f.Path}
		folder := opts.Folder
		if folder == "" {
			folder = folderFor(f)
		}
		report.Result, report.Err = a.uploadFile(ctx, &vs.UploadRequest{
			PrincipalID: principalID,
			ProjectID:   project.ID,
			Name:        opts.Name,
			SourceName:  filepath.Base(f.Path),
			Folder:      folder,
			Mode:        mode,
			Promote:     opts.Promote,
		}, f.Path)
		if errors.Is(report.Err, vs.ErrNoChangeDetected) {
			report.Unchanged, report.Err = true, nil
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (a *VSApp) uploadFile(ctx context.Context, req *vs.UploadRequest, path string) (*vs.UploadResult, error) {
	f, err := fs.OpenStable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	req.Content = f
	req.Size = f.Size()
	return a.service.Upload(ctx, req)
}

// folderFor maps the directory of a collected file to a folder name.
// Files at the root of what was collected keep the service default.
func folderFor(f fs.LocalFile) string {
	dir := f.Dir()
	if dir == "" {
		return ""
	}
	return strings.ReplaceAll(dir, "/", "_")
}

// Files returns the latest version of every logical file in a project.
func (a *VSApp) Files(ctx context.Context, projectName string) ([]*vs.FileVersion, error) {
	principalID, project, err := a.project(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return a.service.ListFiles(ctx, principalID, project.ID)
}

// History returns all versions of a logical file, newest first.
func (a *VSApp) History(ctx context.Context, projectName, name string) ([]*vs.FileVersion, error) {
	principalID, project, err := a.project(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return a.service.FileHistory(ctx, principalID, project.ID, name)
}

// findVersion picks version from the history of name. Version 0 selects
// the latest.
func (a *VSApp) findVersion(ctx context.Context, projectName, name string, version int64) (string, *vs.FileVersion, error) {
	principalID, project, err := a.project(ctx, projectName)
	if err != nil {
		return "", nil, err
	}
	history, err := a.service.FileHistory(ctx, principalID, project.ID, name)
	if err != nil {
		return "", nil, err
	}
	for _, v := range history {
		if (version == 0 && v.IsLatest) || v.Version == version {
			return principalID, v, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s version %d", vs.ErrFileNotFound, name, version)
}

// Get writes the content of one version of a logical file to w.
func (a *VSApp) Get(ctx context.Context, projectName, name string, version int64, w io.Writer) (*vs.FileVersion, error) {
	principalID, v, err := a.findVersion(ctx, projectName, name, version)
	if err != nil {
		return nil, err
	}
	return a.service.OpenVersion(ctx, principalID, v.ID, w)
}

// Remove deletes one version of a logical file.
func (a *VSApp) Remove(ctx context.Context, projectName, name string, version int64) (*vs.FileVersion, error) {
	principalID, v, err := a.findVersion(ctx, projectName, name, version)
	if err != nil {
		return nil, err
	}
	if err := a.service.DeleteFileVersion(ctx, principalID, v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

// Download writes a zip of the latest files of a project to w and
// returns how many files it holds.
func (a *VSApp) Download(ctx context.Context, projectName string, w io.Writer) (int, error) {
	principalID, project, err := a.project(ctx, projectName)
	if err != nil {
		return 0, err
	}
	return a.service.ExportProject(ctx, principalID, project.ID, w)
}

// Activity returns recent activity of the principal, or of one project
// when projectName is set.
func (a *VSApp) Activity(ctx context.Context, projectName string, limit int) ([]*vs.ActivityEntry, error) {
	if projectName == "" {
		principalID, err := a.principal(ctx)
		if err != nil {
			return nil, err
		}
		return a.service.ListActivity(ctx, principalID, limit)
	}
	principalID, project, err := a.project(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return a.service.ProjectActivity(ctx, principalID, project.ID, limit)
}

// Maintenance

// Reconcile runs one reconciliation pass.
func (a *VSApp) Reconcile(ctx context.Context, dryRun bool) (*vs.ReconcileReport, error) {
	return a.runner.RunOnce(ctx, dryRun)
}

// Maintain runs scheduled reconciliation until ctx is cancelled.
func (a *VSApp) Maintain(ctx context.Context) error {
	if err := a.runner.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.runner.Stop()
	return nil
}

// Close drains pending events and closes all resources.
func (a *VSApp) Close() error {
	var firstErr error

	if a.runner != nil {
		a.runner.Stop()
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
		if dropped := a.dispatcher.Dropped(); dropped > 0 {
			a.logger.Warn("events dropped", "count", dropped)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// InitKeys generates the encryption key pair named in cfg, protecting
// the private key with passphrase.
func InitKeys(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc.IsConfigured() {
		return fmt.Errorf("encryption keys already exist")
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}
	return nil
}
