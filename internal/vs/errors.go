package vs

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Sentinel errors. Callers match with errors.Is; the typed errors below
// carry the context needed to render an actionable message and unwrap to
// one of these.
var (
	ErrFileTooLarge          = errors.New("file too large")
	ErrQuotaExceeded         = errors.New("storage quota exceeded")
	ErrProjectNotFound       = errors.New("project not found")
	ErrProjectExists         = errors.New("project already exists")
	ErrProjectEmpty          = errors.New("project has no files")
	ErrFileNotFound          = errors.New("file not found")
	ErrOwnerNotFound         = errors.New("owner not found")
	ErrOwnerExists           = errors.New("owner already exists")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrNoChangeDetected      = errors.New("no change detected")
	ErrInternalInconsistency = errors.New("internal inconsistency")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrSizeMismatch          = errors.New("size mismatch")
	ErrBlobNotFound          = errors.New("blob not found")

	// ErrCommitConflict is returned by Database.CommitFileVersion when the
	// plan it was given no longer matches the stored state. The service
	// re-resolves once before giving up.
	ErrCommitConflict = errors.New("commit conflict")
)

// FileTooLargeError reports an upload above the per-file cap.
type FileTooLargeError struct {
	Name     string
	Size     int64
	MaxBytes int64
}

func (e *FileTooLargeError) Error() string {
	if e.Size <= 0 {
		return fmt.Sprintf("file %q exceeds the %s per-file limit", e.Name, humanize.IBytes(uint64(e.MaxBytes)))
	}
	return fmt.Sprintf("file %q is %s, above the %s per-file limit",
		e.Name, humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.MaxBytes)))
}

func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// QuotaExceededError reports an upload that would take the owner past
// their storage limit.
type QuotaExceededError struct {
	OwnerID   string
	Name      string
	Requested int64
	Used      int64
	Limit     int64
}

func (e *QuotaExceededError) Error() string {
	if e.Limit <= 0 {
		return fmt.Sprintf("cannot store %q: no storage quota assigned", e.Name)
	}
	return fmt.Sprintf("cannot store %q (%s): %s of %s used",
		e.Name,
		humanize.IBytes(uint64(e.Requested)),
		humanize.IBytes(uint64(e.Used)),
		humanize.IBytes(uint64(e.Limit)))
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// PermissionError reports a principal lacking the role an action needs.
type PermissionError struct {
	PrincipalID string
	ProjectID   string
	Action      string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s not allowed on project %s", e.Action, e.ProjectID)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// NoChangeError is returned in update mode when the uploaded bytes are
// already the latest version of the logical file.
type NoChangeError struct {
	ProjectID string
	Name      string
	Version   int64
}

func (e *NoChangeError) Error() string {
	return fmt.Sprintf("%q in project %s is unchanged (already version %d)", e.Name, e.ProjectID, e.Version)
}

func (e *NoChangeError) Unwrap() error { return ErrNoChangeDetected }

// InconsistencyError reports a violated storage invariant.
type InconsistencyError struct {
	ProjectID string
	Name      string
	Detail    string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("logical file %q in project %s: %s", e.Name, e.ProjectID, e.Detail)
}

func (e *InconsistencyError) Unwrap() error { return ErrInternalInconsistency }

// InvalidArgumentError reports a rejected input value.
type InvalidArgumentError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// BlobError wraps a failure of the blob store. The storage key is kept
// for logs but left out of the message.
type BlobError struct {
	Op  string
	Key string
	Err error
}

func (e *BlobError) Error() string {
	return fmt.Sprintf("blob %s failed: %v", e.Op, e.Err)
}

func (e *BlobError) Unwrap() error { return e.Err }

// IsTransient reports whether err came from the blob store rather than
// from validation or metadata state. Callers may retry the whole
// operation; the core never does.
func IsTransient(err error) bool {
	var be *BlobError
	if !errors.As(err, &be) {
		return false
	}
	return !errors.Is(err, ErrBlobNotFound)
}
