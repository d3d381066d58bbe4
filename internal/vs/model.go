package vs

import "time"

// Owner is the quota record of a principal. The principal itself is
// managed by the authentication layer; only its identity and storage
// limit are kept here.
type Owner struct {
	ID                string
	Name              string
	StorageLimitBytes int64
	CreatedAt         time.Time
}

// Project is a named container of logical files owned by one Owner.
type Project struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	IsPrivate   bool
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FileVersion is one immutable stored blob of a logical file.
// Rows sharing ProjectID and Name form the logical file; exactly one of
// them has IsLatest set.
type FileVersion struct {
	ID          string
	ProjectID   string
	OwnerID     string
	Name        string
	Folder      string
	ContentHash string
	Version     int64
	Size        int64
	StorageKey  string
	IsLatest    bool
	CreatedAt   time.Time
}

// ActivityEntry is an append-only audit record. Project and file names
// are snapshots so entries stay readable after the rows are deleted.
type ActivityEntry struct {
	ID          int64
	ActorID     string
	ProjectID   string
	ProjectName string
	FileID      string
	FileName    string
	FileVersion int64
	Action      string
	CreatedAt   time.Time
}

// Activity labels recorded by state-changing operations.
const (
	ActionUploadedNewFile = "uploaded new file"
	ActionAddedNewFile    = "added new file"
	ActionNewFileVersion  = "create new file version"
	ActionRestoredVersion = "restored file version"
	ActionDeletedFile     = "deleted file"
	ActionProjectCreated  = "project created"
	ActionProjectArchived = "project archived"
	ActionProjectDeleted  = "project deleted"
	ActionMemberGranted   = "member granted"
	ActionMemberRevoked   = "member revoked"
)

// Role is a project membership role.
type Role string

const (
	RoleNone   Role = ""
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// rank orders roles so that checks can ask for "at least" a role.
func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleEditor:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Allows reports whether r grants at least the access of want.
func (r Role) Allows(want Role) bool {
	return r.rank() >= want.rank() && r.rank() > 0
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleViewer, RoleEditor, RoleAdmin:
		return Role(s), nil
	default:
		return RoleNone, &InvalidArgumentError{Field: "role", Value: s, Reason: "must be viewer, editor or admin"}
	}
}

// QuotaAccount is the storage usage of an owner. Used is always computed
// from stored file sizes, never kept as a counter.
type QuotaAccount struct {
	OwnerID    string
	LimitBytes int64
	UsedBytes  int64
}

// Remaining returns the bytes still available, never negative.
func (q QuotaAccount) Remaining() int64 {
	if q.UsedBytes >= q.LimitBytes {
		return 0
	}
	return q.LimitBytes - q.UsedBytes
}
