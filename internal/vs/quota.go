package vs

import (
	"context"
	"fmt"
	"sync"
)

// QuotaLedger answers admission questions against per-owner byte limits.
//
// Usage is always derived from the sizes of stored file versions. The
// ledger may cache the sum for an owner; every committed write or delete
// for that owner must call Invalidate. The cached answer is advisory: the
// commit transaction re-checks the limit against the database.
type QuotaLedger struct {
	database Database

	mu    sync.Mutex
	usage map[string]int64

	// gen counts invalidations per owner. A sum read from the database is
	// cached only if no invalidation landed while it was being read.
	gen map[string]uint64
}

// NewQuotaLedger creates a ledger reading from database.
func NewQuotaLedger(database Database) *QuotaLedger {
	return &QuotaLedger{
		database: database,
		usage:    make(map[string]int64),
		gen:      make(map[string]uint64),
	}
}

// Account returns the owner's limit and current usage. A missing owner
// yields a zero-limit account.
func (q *QuotaLedger) Account(ctx context.Context, ownerID string) (QuotaAccount, error) {
	owner, err := q.database.FindOwner(ctx, ownerID)
	if err != nil {
		return QuotaAccount{}, fmt.Errorf("finding owner: %w", err)
	}
	if owner == nil {
		return QuotaAccount{OwnerID: ownerID}, nil
	}

	used, err := q.used(ctx, ownerID)
	if err != nil {
		return QuotaAccount{}, err
	}

	return QuotaAccount{
		OwnerID:    ownerID,
		LimitBytes: owner.StorageLimitBytes,
		UsedBytes:  used,
	}, nil
}

// CanStore reports whether size more bytes fit in the owner's limit.
// A limit of 0 or an owner with no quota record denies all storage.
func (q *QuotaLedger) CanStore(ctx context.Context, ownerID string, size int64) (bool, error) {
	account, err := q.Account(ctx, ownerID)
	if err != nil {
		return false, err
	}
	return fits(account, size), nil
}

// Remaining returns how many bytes the owner can still store.
func (q *QuotaLedger) Remaining(ctx context.Context, ownerID string) (int64, error) {
	account, err := q.Account(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return account.Remaining(), nil
}

// Invalidate drops the cached usage of an owner.
func (q *QuotaLedger) Invalidate(ownerID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.usage, ownerID)
	q.gen[ownerID]++
}

func (q *QuotaLedger) used(ctx context.Context, ownerID string) (int64, error) {
	q.mu.Lock()
	cached, ok := q.usage[ownerID]
	gen := q.gen[ownerID]
	q.mu.Unlock()
	if ok {
		return cached, nil
	}

	used, err := q.database.UsedBytes(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("summing used bytes: %w", err)
	}

	q.mu.Lock()
	if q.gen[ownerID] == gen {
		q.usage[ownerID] = used
	}
	q.mu.Unlock()
	return used, nil
}

func fits(account QuotaAccount, size int64) bool {
	if account.LimitBytes <= 0 {
		return false
	}
	return account.UsedBytes+size <= account.LimitBytes
}
