package vs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReconcileActor is the actor recorded for versions removed by reconciliation.
const ReconcileActor = "reconcile"

const defaultReconcileConcurrency = 8

// ReconcileOptions controls a reconciliation pass.
type ReconcileOptions struct {
	// DryRun reports what would be removed without removing it.
	DryRun bool

	// OrphanGrace protects recently written blobs, which may belong to a
	// commit that is still in flight.
	OrphanGrace time.Duration

	// Concurrency bounds parallel blob checks. 0 selects a default.
	Concurrency int
}

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	Checked      int
	MissingBlobs []*FileVersion
	OrphanKeys   []string
}

// Reconcile repairs the boundary between metadata and blobs. Versions
// whose blob is missing are deleted, promoting another version to latest
// where needed. If the blob store can list its keys, blobs that no
// version references and that are older than the grace period are
// deleted as well.
func (s *VSService) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	versions, err := s.database.ListAllFileVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing file versions: %w", err)
	}

	report := &ReconcileReport{Checked: len(versions)}

	missing, err := s.findMissingBlobs(ctx, versions, opts.Concurrency)
	if err != nil {
		return nil, err
	}
	report.MissingBlobs = missing

	if !opts.DryRun {
		for _, version := range missing {
			if err := s.removeDangling(ctx, version); err != nil {
				return report, err
			}
		}
	}

	lister, ok := s.blobs.(BlobLister)
	if !ok {
		s.logger.Info("reconciliation complete", "checked", report.Checked, "missing", len(missing))
		return report, nil
	}

	known := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		known[v.StorageKey] = struct{}{}
	}

	blobs, err := lister.List(ctx, "owners/")
	if err != nil {
		return report, &BlobError{Op: "list", Err: err}
	}

	cutoff := s.clock.Now().Add(-opts.OrphanGrace)
	for _, info := range blobs {
		if _, ok := known[info.Key]; ok {
			continue
		}
		if info.ModifiedAt.After(cutoff) {
			continue
		}
		// A commit may have landed after the listing above.
		inUse, err := s.database.StorageKeyInUse(ctx, info.Key)
		if err != nil {
			return report, fmt.Errorf("checking blob reference: %w", err)
		}
		if inUse {
			continue
		}

		report.OrphanKeys = append(report.OrphanKeys, info.Key)
		if opts.DryRun {
			continue
		}
		if err := s.blobs.Delete(ctx, info.Key); err != nil {
			return report, &BlobError{Op: "delete", Key: info.Key, Err: err}
		}
	}

	s.logger.Info("reconciliation complete",
		"checked", report.Checked,
		"missing", len(report.MissingBlobs),
		"orphans", len(report.OrphanKeys),
		"dry_run", opts.DryRun)
	return report, nil
}

// findMissingBlobs checks every version's blob concurrently. Any store
// error aborts the pass so an unreachable backend never looks like
// missing data.
func (s *VSService) findMissingBlobs(ctx context.Context, versions []*FileVersion, concurrency int) ([]*FileVersion, error) {
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}

	var (
		mu      sync.Mutex
		missing []*FileVersion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, version := range versions {
		g.Go(func() error {
			ok, err := s.blobs.Exists(gctx, version.StorageKey)
			if err != nil {
				return &BlobError{Op: "exists", Key: version.StorageKey, Err: err}
			}
			if !ok {
				mu.Lock()
				missing = append(missing, version)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return missing, nil
}

func (s *VSService) removeDangling(ctx context.Context, version *FileVersion) error {
	project, err := s.database.FindProject(ctx, version.ProjectID)
	if err != nil {
		return fmt.Errorf("finding project: %w", err)
	}
	if project == nil {
		project = &Project{ID: version.ProjectID}
	}

	activity := s.activity(ReconcileActor, project, version, ActionDeletedFile, s.clock.Now())
	err = s.database.DeleteFileVersion(ctx, version, activity)
	if errors.Is(err, ErrFileNotFound) {
		// Deleted since the listing; nothing left to repair.
		s.logger.Debug("dangling version already removed",
			"project", version.ProjectID,
			"name", version.Name,
			"version", version.Version)
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting dangling version: %w", err)
	}
	s.quota.Invalidate(version.OwnerID)

	s.logger.Warn("removed version with missing blob",
		"project", version.ProjectID,
		"name", version.Name,
		"version", version.Version)
	return nil
}
