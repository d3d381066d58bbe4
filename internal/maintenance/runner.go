// Package maintenance runs reconciliation between metadata and blobs on
// a schedule.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"verstore/internal/config"
	"verstore/internal/vs"
)

// ErrDisabled is returned by Start when no interval is configured.
var ErrDisabled = errors.New("scheduled reconciliation is disabled")

// Reconciler is the part of VSService the runner drives.
type Reconciler interface {
	Reconcile(ctx context.Context, opts vs.ReconcileOptions) (*vs.ReconcileReport, error)
}

// Runner schedules reconciliation passes. Passes never overlap.
type Runner struct {
	reconciler Reconciler
	logger     vs.Logger
	interval   time.Duration
	grace      time.Duration

	mu        sync.Mutex
	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
	last      *vs.ReconcileReport
	lastErr   error
	runs      int
}

// NewRunner reads the interval and grace period from cfg.
func NewRunner(reconciler Reconciler, cfg config.MaintenanceConfig, logger vs.Logger) (*Runner, error) {
	interval, err := cfg.ReconcileInterval()
	if err != nil {
		return nil, err
	}
	grace, err := cfg.Grace()
	if err != nil {
		return nil, err
	}
	return &Runner{
		reconciler: reconciler,
		logger:     logger,
		interval:   interval,
		grace:      grace,
	}, nil
}

// Interval returns the configured interval. Zero means disabled.
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// Start schedules a pass immediately and then every interval. Passes run
// with a context derived from ctx, which Stop cancels.
func (r *Runner) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return ErrDisabled
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler != nil {
		return errors.New("runner already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := gocron.NewScheduler(time.UTC)
	s.SetMaxConcurrentJobs(1, gocron.WaitMode)

	_, err := s.Every(r.interval).Tag("reconcile").Do(func() {
		if _, err := r.RunOnce(runCtx, false); err != nil && runCtx.Err() == nil {
			r.logger.Error("scheduled reconcile failed", "error", err)
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("scheduling reconcile: %w", err)
	}

	r.scheduler = s
	r.cancel = cancel
	s.StartAsync()
	r.logger.Info("reconcile scheduled", "interval", r.interval.String(), "orphan_grace", r.grace.String())
	return nil
}

// Stop cancels any running pass and stops the schedule.
func (r *Runner) Stop() {
	r.mu.Lock()
	s, cancel := r.scheduler, r.cancel
	r.scheduler, r.cancel = nil, nil
	r.mu.Unlock()

	if s == nil {
		return
	}
	cancel()
	s.Stop()
}

// RunOnce performs a single reconciliation pass with the configured grace.
func (r *Runner) RunOnce(ctx context.Context, dryRun bool) (*vs.ReconcileReport, error) {
	started := time.Now()
	report, err := r.reconciler.Reconcile(ctx, vs.ReconcileOptions{
		DryRun:      dryRun,
		OrphanGrace: r.grace,
	})

	r.mu.Lock()
	r.runs++
	r.last, r.lastErr = report, err
	r.mu.Unlock()

	if err != nil {
		return report, err
	}
	r.logger.Info("reconcile finished",
		"dry_run", dryRun,
		"checked", report.Checked,
		"missing_blobs", len(report.MissingBlobs),
		"orphan_keys", len(report.OrphanKeys),
		"duration", time.Since(started).String(),
	)
	return report, nil
}

// Status describes the passes run so far.
type Status struct {
	Runs    int
	Last    *vs.ReconcileReport
	LastErr error
}

// Status returns a snapshot of the runner's history.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Runs: r.runs, Last: r.last, LastErr: r.lastErr}
}
