package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"verstore/internal/config"
	"verstore/internal/vs"
)

type fakeReconciler struct {
	mu    sync.Mutex
	calls []vs.ReconcileOptions
	err   error
	ran   chan struct{}
}

func (f *fakeReconciler) Reconcile(_ context.Context, opts vs.ReconcileOptions) (*vs.ReconcileReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &vs.ReconcileReport{Checked: 3, OrphanKeys: []string{"owners/o/x"}}, nil
}

func TestNewRunner(t *testing.T) {
	tests := []struct {
		name         string
		cfg          config.MaintenanceConfig
		wantInterval time.Duration
		wantGrace    time.Duration
		wantErr      bool
	}{
		{name: "disabled by default", cfg: config.MaintenanceConfig{}, wantGrace: 24 * time.Hour},
		{name: "interval and grace", cfg: config.MaintenanceConfig{ReconcileEvery: "6h", OrphanGrace: "1h"}, wantInterval: 6 * time.Hour, wantGrace: time.Hour},
		{name: "bad interval", cfg: config.MaintenanceConfig{ReconcileEvery: "often"}, wantErr: true},
		{name: "bad grace", cfg: config.MaintenanceConfig{OrphanGrace: "a while"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner(&fakeReconciler{}, tt.cfg, vs.NewNopLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRunner() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if r.Interval() != tt.wantInterval {
				t.Errorf("Interval() = %v, want %v", r.Interval(), tt.wantInterval)
			}
			if r.grace != tt.wantGrace {
				t.Errorf("grace = %v, want %v", r.grace, tt.wantGrace)
			}
		})
	}
}

func TestRunner_RunOnce(t *testing.T) {
	rec := &fakeReconciler{}
	r, err := NewRunner(rec, config.MaintenanceConfig{OrphanGrace: "2h"}, vs.NewNopLogger())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	report, err := r.RunOnce(context.Background(), true)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if report.Checked != 3 {
		t.Errorf("Checked = %d, want 3", report.Checked)
	}
	if len(rec.calls) != 1 || !rec.calls[0].DryRun || rec.calls[0].OrphanGrace != 2*time.Hour {
		t.Errorf("Reconcile() called with %+v, want one dry run with 2h grace", rec.calls)
	}

	status := r.Status()
	if status.Runs != 1 || status.Last != report || status.LastErr != nil {
		t.Errorf("Status() = %+v, want one successful run", status)
	}
}

func TestRunner_RunOnceError(t *testing.T) {
	wantErr := errors.New("database gone")
	r, err := NewRunner(&fakeReconciler{err: wantErr}, config.MaintenanceConfig{}, vs.NewNopLogger())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	if _, err := r.RunOnce(context.Background(), false); !errors.Is(err, wantErr) {
		t.Errorf("RunOnce() error = %v, want %v", err, wantErr)
	}
	if status := r.Status(); !errors.Is(status.LastErr, wantErr) {
		t.Errorf("Status().LastErr = %v, want %v", status.LastErr, wantErr)
	}
}

func TestRunner_Start(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		r, _ := NewRunner(&fakeReconciler{}, config.MaintenanceConfig{}, vs.NewNopLogger())
		if err := r.Start(context.Background()); !errors.Is(err, ErrDisabled) {
			t.Errorf("Start() error = %v, want ErrDisabled", err)
		}
		r.Stop()
	})

	t.Run("runs immediately then stops", func(t *testing.T) {
		rec := &fakeReconciler{ran: make(chan struct{}, 1)}
		r, err := NewRunner(rec, config.MaintenanceConfig{ReconcileEvery: "1h"}, vs.NewNopLogger())
		if err != nil {
			t.Fatalf("NewRunner() error = %v", err)
		}
		if err := r.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		defer r.Stop()

		select {
		case <-rec.ran:
		case <-time.After(5 * time.Second):
			t.Fatal("scheduled reconcile did not run")
		}

		if err := r.Start(context.Background()); err == nil {
			t.Error("second Start() expected error, got nil")
		}
	})
}
