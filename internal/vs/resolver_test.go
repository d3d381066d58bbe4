package vs_test

import (
	"context"
	"errors"
	"testing"

	"verstore/internal/vs"
)

// resolverDB serves the three lookups the resolver makes from fixed rows.
type resolverDB struct {
	vs.Database
	rows []*vs.FileVersion
}

func (d *resolverDB) FindFileVersionByHash(_ context.Context, projectID string, hash string) (*vs.FileVersion, error) {
	for _, r := range d.rows {
		if r.ProjectID == projectID && r.ContentHash == hash {
			return r, nil
		}
	}
	return nil, nil
}

func (d *resolverDB) FindLatestVersions(_ context.Context, projectID string, name string) ([]*vs.FileVersion, error) {
	var out []*vs.FileVersion
	for _, r := range d.rows {
		if r.ProjectID == projectID && r.Name == name && r.IsLatest {
			out = append(out, r)
		}
	}
	return out, nil
}

func (d *resolverDB) MaxVersion(_ context.Context, projectID string, name string) (int64, error) {
	var highest int64
	for _, r := range d.rows {
		if r.ProjectID == projectID && r.Name == name && r.Version > highest {
			highest = r.Version
		}
	}
	return highest, nil
}

func TestVersionResolver_Resolve(t *testing.T) {
	project := &vs.Project{ID: "p1", OwnerID: "o1"}
	row := func(id, name, hash string, version int64, latest bool) *vs.FileVersion {
		return &vs.FileVersion{ID: id, ProjectID: "p1", Name: name, ContentHash: hash, Version: version, IsLatest: latest}
	}

	tests := []struct {
		name         string
		rows         []*vs.FileVersion
		upload       string
		hash         string
		wantOutcome  vs.Outcome
		wantExisting string
		wantPrior    string
		wantNext     int64
		wantErr      error
	}{
		{
			name:        "first upload",
			upload:      "a.txt",
			hash:        "h1",
			wantOutcome: vs.OutcomeNewFile,
			wantNext:    1,
		},
		{
			name:         "same bytes same name",
			rows:         []*vs.FileVersion{row("f1", "a.txt", "h1", 1, true)},
			upload:       "a.txt",
			hash:         "h1",
			wantOutcome:  vs.OutcomeDuplicate,
			wantExisting: "f1",
		},
		{
			name:         "same bytes different name",
			rows:         []*vs.FileVersion{row("f1", "a.txt", "h1", 1, true)},
			upload:       "b.txt",
			hash:         "h1",
			wantOutcome:  vs.OutcomeDuplicate,
			wantExisting: "f1",
		},
		{
			name:        "new bytes existing name",
			rows:        []*vs.FileVersion{row("f1", "a.txt", "h1", 1, false), row("f2", "a.txt", "h2", 2, true)},
			upload:      "a.txt",
			hash:        "h3",
			wantOutcome: vs.OutcomeNewVersion,
			wantPrior:   "f2",
			wantNext:    3,
		},
		{
			name:        "continues after highest when an older version is latest",
			rows:        []*vs.FileVersion{row("f1", "a.txt", "h1", 1, true), row("f2", "a.txt", "h2", 2, false)},
			upload:      "a.txt",
			hash:        "h3",
			wantOutcome: vs.OutcomeNewVersion,
			wantPrior:   "f1",
			wantNext:    3,
		},
		{
			name:        "new bytes new name",
			rows:        []*vs.FileVersion{row("f1", "a.txt", "h1", 1, true)},
			upload:      "b.txt",
			hash:        "h2",
			wantOutcome: vs.OutcomeNewFile,
			wantNext:    1,
		},
		{
			name:    "two latest rows",
			rows:    []*vs.FileVersion{row("f2", "a.txt", "h2", 2, true), row("f1", "a.txt", "h1", 1, true)},
			upload:  "a.txt",
			hash:    "h3",
			wantErr: vs.ErrInternalInconsistency,
		},
		{
			name:    "versions without latest",
			rows:    []*vs.FileVersion{row("f1", "a.txt", "h1", 1, false)},
			upload:  "a.txt",
			hash:    "h3",
			wantErr: vs.ErrInternalInconsistency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := vs.NewVersionResolver(&resolverDB{rows: tt.rows})
			got, err := resolver.Resolve(context.Background(), project, tt.upload, tt.hash)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %s, want %s", got.Outcome, tt.wantOutcome)
			}
			if tt.wantExisting != "" && (got.Existing == nil || got.Existing.ID != tt.wantExisting) {
				t.Errorf("Existing = %+v, want %s", got.Existing, tt.wantExisting)
			}
			if tt.wantPrior != "" && (got.Prior == nil || got.Prior.ID != tt.wantPrior) {
				t.Errorf("Prior = %+v, want %s", got.Prior, tt.wantPrior)
			}
			if got.NextVersion != tt.wantNext {
				t.Errorf("NextVersion = %d, want %d", got.NextVersion, tt.wantNext)
			}
		})
	}
}
