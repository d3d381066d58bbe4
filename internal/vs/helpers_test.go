package vs_test

import (
	"bytes"
	"context"
	"testing"

	"verstore/internal/testutil"
	"verstore/internal/vs"
)

// fixture is a service with one owner and one public project.
type fixture struct {
	*testutil.Env
	owner   *vs.Owner
	project *vs.Project
}

func newFixture(t *testing.T, limit int64, limits vs.Limits) *fixture {
	t.Helper()
	ctx := context.Background()

	env := testutil.NewTestEnv(t, limits)
	owner, err := env.Service.CreateOwner(ctx, "alice", limit)
	if err != nil {
		t.Fatalf("CreateOwner() error = %v", err)
	}
	project, err := env.Service.CreateProject(ctx, owner.ID, "survey", "field survey", false)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return &fixture{Env: env, owner: owner, project: project}
}

// service returns a second service over the fixture's clock, events and
// IDs that reads and writes through db and blobs.
func (f *fixture) service(t *testing.T, db vs.Database, blobs vs.BlobStore) *vs.VSService {
	t.Helper()
	hasher, err := vs.NewHasher(vs.HashSHA256)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}
	return vs.NewVSService(db, blobs, testutil.NewTestStagingArea(), hasher, f.Events, vs.NewNopLogger(), f.Clock, f.IDs, vs.Limits{})
}

func (f *fixture) request(name string, data []byte) *vs.UploadRequest {
	return &vs.UploadRequest{
		PrincipalID: f.owner.ID,
		ProjectID:   f.project.ID,
		Name:        name,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
	}
}

func (f *fixture) upload(t *testing.T, name string, data []byte) *vs.UploadResult {
	t.Helper()
	result, err := f.Service.Upload(context.Background(), f.request(name, data))
	if err != nil {
		t.Fatalf("Upload(%s) error = %v", name, err)
	}
	return result
}

func (f *fixture) history(t *testing.T, name string) []*vs.FileVersion {
	t.Helper()
	versions, err := f.Service.FileHistory(context.Background(), f.owner.ID, f.project.ID, name)
	if err != nil {
		t.Fatalf("FileHistory(%s) error = %v", name, err)
	}
	return versions
}

func (f *fixture) used(t *testing.T) int64 {
	t.Helper()
	account, err := f.Service.Usage(context.Background(), f.owner.ID)
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	return account.UsedBytes
}

// latestCount returns how many versions of name are flagged latest.
func latestCount(versions []*vs.FileVersion) int {
	n := 0
	for _, v := range versions {
		if v.IsLatest {
			n++
		}
	}
	return n
}
