package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"verstore/internal/config"
	"verstore/internal/fs"
	"verstore/internal/vs"
)

func newTestApp(t *testing.T) *VSApp {
	t.Helper()

	cfg := &config.Config{
		LogDir:    t.TempDir(),
		LogLevel:  "error",
		Principal: "alice",
		Database:  config.DatabaseConfig{Type: "memory"},
		Storage:   config.StorageConfig{Type: "memory"},
		Staging:   config.StagingConfig{Type: "memory"},
		Limits: config.LimitsConfig{
			MaxFileSizeBytes:         1 << 20,
			DefaultStorageLimitBytes: 10 << 20,
		},
		Events: config.EventsConfig{
			Workers:           1,
			QueueSize:         8,
			SpatialExtensions: []string{".geojson"},
		},
		Filesystem: config.FilesystemConfig{Ignore: []string{"*.bak"}},
	}

	a, err := NewVSApp(context.Background(), cfg, "Test", t.Name())
	if err != nil {
		t.Fatalf("NewVSApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestNewVSApp_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "unknown database", cfg: config.Config{Database: config.DatabaseConfig{Type: "mysql"}, Storage: config.StorageConfig{Type: "memory"}}},
		{name: "unknown log level", cfg: config.Config{LogLevel: "loud", Database: config.DatabaseConfig{Type: "memory"}, Storage: config.StorageConfig{Type: "memory"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.LogDir = t.TempDir()
			if _, err := NewVSApp(context.Background(), &tt.cfg, "Test", ""); err == nil {
				t.Error("NewVSApp() expected error, got nil")
			}
		})
	}
}

func TestVSApp_NoPrincipal(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Principal = ""

	if _, err := a.ListProjects(context.Background()); err == nil {
		t.Error("ListProjects() expected error without principal, got nil")
	}
}

func TestVSApp_Workflow(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	if _, err := a.AddOwner(ctx, "alice", -1); err != nil {
		t.Fatalf("AddOwner() error = %v", err)
	}
	if _, err := a.AddOwner(ctx, "bob", 1<<20); err != nil {
		t.Fatalf("AddOwner() error = %v", err)
	}
	if _, err := a.CreateProject(ctx, "survey", "field data", false); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".vsignore"), "*.tmp\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "alpha v1")
	writeFile(t, filepath.Join(dir, "scratch.tmp"), "ignored")
	writeFile(t, filepath.Join(dir, "old.bak"), "ignored")
	writeFile(t, filepath.Join(dir, "maps", "roads.geojson"), `{"type":"FeatureCollection"}`)

	t.Run("upload directory", func(t *testing.T) {
		reports, err := a.Upload(ctx, "survey", []string{dir}, UploadOptions{Recursive: true})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if len(reports) != 2 {
			t.Fatalf("Upload() reports = %d, want 2", len(reports))
		}
		for _, r := range reports {
			if r.Err != nil {
				t.Fatalf("upload of %s error = %v", r.Path, r.Err)
			}
			if r.Result.Outcome != vs.OutcomeNewFile {
				t.Errorf("upload of %s outcome = %s, want %s", r.Path, r.Result.Outcome, vs.OutcomeNewFile)
			}
		}

		files, err := a.Files(ctx, "survey")
		if err != nil {
			t.Fatalf("Files() error = %v", err)
		}
		folders := map[string]string{}
		for _, f := range files {
			folders[f.Name] = f.Folder
		}
		if folders["roads.geojson"] != "maps" {
			t.Errorf("roads.geojson folder = %q, want %q", folders["roads.geojson"], "maps")
		}
		if folders["notes.txt"] != "notes" {
			t.Errorf("notes.txt folder = %q, want %q", folders["notes.txt"], "notes")
		}
	})

	t.Run("update without changes", func(t *testing.T) {
		reports, err := a.Upload(ctx, "survey", []string{dir}, UploadOptions{Recursive: true, Update: true})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		for _, r := range reports {
			if r.Err != nil || !r.Unchanged {
				t.Errorf("upload of %s = (unchanged %v, err %v), want unchanged", r.Path, r.Unchanged, r.Err)
			}
		}
	})

	t.Run("update with changes", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "notes.txt"), "alpha v2")
		reports, err := a.Upload(ctx, "survey", []string{filepath.Join(dir, "notes.txt")}, UploadOptions{Update: true})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if len(reports) != 1 || reports[0].Err != nil {
			t.Fatalf("Upload() reports = %+v", reports)
		}
		if got := reports[0].Result.Version; got != 2 {
			t.Errorf("Version = %d, want 2", got)
		}
	})

	t.Run("name needs one file", func(t *testing.T) {
		if _, err := a.Upload(ctx, "survey", []string{dir}, UploadOptions{Recursive: true, Name: "x.txt"}); err == nil {
			t.Error("Upload() expected error for --name with many files, got nil")
		}
	})

	t.Run("history and get", func(t *testing.T) {
		history, err := a.History(ctx, "survey", "notes.txt")
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("History() = %d versions, want 2", len(history))
		}

		var buf bytes.Buffer
		if _, err := a.Get(ctx, "survey", "notes.txt", 1, &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != "alpha v1" {
			t.Errorf("Get(v1) = %q, want %q", buf.String(), "alpha v1")
		}

		buf.Reset()
		if _, err := a.Get(ctx, "survey", "notes.txt", 0, &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != "alpha v2" {
			t.Errorf("Get(latest) = %q, want %q", buf.String(), "alpha v2")
		}

		if _, err := a.Get(ctx, "survey", "notes.txt", 9, &buf); !errors.Is(err, vs.ErrFileNotFound) {
			t.Errorf("Get(v9) error = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("download", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := a.Download(ctx, "survey", &buf)
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if n != 2 {
			t.Errorf("Download() = %d files, want 2", n)
		}
		zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		if err != nil {
			t.Fatalf("zip.NewReader() error = %v", err)
		}
		if len(zr.File) != 2 {
			t.Errorf("archive entries = %d, want 2", len(zr.File))
		}
	})

	t.Run("sharing", func(t *testing.T) {
		if err := a.Share(ctx, "survey", "bob", "owner"); err == nil {
			t.Error("Share() expected error for unknown role, got nil")
		}
		if err := a.Share(ctx, "survey", "bob", "viewer"); err != nil {
			t.Fatalf("Share() error = %v", err)
		}
		if err := a.Unshare(ctx, "survey", "bob"); err != nil {
			t.Fatalf("Unshare() error = %v", err)
		}
		if _, err := a.Files(ctx, "bob/survey"); !errors.Is(err, vs.ErrProjectNotFound) {
			t.Errorf("Files(bob/survey) error = %v, want ErrProjectNotFound", err)
		}
	})

	t.Run("usage", func(t *testing.T) {
		want := int64(len("alpha v1") + len("alpha v2") + len(`{"type":"FeatureCollection"}`))
		used, err := a.ProjectUsage(ctx, "survey")
		if err != nil {
			t.Fatalf("ProjectUsage() error = %v", err)
		}
		if used != want {
			t.Errorf("ProjectUsage() = %d, want %d", used, want)
		}

		account, err := a.OwnerQuota(ctx, "")
		if err != nil {
			t.Fatalf("OwnerQuota() error = %v", err)
		}
		if account.UsedBytes != want || account.LimitBytes != 10<<20 {
			t.Errorf("OwnerQuota() = %+v, want used %d of %d", account, want, 10<<20)
		}

		if err := a.SetOwnerLimit(ctx, "alice", 5<<20); err != nil {
			t.Fatalf("SetOwnerLimit() error = %v", err)
		}
		account, _ = a.OwnerQuota(ctx, "alice")
		if account.LimitBytes != 5<<20 {
			t.Errorf("LimitBytes = %d, want %d", account.LimitBytes, 5<<20)
		}
	})

	t.Run("remove and activity", func(t *testing.T) {
		removed, err := a.Remove(ctx, "survey", "notes.txt", 0)
		if err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if removed.Version != 2 {
			t.Errorf("Remove() removed version %d, want 2", removed.Version)
		}

		history, _ := a.History(ctx, "survey", "notes.txt")
		if len(history) != 1 || !history[0].IsLatest {
			t.Errorf("History() after remove = %+v, want one latest version", history)
		}

		entries, err := a.Activity(ctx, "survey", 50)
		if err != nil {
			t.Fatalf("Activity() error = %v", err)
		}
		var actions []string
		for _, e := range entries {
			actions = append(actions, e.Action)
		}
		if !strings.Contains(strings.Join(actions, ","), vs.ActionDeletedFile) {
			t.Errorf("Activity() actions = %v, want a %q entry", actions, vs.ActionDeletedFile)
		}
	})

	t.Run("reconcile", func(t *testing.T) {
		report, err := a.Reconcile(ctx, true)
		if err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		if report.Checked != 2 || len(report.MissingBlobs) != 0 {
			t.Errorf("Reconcile() = %+v, want 2 checked and nothing missing", report)
		}
	})

	t.Run("maintain disabled", func(t *testing.T) {
		if err := a.Maintain(ctx); err == nil {
			t.Error("Maintain() expected error without an interval, got nil")
		}
	})

	t.Run("archive", func(t *testing.T) {
		if err := a.ArchiveProject(ctx, "survey"); err != nil {
			t.Fatalf("ArchiveProject() error = %v", err)
		}
		projects, err := a.ListProjects(ctx)
		if err != nil {
			t.Fatalf("ListProjects() error = %v", err)
		}
		if len(projects) != 0 {
			t.Errorf("ListProjects() = %d projects, want 0 after archive", len(projects))
		}
	})

	a.Finish(nil)
	if !a.op.Done() {
		t.Error("operation not finished")
	}
}

func TestFolderFor(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{rel: "a.txt", want: ""},
		{rel: "maps/roads.geojson", want: "maps"},
		{rel: "maps/2024/roads.geojson", want: "maps_2024"},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := folderFor(fs.LocalFile{RelativePath: tt.rel}); got != tt.want {
				t.Errorf("folderFor(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}
