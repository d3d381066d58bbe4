package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"verstore/internal/vs"
)

func TestNewFileSystemStore(t *testing.T) {
	t.Run("creates root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "blobs")
		if _, err := NewFileSystemStore(root); err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			t.Errorf("root not created: %v", err)
		}
	})

	t.Run("validate setup fails when root is a file", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileSystemStore(dir)
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		os.RemoveAll(dir)
		os.WriteFile(dir, []byte("x"), 0644)

		if err := store.ValidateSetup(); err == nil {
			t.Error("ValidateSetup() expected error, got nil")
		}
	})
}

func TestFileSystemStore_Layout(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	if err := store.Put(context.Background(), testKey, strings.NewReader("data"), 4); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(testKey)))
	if err != nil {
		t.Fatalf("blob file not at key path: %v", err)
	}
	if string(data) != "data" {
		t.Errorf("blob file = %q, want %q", data, "data")
	}

	entries, _ := os.ReadDir(filepath.Dir(filepath.Join(root, filepath.FromSlash(testKey))))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tmpPrefix) {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestFileSystemStore_FailedReaderLeavesNoTempFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	r := io.MultiReader(strings.NewReader("partial"), errReader{})
	if err := store.Put(context.Background(), testKey, r, -1); err == nil {
		t.Fatal("Put() expected error, got nil")
	}

	infos, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("List() = %v, want empty", infos)
	}

	var leftovers int
	filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			leftovers++
		}
		return nil
	})
	if leftovers != 0 {
		t.Errorf("found %d files after failed Put, want 0", leftovers)
	}
}

func TestFileSystemStore_CancelledContext(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Put(ctx, testKey, strings.NewReader("data"), 4)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
}

func TestFileSystemStore_ErrorsOmitPaths(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	t.Run("put", func(t *testing.T) {
		// A file where the owners directory belongs makes MkdirAll fail.
		if err := os.WriteFile(filepath.Join(root, "owners"), []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		defer os.Remove(filepath.Join(root, "owners"))

		err := store.Put(context.Background(), testKey, strings.NewReader("data"), 4)
		if err == nil {
			t.Fatal("Put() expected error, got nil")
		}
		wrapped := &vs.BlobError{Op: "put", Key: testKey, Err: err}
		if strings.Contains(wrapped.Error(), root) {
			t.Errorf("error %q contains blob root %q", wrapped.Error(), root)
		}
		if !errors.Is(err, syscall.ENOTDIR) {
			t.Errorf("Put() error = %v, want ENOTDIR kept in the chain", err)
		}
	})

	t.Run("get", func(t *testing.T) {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(testKey)), 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		defer os.RemoveAll(filepath.Join(root, "owners"))

		var buf bytes.Buffer
		err := store.Get(context.Background(), testKey, &buf)
		if err == nil {
			t.Fatal("Get() expected error, got nil")
		}
		if strings.Contains(err.Error(), root) {
			t.Errorf("error %q contains blob root %q", err.Error(), root)
		}
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
