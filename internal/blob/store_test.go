package blob

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"verstore/internal/vs"
)

const testKey = "owners/o1/projects/p1/map/map_v1-0123456789ab.geojson"

// runStoreTests checks the behaviour every vs.BlobStore must share.
func runStoreTests(t *testing.T, newStore func(t *testing.T) vs.BlobStore) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		store := newStore(t)
		data := "hello world"

		if err := store.Put(ctx, testKey, strings.NewReader(data), int64(len(data))); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var buf bytes.Buffer
		if err := store.Get(ctx, testKey, &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != data {
			t.Errorf("Get() = %q, want %q", buf.String(), data)
		}
	})

	t.Run("put with unknown size", func(t *testing.T) {
		store := newStore(t)
		if err := store.Put(ctx, testKey, strings.NewReader("abc"), -1); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		ok, err := store.Exists(ctx, testKey)
		if err != nil || !ok {
			t.Errorf("Exists() = %v, %v, want true, nil", ok, err)
		}
	})

	t.Run("size mismatch leaves nothing behind", func(t *testing.T) {
		store := newStore(t)
		if err := store.Put(ctx, testKey, strings.NewReader("hello"), 100); err == nil {
			t.Fatal("Put() expected size mismatch error, got nil")
		}
		ok, err := store.Exists(ctx, testKey)
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if ok {
			t.Error("Exists() = true after failed Put")
		}
	})

	t.Run("put replaces content", func(t *testing.T) {
		store := newStore(t)
		store.Put(ctx, testKey, strings.NewReader("first"), 5)
		if err := store.Put(ctx, testKey, strings.NewReader("second"), 6); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		var buf bytes.Buffer
		store.Get(ctx, testKey, &buf)
		if buf.String() != "second" {
			t.Errorf("Get() = %q, want %q", buf.String(), "second")
		}
	})

	t.Run("get missing key", func(t *testing.T) {
		store := newStore(t)
		var buf bytes.Buffer
		err := store.Get(ctx, "owners/o1/missing.txt", &buf)
		if !errors.Is(err, vs.ErrBlobNotFound) {
			t.Errorf("Get() error = %v, want ErrBlobNotFound", err)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		store.Put(ctx, testKey, strings.NewReader("x"), 1)

		if err := store.Delete(ctx, testKey); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := store.Delete(ctx, testKey); err != nil {
			t.Errorf("second Delete() error = %v", err)
		}
		if ok, _ := store.Exists(ctx, testKey); ok {
			t.Error("Exists() = true after Delete")
		}
	})

	t.Run("list by prefix", func(t *testing.T) {
		store := newStore(t)
		lister, ok := store.(vs.BlobLister)
		if !ok {
			t.Skip("store cannot list")
		}

		keys := []string{"owners/o1/a.txt", "owners/o1/sub/b.txt", "owners/o2/c.txt"}
		for _, key := range keys {
			if err := store.Put(ctx, key, strings.NewReader("data"), 4); err != nil {
				t.Fatalf("Put(%s) error = %v", key, err)
			}
		}

		infos, err := lister.List(ctx, "owners/o1/")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(infos) != 2 {
			t.Fatalf("List() = %d keys, want 2: %v", len(infos), infos)
		}
		got := map[string]bool{}
		for _, info := range infos {
			got[info.Key] = true
			if info.ModifiedAt.IsZero() {
				t.Errorf("ModifiedAt of %s is zero", info.Key)
			}
		}
		if !got["owners/o1/a.txt"] || !got["owners/o1/sub/b.txt"] {
			t.Errorf("List() keys = %v", got)
		}
	})

	t.Run("rejects keys escaping the store", func(t *testing.T) {
		store := newStore(t)
		for _, key := range []string{"", "/abs/key", "owners/../../etc/passwd", `owners\o1`} {
			if err := store.Put(ctx, key, strings.NewReader("x"), 1); !errors.Is(err, vs.ErrInvalidArgument) {
				t.Errorf("Put(%q) error = %v, want ErrInvalidArgument", key, err)
			}
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		store := newStore(t)
		if err := store.ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) vs.BlobStore {
		return NewMemoryStore(nil)
	})
}

func TestFileSystemStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) vs.BlobStore {
		store, err := NewFileSystemStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		return store
	})
}
