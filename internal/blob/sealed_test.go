package blob

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"verstore/internal/config"
	"verstore/internal/encryption"
	"verstore/internal/vs"
)

func TestSealedStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) vs.BlobStore {
		store := NewSealedStore(NewMemoryStore(nil), encryption.NewTestEncryptor())
		if err := store.Unlock("pw"); err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		return store
	})
}

func TestSealedStore_StoresCiphertext(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	enc := encryption.NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "verstore.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "verstore.key"),
	})
	if err := enc.Setup("correct horse"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	inner := NewMemoryStore(nil)
	store := NewSealedStore(inner, enc)
	plain := strings.Repeat("feature collection ", 5000)

	if err := store.Put(ctx, testKey, strings.NewReader(plain), int64(len(plain))); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var raw bytes.Buffer
	if err := inner.Get(ctx, testKey, &raw); err != nil {
		t.Fatalf("inner Get() error = %v", err)
	}
	if strings.Contains(raw.String(), "feature collection") {
		t.Error("inner store holds plaintext")
	}

	t.Run("locked store refuses reads", func(t *testing.T) {
		locked := NewSealedStore(inner, enc)
		var buf bytes.Buffer
		if err := locked.Get(ctx, testKey, &buf); !errors.Is(err, ErrLocked) {
			t.Errorf("Get() error = %v, want ErrLocked", err)
		}
		if !locked.Locked() {
			t.Error("Locked() = false, want true")
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		locked := NewSealedStore(inner, enc)
		if err := locked.Unlock("wrong"); err == nil {
			t.Error("Unlock() with wrong passphrase expected error")
		}
	})

	t.Run("unlocked store returns plaintext", func(t *testing.T) {
		if err := store.Unlock("correct horse"); err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		var buf bytes.Buffer
		if err := store.Get(ctx, testKey, &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != plain {
			t.Errorf("Get() returned %d bytes, want %d", buf.Len(), len(plain))
		}
	})
}

func TestSealedStore_ValidateSetup(t *testing.T) {
	dir := t.TempDir()
	enc := encryption.NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "verstore.pub"),
		PrivateKeyPath: filepath.Join(dir, "verstore.key"),
	})
	store := NewSealedStore(NewMemoryStore(nil), enc)

	if err := store.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() without keys expected error")
	}
	if err := enc.Setup("pw"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := store.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}
