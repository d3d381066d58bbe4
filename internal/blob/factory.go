package blob

import (
	"context"
	"fmt"

	"verstore/internal/config"
	"verstore/internal/encryption"
	"verstore/internal/vs"
)

// NewStoreFromConfig creates the blob store selected by cfg.Type. When
// cfg.Encrypted is set the store is wrapped in a SealedStore using
// encryptor, which must then be non-nil.
func NewStoreFromConfig(ctx context.Context, cfg config.StorageConfig, encryptor encryption.Encryptor) (vs.BlobStore, error) {
	var store vs.BlobStore
	switch cfg.Type {
	case "memory":
		store = NewMemoryStore(nil)
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem storage requires root to be set")
		}
		fsStore, err := NewFileSystemStore(cfg.Root)
		if err != nil {
			return nil, err
		}
		store = fsStore
	case "s3":
		s3Store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = s3Store
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}

	if !cfg.Encrypted {
		return store, nil
	}
	if encryptor == nil {
		return nil, fmt.Errorf("encrypted storage requires an encryptor")
	}
	return NewSealedStore(store, encryptor), nil
}
