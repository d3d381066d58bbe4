package staging

import (
	"fmt"

	"verstore/internal/config"
	"verstore/internal/vs"
)

// NewStagingAreaFromConfig creates a StagingArea implementation based on the config type.
func NewStagingAreaFromConfig(cfg config.StagingConfig) (vs.StagingArea, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStagingArea(), nil
	case "filesystem":
		if cfg.StagingDir == "" {
			return nil, fmt.Errorf("filesystem staging area requires staging_dir to be set")
		}
		return NewFileSystemStagingArea(cfg.StagingDir)
	default:
		return nil, fmt.Errorf("unknown staging area type: %s", cfg.Type)
	}
}
