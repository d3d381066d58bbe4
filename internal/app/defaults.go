package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - VERSTORE_CONFIG_PATH: config file location (default: ~/.config/verstore.toml)
//   - VERSTORE_HOME: base directory for verstore data (default: ~/.local/share/verstore)
//   - VERSTORE_ENV_FILE: env file loaded by LoadEnvFile (default: <home>/.env)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	envFile := os.Getenv("VERSTORE_ENV_FILE")
	if envFile == "" {
		envFile = filepath.Join(baseDir, ".env")
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"env_file":    envFile,
	}, nil
}

// LoadEnvFile adds the variables in path to the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading env file %s: %w", path, err)
}

// getConfigPath returns the config file path, checking VERSTORE_CONFIG_PATH env var first,
// then falling back to the default ~/.config/verstore.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("VERSTORE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "verstore.toml"), nil
}

// getBaseDir returns the base directory for verstore data, checking VERSTORE_HOME env var first,
// then falling back to the XDG default ~/.local/share/verstore.
func getBaseDir() (string, error) {
	if path := os.Getenv("VERSTORE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "verstore"), nil
}
