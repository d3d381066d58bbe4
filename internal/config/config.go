package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration for verstore.
type Config struct {
	BaseDir  string `toml:"base_dir" yaml:"base_dir"`
	LogDir   string `toml:"log_dir" yaml:"log_dir"`
	LogLevel string `toml:"log_level" yaml:"log_level"` // "debug", "info" (default), "warn" or "error"

	// Principal is the owner name the CLI acts as.
	Principal string `toml:"principal" yaml:"principal"`

	Database    DatabaseConfig    `toml:"database" yaml:"database"`
	Storage     StorageConfig     `toml:"storage" yaml:"storage"`
	Staging     StagingConfig     `toml:"staging" yaml:"staging"`
	Limits      LimitsConfig      `toml:"limits" yaml:"limits"`
	Hashing     HashingConfig     `toml:"hashing" yaml:"hashing"`
	Events      EventsConfig      `toml:"events" yaml:"events"`
	Maintenance MaintenanceConfig `toml:"maintenance" yaml:"maintenance"`
	Encryption  EncryptionConfig  `toml:"encryption" yaml:"encryption"`
	Filesystem  FilesystemConfig  `toml:"filesystem" yaml:"filesystem"`
}

// DatabaseConfig represents configuration for the metadata database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type" yaml:"type"`                              // "sqlite", "postgres" or "memory"
	DataDir string `toml:"data_dir,omitempty" yaml:"data_dir,omitempty"` // only used for type=sqlite
	DSN     string `toml:"dsn,omitempty" yaml:"dsn,omitempty"`           // only used for type=postgres
}

// StorageConfig represents configuration for the blob store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type" yaml:"type"` // "memory", "filesystem" or "s3"

	// Encrypted seals blobs with the configured age key before storing them.
	Encrypted bool `toml:"encrypted" yaml:"encrypted"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	Root string `toml:"root,omitempty" yaml:"root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty" yaml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty" yaml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty" yaml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty" yaml:"s3_endpoint,omitempty"`
	S3UsePathStyle    bool   `toml:"s3_use_path_style,omitempty" yaml:"s3_use_path_style,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty" yaml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty" yaml:"s3_secret_access_key,omitempty"`
}

// StagingConfig represents configuration for the upload staging area.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StagingConfig struct {
	Type       string `toml:"type" yaml:"type"`                                    // "memory" or "filesystem"
	StagingDir string `toml:"staging_dir,omitempty" yaml:"staging_dir,omitempty"` // only used for type=filesystem
}

// LimitsConfig holds the storage limits.
type LimitsConfig struct {
	MaxFileSizeBytes         int64 `toml:"max_file_size_bytes" yaml:"max_file_size_bytes"`                 // 0 means no per-file cap
	DefaultStorageLimitBytes int64 `toml:"default_storage_limit_bytes" yaml:"default_storage_limit_bytes"` // assigned to new owners
}

// HashingConfig selects the content digest.
type HashingConfig struct {
	Algorithm string `toml:"algorithm" yaml:"algorithm"` // "sha256" (default) or "blake3"
}

// EventsConfig configures delivery of post-commit events.
type EventsConfig struct {
	Workers   int `toml:"workers" yaml:"workers"`
	QueueSize int `toml:"queue_size" yaml:"queue_size"`

	// SpatialExtensions are the file extensions forwarded to spatial ingestion.
	SpatialExtensions []string `toml:"spatial_extensions" yaml:"spatial_extensions"`
}

// MaintenanceConfig configures scheduled reconciliation.
type MaintenanceConfig struct {
	ReconcileEvery string `toml:"reconcile_every" yaml:"reconcile_every"` // duration such as "6h"; empty disables
	OrphanGrace    string `toml:"orphan_grace" yaml:"orphan_grace"`       // duration, defaults to 24h
}

// EncryptionConfig holds paths to the age key pair used for encryption at rest.
type EncryptionConfig struct {
	Type           string `toml:"type" yaml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path" yaml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path" yaml:"private_key_path"`
}

// FilesystemConfig holds settings for uploading from local directories.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore" yaml:"ignore"`
}

// NewConfig creates a new Config with the provided values and defaults.
func NewConfig(principal, baseDir string) *Config {
	return &Config{
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		LogLevel:  "info",
		Principal: principal,
		Database:  DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Storage:   StorageConfig{Type: "filesystem", Root: filepath.Join(baseDir, "blobs")},
		Staging:   StagingConfig{Type: "filesystem", StagingDir: filepath.Join(baseDir, "staging")},
		Limits: LimitsConfig{
			MaxFileSizeBytes:         100 << 20,
			DefaultStorageLimitBytes: 1 << 30,
		},
		Hashing: HashingConfig{Algorithm: "sha256"},
		Events: EventsConfig{
			Workers:           2,
			QueueSize:         64,
			SpatialExtensions: []string{".geojson", ".gpkg", ".kml"},
		},
		Maintenance: MaintenanceConfig{OrphanGrace: "24h"},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "verstore.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "verstore.key"),
		},
	}
}

// Validate checks the tagged unions and values that cannot be checked by decoding.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}
	switch c.Storage.Type {
	case "memory", "filesystem", "s3":
	default:
		return fmt.Errorf("unknown storage type: %q", c.Storage.Type)
	}
	switch c.Staging.Type {
	case "", "memory", "filesystem":
	default:
		return fmt.Errorf("unknown staging type: %q", c.Staging.Type)
	}
	if c.Limits.MaxFileSizeBytes < 0 {
		return fmt.Errorf("limits.max_file_size_bytes must not be negative")
	}
	if c.Limits.DefaultStorageLimitBytes < 0 {
		return fmt.Errorf("limits.default_storage_limit_bytes must not be negative")
	}
	if _, err := c.Maintenance.ReconcileInterval(); err != nil {
		return err
	}
	if _, err := c.Maintenance.Grace(); err != nil {
		return err
	}
	return nil
}

// ReconcileInterval parses ReconcileEvery. Zero means disabled.
func (m MaintenanceConfig) ReconcileInterval() (time.Duration, error) {
	if m.ReconcileEvery == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(m.ReconcileEvery)
	if err != nil {
		return 0, fmt.Errorf("invalid maintenance.reconcile_every: %w", err)
	}
	return d, nil
}

// Grace parses OrphanGrace, defaulting to 24 hours.
func (m MaintenanceConfig) Grace() (time.Duration, error) {
	if m.OrphanGrace == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(m.OrphanGrace)
	if err != nil {
		return 0, fmt.Errorf("invalid maintenance.orphan_grace: %w", err)
	}
	return d, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a TOML Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ReadYAML decodes a YAML Config from the provided reader.
func (m *Manager) ReadYAML(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config as TOML to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path. Files ending
// in .yaml or .yml are decoded as YAML, everything else as TOML.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = m.ReadYAML(f)
	default:
		cfg, err = m.Read(f)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
