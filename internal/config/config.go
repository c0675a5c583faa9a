package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for shelf.
type Config struct {
	LibraryID  string           `toml:"library_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Database   DatabaseConfig   `toml:"database"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// DatabaseConfig selects where the book records live.
// Type is "sqlite" or "memory"; DataDir is only used for sqlite.
type DatabaseConfig struct {
	Type    string `toml:"type"`
	DataDir string `toml:"data_dir,omitempty"`
}

// CatalogConfig points the ISBN lookup at a Google Books compatible endpoint.
type CatalogConfig struct {
	BaseURL string   `toml:"base_url,omitempty"`
	Timeout Duration `toml:"timeout,omitempty"`
}

// VaultConfig describes where library snapshots are kept.
// Type is "memory" or "filesystem"; FSVaultRoot is only used for filesystem.
type VaultConfig struct {
	Type        string `toml:"type"`
	Name        string `toml:"name"`
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// EncryptionConfig controls encryption of snapshots written to vaults.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path,omitempty"`
	PrivateKeyPath string `toml:"private_key_path,omitempty"`
}

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// NewConfig creates a Config with the default layout under baseDir:
// a sqlite library, a filesystem vault and no encryption.
func NewConfig(libraryID, baseDir string) *Config {
	return &Config{
		LibraryID: libraryID,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "vault")},
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "shelf.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "shelf.key"),
		},
	}
}

// CatalogTimeout returns the configured lookup timeout. Zero means no
// override: the HTTP transport's own behavior applies.
func (c *Config) CatalogTimeout() time.Duration {
	if c.Catalog.Timeout.Duration <= 0 {
		return 0
	}
	return c.Catalog.Timeout.Duration
}

// Validate reports the first problem that would stop the app from starting.
func (c *Config) Validate() error {
	if c.LibraryID == "" {
		return fmt.Errorf("library_id is required")
	}
	switch c.Database.Type {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}
	switch c.Encryption.Type {
	case "", "none", "age", "test":
	default:
		return fmt.Errorf("unknown encryption type: %q", c.Encryption.Type)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
