package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths locates the config file and the directory the library lives under.
type Paths struct {
	ConfigPath string
	BaseDir    string
}

// ResolvePaths reads SHELF_CONFIG_PATH and SHELF_HOME. Unset variables fall
// back to ~/.config/shelf.toml and ~/.local/share/shelf.
func ResolvePaths() (Paths, error) {
	configPath, err := envOrHome("SHELF_CONFIG_PATH", ".config", "shelf.toml")
	if err != nil {
		return Paths{}, err
	}
	baseDir, err := envOrHome("SHELF_HOME", ".local", "share", "shelf")
	if err != nil {
		return Paths{}, err
	}
	return Paths{ConfigPath: configPath, BaseDir: baseDir}, nil
}

func envOrHome(key string, rel ...string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%s is unset and the home directory is unknown: %w", key, err)
	}
	return filepath.Join(append([]string{home}, rel...)...), nil
}
