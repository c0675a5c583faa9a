package database

import (
	"fmt"
	"os"
	"path/filepath"

	"shelf-go/internal/config"
	"shelf-go/internal/shelf"
)

// NewDatabaseFromConfig opens the library store selected by cfg.Type.
// A sqlite library lives at {data_dir}/{libraryID}.db.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, libraryID string, clock shelf.Clock) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return NewSQLiteDatabase(DatabasePath(cfg, libraryID), clock)
	case "memory":
		return NewSQLiteDatabase(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// DatabasePath returns the file a sqlite library is stored in.
func DatabasePath(cfg config.DatabaseConfig, libraryID string) string {
	return filepath.Join(cfg.DataDir, libraryID+".db")
}
