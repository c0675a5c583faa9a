package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shelf-go/internal/config"
	"shelf-go/internal/database"
	"shelf-go/internal/encryption"
	"shelf-go/internal/shelf"
)

// ErrLocalNewer is returned by Restore when the local library has changes
// the vault snapshot does not include.
var ErrLocalNewer = errors.New("local library is newer than the vault snapshot")

// Restore replaces the local library with the newest snapshot held by the
// configured vaults. passphrase unlocks the snapshot and is ignored when
// encryption is off. Unless force is set, a local library with operations
// newer than the snapshot is left alone. Returns the restored version.
func Restore(cfg *config.Config, passphrase string, force bool) (int64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Database.Type != "sqlite" {
		return 0, fmt.Errorf("restore needs a sqlite database, configured type is %q", cfg.Database.Type)
	}

	vaults, err := vaultsFromConfig(cfg)
	if err != nil {
		return 0, err
	}
	source, version, err := newestVault(vaults, cfg.LibraryID)
	if err != nil {
		return 0, err
	}

	dbPath := database.DatabasePath(cfg.Database, cfg.LibraryID)
	if !force {
		localMax, err := localVersion(dbPath)
		if err != nil {
			return 0, err
		}
		if localMax > version {
			return 0, fmt.Errorf("%w (local=%d, vault=%d): use --force to overwrite", ErrLocalNewer, localMax, version)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}
	dctx, err := enc.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking snapshot: %w", err)
	}

	if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
		return 0, fmt.Errorf("creating data dir: %w", err)
	}
	tmpDir, err := os.MkdirTemp(cfg.Database.DataDir, ".restore-*")
	if err != nil {
		return 0, fmt.Errorf("creating restore dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	encPath := filepath.Join(tmpDir, "snapshot.enc")
	if err := fetchSnapshot(source, cfg.LibraryID, encPath); err != nil {
		return 0, err
	}

	plainPath := filepath.Join(tmpDir, "library.db")
	if err := decryptFile(dctx, encPath, plainPath); err != nil {
		return 0, err
	}

	if err := verifySnapshot(plainPath); err != nil {
		return 0, err
	}

	if err := os.Rename(plainPath, dbPath); err != nil {
		return 0, fmt.Errorf("replacing library: %w", err)
	}
	return version, nil
}

// newestVault picks the vault holding the highest snapshot version.
func newestVault(vaults []shelf.Vault, libraryID string) (shelf.Vault, int64, error) {
	var (
		source shelf.Vault
		best   int64
	)
	for _, v := range vaults {
		version, err := v.GetSnapshotVersion(libraryID)
		if err != nil {
			return nil, 0, fmt.Errorf("checking vault snapshot version: %w", err)
		}
		if version > best {
			source, best = v, version
		}
	}
	if source == nil {
		return nil, 0, fmt.Errorf("%w: %s", shelf.ErrNoSnapshot, libraryID)
	}
	return source, best, nil
}

// localVersion returns the newest operation ID in the library at path, or 0
// when there is no library there yet.
func localVersion(path string) (int64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, nil
	}
	db, err := database.NewSQLiteDatabase(path, nil)
	if err != nil {
		return 0, fmt.Errorf("opening local library: %w", err)
	}
	defer db.Close()

	v, err := db.MaxOperationID()
	if err != nil {
		return 0, fmt.Errorf("checking local library version: %w", err)
	}
	return v, nil
}

func fetchSnapshot(v shelf.Vault, libraryID, dst string) error {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	if err := v.GetSnapshot(libraryID, f); err != nil {
		f.Close()
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	return f.Close()
}

func decryptFile(dctx shelf.DecryptionContext, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating restored library: %w", err)
	}
	if err := dctx.Decrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	return out.Close()
}

// verifySnapshot brings the restored file to the current schema and makes
// sure it carries an operation log. Snapshots are only ever taken after an
// operation was recorded.
func verifySnapshot(path string) error {
	db, err := database.NewSQLiteDatabase(path, nil)
	if err != nil {
		return fmt.Errorf("opening restored library: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("restored library is not usable: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("restored library is not usable: %w", err)
	}
	if v, err := db.MaxOperationID(); err != nil || v == 0 {
		return fmt.Errorf("restored library has no operation log")
	}
	return nil
}
