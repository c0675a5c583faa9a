package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"shelf-go/internal/catalog"
	"shelf-go/internal/config"
	"shelf-go/internal/database"
	"shelf-go/internal/encryption"
	"shelf-go/internal/export"
	"shelf-go/internal/model"
	"shelf-go/internal/shelf"
	"shelf-go/internal/vault"
)

// ErrBehindVault is returned when a vault holds a snapshot newer than the
// local library. The local copy must be restored before it can be changed.
var ErrBehindVault = errors.New("local library is behind the vault")

// Options controls logging for a ShelfApp.
type Options struct {
	// Level is the minimum level written to the log file.
	Level slog.Level
	// Echo receives a copy of log lines at or above EchoLevel.
	// nil keeps logs in the file only.
	Echo      io.Writer
	EchoLevel slog.Level
}

// ShelfApp is the application layer between the CLI/TUI and LibraryService.
// It constructs all dependencies from config, records the running command in
// the operation log the first time it changes the library, and on Close
// uploads a snapshot of the library to every configured vault.
type ShelfApp struct {
	cfg       *config.Config
	db        shelf.Store
	vaults    []shelf.Vault
	encryptor shelf.Encryptor
	service   *shelf.LibraryService
	op        *Operation
	logger    *slog.Logger
	logFile   *os.File
}

// NewShelfApp creates a fully wired ShelfApp from the given config.
// operation identifies the CLI command being run (e.g. "add", "start", "ui")
// and parameters is a short description of its arguments for the history.
// The caller must call Close when done.
func NewShelfApp(cfg *config.Config, operation, parameters string, opts Options) (*ShelfApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	vaults, err := vaultsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.LibraryID, shelf.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	// Check the local library version against the vaults.
	localMax, err := db.MaxOperationID()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking local library version: %w", err)
	}
	remoteVersion, err := latestVersion(vaults, cfg.LibraryID)
	if err != nil {
		db.Close()
		return nil, err
	}
	if remoteVersion > localMax {
		db.Close()
		return nil, fmt.Errorf("%w (local=%d, vault=%d): run `shelf restore`", ErrBehindVault, localMax, remoteVersion)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, opts)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	lookup := catalog.NewClient(cfg.Catalog.BaseURL, cfg.CatalogTimeout())
	svc := shelf.NewLibraryService(db, lookup, &slogAdapter{l: logger}, shelf.RealClock{}, shelf.UUIDGenerator{})

	return &ShelfApp{
		cfg:       cfg,
		db:        db,
		vaults:    vaults,
		encryptor: enc,
		service:   svc,
		op:        NewOperation(operation, parameters),
		logger:    logger,
		logFile:   logFile,
	}, nil
}

func vaultsFromConfig(cfg *config.Config) ([]shelf.Vault, error) {
	vaults := make([]shelf.Vault, 0, len(cfg.Vaults))
	for _, vc := range cfg.Vaults {
		v, err := vault.NewVaultFromConfig(vc)
		if err != nil {
			return nil, fmt.Errorf("creating vault %q: %w", vc.Name, err)
		}
		vaults = append(vaults, v)
	}
	return vaults, nil
}

// latestVersion returns the highest snapshot version held by any vault.
func latestVersion(vaults []shelf.Vault, libraryID string) (int64, error) {
	var latest int64
	for _, v := range vaults {
		version, err := v.GetSnapshotVersion(libraryID)
		if err != nil {
			return 0, fmt.Errorf("checking vault snapshot version: %w", err)
		}
		if version > latest {
			latest = version
		}
	}
	return latest, nil
}

// persistOperation saves the operation to the database, giving it an auto-increment ID.
// This should only be called for mutating commands.
func (a *ShelfApp) persistOperation() error {
	if a.op.Persisted() {
		return nil
	}
	dbOp, err := a.db.CreateOperation(a.op.Name, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// mutate persists the operation, runs fn and records its outcome.
func (a *ShelfApp) mutate(fn func() (*model.Book, error)) (*model.Book, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	b, err := fn()
	return b, a.op.Record(err)
}

// Shelves returns the three status views.
func (a *ShelfApp) Shelves() (*shelf.Shelves, error) {
	return a.service.Shelves()
}

// ListByStatus returns the books on a single shelf.
func (a *ShelfApp) ListByStatus(status model.Status) ([]*model.Book, error) {
	return a.service.ListByStatus(status)
}

// Book returns a single book by ID.
func (a *ShelfApp) Book(id string) (*model.Book, error) {
	return a.service.Book(id)
}

// AddBook inserts a new to-read book built from d.
func (a *ShelfApp) AddBook(d shelf.Draft) (*model.Book, error) {
	return a.mutate(func() (*model.Book, error) { return a.service.AddBook(d) })
}

// StartReading moves a to-read book to reading.
func (a *ShelfApp) StartReading(id string) (*model.Book, error) {
	return a.mutate(func() (*model.Book, error) { return a.service.StartReading(id) })
}

// MarkFinished moves a reading book to finished.
func (a *ShelfApp) MarkFinished(id string) (*model.Book, error) {
	return a.mutate(func() (*model.Book, error) { return a.service.MarkFinished(id) })
}

func (a *ShelfApp) UpdateNotes(id, notes string) (*model.Book, error) {
	return a.mutate(func() (*model.Book, error) { return a.service.UpdateNotes(id, notes) })
}

func (a *ShelfApp) UpdateSummary(id, summary string) (*model.Book, error) {
	return a.mutate(func() (*model.Book, error) { return a.service.UpdateSummary(id, summary) })
}

func (a *ShelfApp) SetCoverURL(id, raw string) (*model.Book, error) {
	return a.mutate(func() (*model.Book, error) { return a.service.SetCoverURL(id, raw) })
}

func (a *ShelfApp) SetCoverImage(id string, data []byte) (*model.Book, error) {
	return a.mutate(func() (*model.Book, error) { return a.service.SetCoverImage(id, data) })
}

// SetCoverImageFile reads an image from disk and attaches it to the book.
func (a *ShelfApp) SetCoverImageFile(id, path string) (*model.Book, error) {
	data, err := ReadCoverFile(path)
	if err != nil {
		return nil, err
	}
	return a.SetCoverImage(id, data)
}

// ReadCoverFile reads a cover image, rejecting empty files.
func ReadCoverFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cover image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("cover image %s is empty", path)
	}
	return data, nil
}

// FetchMetadata looks up an ISBN in the catalog. It does not change the library.
func (a *ShelfApp) FetchMetadata(ctx context.Context, isbn string) (*model.Metadata, error) {
	return a.service.FetchMetadata(ctx, isbn)
}

// NewAddBookFlow starts an add-book session whose Save is recorded like AddBook.
func (a *ShelfApp) NewAddBookFlow() *shelf.AddBookFlow {
	return shelf.NewAddBookFlow(a)
}

// GetHistory returns the most recent operations.
func (a *ShelfApp) GetHistory(limit int) ([]*model.Operation, error) {
	return a.service.GetHistory(limit)
}

// Export writes every book to w in the given format.
func (a *ShelfApp) Export(w io.Writer, format string) error {
	books, err := a.db.ListBooks()
	if err != nil {
		return fmt.Errorf("listing books: %w", err)
	}
	doc := export.NewDocument(a.cfg.LibraryID, books, time.Now().UTC())
	return export.Write(w, format, doc)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, snapshots the DB
// and uploads it to every vault with version = operation ID.
// For non-persisted operations: just closes the database.
func (a *ShelfApp) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			keep(fmt.Errorf("finishing operation: %w", err))
		}

		tmpDir, err := os.MkdirTemp("", "shelf-snapshot-*")
		if err != nil {
			keep(fmt.Errorf("creating temp dir for snapshot: %w", err))
		}

		var snapshotPath string
		if tmpDir != "" {
			defer os.RemoveAll(tmpDir)
			snapshotPath = filepath.Join(tmpDir, "library.db")
			if err := a.db.BackupTo(snapshotPath); err != nil {
				keep(fmt.Errorf("backing up database: %w", err))
				snapshotPath = ""
			}
		}

		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}

		if snapshotPath != "" {
			if err := a.uploadSnapshot(snapshotPath, a.op.ID); err != nil {
				a.logger.Error("snapshot upload failed", "version", a.op.ID, "error", err)
				keep(err)
			} else {
				a.logger.Info("snapshot uploaded", "version", a.op.ID, "vaults", len(a.vaults))
			}
		}
	} else {
		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// uploadSnapshot encrypts the database copy at path and stores it in every vault.
func (a *ShelfApp) uploadSnapshot(path string, version int64) error {
	if len(a.vaults) == 0 {
		return nil
	}

	encPath := path + ".enc"
	if err := encryptFile(a.encryptor, path, encPath); err != nil {
		return err
	}

	for _, v := range a.vaults {
		if err := putFile(v, a.cfg.LibraryID, encPath, version); err != nil {
			return err
		}
	}
	return nil
}

func encryptFile(enc shelf.Encryptor, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	if err := enc.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing encrypted snapshot: %w", err)
	}
	return nil
}

func putFile(v shelf.Vault, libraryID, path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	if err := v.PutSnapshot(libraryID, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading snapshot to vault: %w", err)
	}
	return nil
}
