package encryption

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelf-go/internal/database"
	"shelf-go/internal/model"
	"shelf-go/internal/shelf"
)

// snapshotFile writes a library holding one book and returns a VACUUM INTO
// copy of it, the same file ShelfApp encrypts before upload.
func snapshotFile(t *testing.T) (path string, book *model.Book) {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewSQLiteDatabase(filepath.Join(dir, "lib.db"), shelf.RealClock{})
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	book = &model.Book{
		ID:        "book-1",
		Title:     "The Left Hand of Darkness",
		Author:    "Ursula K. Le Guin",
		Status:    model.StatusToRead,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertBook(book); err != nil {
		t.Fatalf("InsertBook() error = %v", err)
	}

	path = filepath.Join(dir, "snapshot.db")
	if err := db.BackupTo(path); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}
	return path, book
}

func TestTestEncryptor_SnapshotRoundTrip(t *testing.T) {
	snapshot, book := snapshotFile(t)
	plain, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}

	e := NewTestEncryptor()
	var sealed bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(plain), &sealed); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !bytes.HasPrefix(sealed.Bytes(), testHeader) {
		t.Fatalf("sealed snapshot starts with %q, want %q", sealed.Bytes()[:len(testHeader)], testHeader)
	}
	if !bytes.HasPrefix(sealed.Bytes()[len(testHeader):], []byte("SQLite format 3\x00")) {
		t.Error("sealed snapshot body is not the sqlite file")
	}

	dctx, err := e.Unlock("secret")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	restored := filepath.Join(t.TempDir(), "restored.db")
	f, err := os.Create(restored)
	if err != nil {
		t.Fatalf("creating restore target: %v", err)
	}
	if err := dctx.Decrypt(&sealed, f); err != nil {
		f.Close()
		t.Fatalf("Decrypt() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing restore target: %v", err)
	}

	db, err := database.NewSQLiteDatabase(restored, shelf.RealClock{})
	if err != nil {
		t.Fatalf("opening restored snapshot: %v", err)
	}
	defer db.Close()
	if err := db.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() on restored snapshot: %v", err)
	}
	got, err := db.FindBookByID(book.ID)
	if err != nil {
		t.Fatalf("FindBookByID() error = %v", err)
	}
	if got == nil || got.Title != book.Title || got.Author != book.Author {
		t.Errorf("restored book = %+v, want %q by %q", got, book.Title, book.Author)
	}
}

func TestTestEncryptor_Unlock(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		wantErr    error
	}{
		{"any passphrase", "secret", nil},
		{"empty passphrase", "", nil},
		{"rejected passphrase", WrongPassphrase, ErrBadPassphrase},
	}

	e := NewTestEncryptor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dctx, err := e.Unlock(tt.passphrase)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Unlock(%q) error = %v, want %v", tt.passphrase, err, tt.wantErr)
			}
			if tt.wantErr == nil && dctx == nil {
				t.Error("Unlock() returned nil context")
			}
		})
	}
}

func TestTestDecryptionContext_RejectsUnsealedData(t *testing.T) {
	snapshot, _ := snapshotFile(t)
	plain, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}

	tests := []struct {
		name    string
		input   []byte
		wantEOF bool
	}{
		{"plain sqlite file", plain, false},
		{"truncated header", testHeader[:3], true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := (&TestDecryptionContext{}).Decrypt(bytes.NewReader(tt.input), &out)
			if err == nil {
				t.Fatal("Decrypt() expected error")
			}
			if got := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF); got != tt.wantEOF {
				t.Errorf("Decrypt() error = %v, EOF = %v, want %v", err, got, tt.wantEOF)
			}
			if out.Len() != 0 {
				t.Errorf("Decrypt() wrote %d bytes for rejected input", out.Len())
			}
		})
	}
}

func TestTestEncryptor_AlwaysConfigured(t *testing.T) {
	e := NewTestEncryptor()
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false before Setup")
	}
	if err := e.Setup("secret"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.setupCalled {
		t.Error("Setup() was not recorded")
	}
}
