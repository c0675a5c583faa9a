package database

import (
	"path/filepath"
	"testing"
	"time"

	"shelf-go/internal/model"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// newTestDB creates a new in-memory database with migrations applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:", &fixedClock{now: testNow})
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newBook(id, title string) *model.Book {
	return &model.Book{
		ID:        id,
		Title:     title,
		Status:    model.StatusToRead,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func intPtr(n int) *int { return &n }

func TestSQLiteDatabase_FindBookByID(t *testing.T) {
	t.Run("returns nil when book not found", func(t *testing.T) {
		db := newTestDB(t)

		book, err := db.FindBookByID("missing")
		if err != nil {
			t.Fatalf("FindBookByID() error = %v", err)
		}
		if book != nil {
			t.Errorf("FindBookByID() = %v, want nil", book)
		}
	})

	t.Run("round trips every field", func(t *testing.T) {
		db := newTestDB(t)

		start := testNow.Add(24 * time.Hour)
		finish := testNow.Add(72 * time.Hour)
		in := &model.Book{
			ID:            "b1",
			ISBN:          "9780441013593",
			Title:         "Dune",
			Subtitle:      "Book One",
			Author:        "Frank Herbert",
			PublishedDate: "1965",
			CoverURL:      "http://example.com/dune.jpg",
			CoverImage:    []byte{0x89, 'P', 'N', 'G'},
			PageCount:     intPtr(412),
			Status:        model.StatusFinished,
			StartDate:     &start,
			FinishDate:    &finish,
			Notes:         "spice",
			Summary:       "desert planet",
			CreatedAt:     testNow,
			UpdatedAt:     finish,
		}
		if err := db.InsertBook(in); err != nil {
			t.Fatalf("InsertBook() error = %v", err)
		}

		got, err := db.FindBookByID("b1")
		if err != nil {
			t.Fatalf("FindBookByID() error = %v", err)
		}
		if got == nil {
			t.Fatal("FindBookByID() returned nil")
		}

		if got.ISBN != in.ISBN || got.Title != in.Title || got.Subtitle != in.Subtitle ||
			got.Author != in.Author || got.PublishedDate != in.PublishedDate || got.CoverURL != in.CoverURL {
			t.Errorf("text fields = %+v, want %+v", got, in)
		}
		if string(got.CoverImage) != string(in.CoverImage) {
			t.Errorf("CoverImage = %v, want %v", got.CoverImage, in.CoverImage)
		}
		if got.PageCount == nil || *got.PageCount != 412 {
			t.Errorf("PageCount = %v, want 412", got.PageCount)
		}
		if got.Status != model.StatusFinished {
			t.Errorf("Status = %q, want finished", got.Status)
		}
		if got.StartDate == nil || !got.StartDate.Equal(start) {
			t.Errorf("StartDate = %v, want %v", got.StartDate, start)
		}
		if got.FinishDate == nil || !got.FinishDate.Equal(finish) {
			t.Errorf("FinishDate = %v, want %v", got.FinishDate, finish)
		}
		if got.Notes != "spice" || got.Summary != "desert planet" {
			t.Errorf("Notes/Summary = %q/%q", got.Notes, got.Summary)
		}
		if !got.CreatedAt.Equal(testNow) || !got.UpdatedAt.Equal(finish) {
			t.Errorf("CreatedAt/UpdatedAt = %v/%v", got.CreatedAt, got.UpdatedAt)
		}
	})

	t.Run("optional fields stay empty", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.InsertBook(newBook("b1", "Untitled Notes")); err != nil {
			t.Fatalf("InsertBook() error = %v", err)
		}

		got, err := db.FindBookByID("b1")
		if err != nil {
			t.Fatalf("FindBookByID() error = %v", err)
		}
		if got.PageCount != nil {
			t.Errorf("PageCount = %v, want nil", *got.PageCount)
		}
		if got.CoverImage != nil {
			t.Errorf("CoverImage = %v, want nil", got.CoverImage)
		}
		if got.StartDate != nil || got.FinishDate != nil {
			t.Errorf("dates = %v/%v, want nil", got.StartDate, got.FinishDate)
		}
		if got.ISBN != "" || got.CoverURL != "" {
			t.Errorf("ISBN/CoverURL = %q/%q, want empty", got.ISBN, got.CoverURL)
		}
	})
}

func TestSQLiteDatabase_InsertBook(t *testing.T) {
	t.Run("fails on duplicate id", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.InsertBook(newBook("b1", "Dune")); err != nil {
			t.Fatalf("first InsertBook() error = %v", err)
		}
		if err := db.InsertBook(newBook("b1", "Emma")); err == nil {
			t.Error("second InsertBook() expected error for duplicate id")
		}
	})

	t.Run("stores blank title as given", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.InsertBook(newBook("b1", "  ")); err != nil {
			t.Fatalf("InsertBook() error = %v", err)
		}
		got, _ := db.FindBookByID("b1")
		if got == nil || got.Title != "  " {
			t.Errorf("FindBookByID() = %+v, want title %q", got, "  ")
		}
	})

	t.Run("zero page count is kept", func(t *testing.T) {
		db := newTestDB(t)

		b := newBook("b1", "Pamphlet")
		b.PageCount = intPtr(0)
		if err := db.InsertBook(b); err != nil {
			t.Fatalf("InsertBook() error = %v", err)
		}

		got, _ := db.FindBookByID("b1")
		if got.PageCount == nil || *got.PageCount != 0 {
			t.Errorf("PageCount = %v, want 0", got.PageCount)
		}
	})
}

func TestSQLiteDatabase_ListBooks(t *testing.T) {
	db := newTestDB(t)

	books := []*model.Book{newBook("c", "Third"), newBook("a", "First"), newBook("b", "Second")}
	books[2].Status = model.StatusReading
	// Creation times run backwards; listing still follows insertion.
	for i, b := range books {
		b.CreatedAt = testNow.Add(-time.Duration(i) * time.Hour)
		if err := db.InsertBook(b); err != nil {
			t.Fatalf("InsertBook(%s) error = %v", b.ID, err)
		}
	}

	t.Run("all books in insertion order", func(t *testing.T) {
		got, err := db.ListBooks()
		if err != nil {
			t.Fatalf("ListBooks() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d books, want 3", len(got))
		}
		for i, want := range []string{"c", "a", "b"} {
			if got[i].ID != want {
				t.Errorf("books[%d].ID = %q, want %q", i, got[i].ID, want)
			}
		}
	})

	t.Run("by status", func(t *testing.T) {
		toRead, err := db.ListBooksByStatus(model.StatusToRead)
		if err != nil {
			t.Fatalf("ListBooksByStatus() error = %v", err)
		}
		if len(toRead) != 2 || toRead[0].ID != "c" || toRead[1].ID != "a" {
			t.Errorf("to-read = %v, want [c a]", ids(toRead))
		}

		reading, _ := db.ListBooksByStatus(model.StatusReading)
		if len(reading) != 1 || reading[0].ID != "b" {
			t.Errorf("reading = %v, want [b]", ids(reading))
		}

		finished, _ := db.ListBooksByStatus(model.StatusFinished)
		if len(finished) != 0 {
			t.Errorf("finished = %v, want empty", ids(finished))
		}
	})
}

func TestSQLiteDatabase_UpdateBook(t *testing.T) {
	t.Run("persists mutable fields", func(t *testing.T) {
		db := newTestDB(t)
		b := newBook("b1", "Dune")
		if err := db.InsertBook(b); err != nil {
			t.Fatalf("InsertBook() error = %v", err)
		}

		start := testNow.Add(time.Hour)
		b.Status = model.StatusReading
		b.StartDate = &start
		b.Notes = "great opening"
		b.CoverURL = "https://example.com/c.jpg"
		b.UpdatedAt = start
		if err := db.UpdateBook(b); err != nil {
			t.Fatalf("UpdateBook() error = %v", err)
		}

		got, _ := db.FindBookByID("b1")
		if got.Status != model.StatusReading {
			t.Errorf("Status = %q, want reading", got.Status)
		}
		if got.StartDate == nil || !got.StartDate.Equal(start) {
			t.Errorf("StartDate = %v, want %v", got.StartDate, start)
		}
		if got.Notes != "great opening" {
			t.Errorf("Notes = %q", got.Notes)
		}
		if got.CoverURL != "https://example.com/c.jpg" {
			t.Errorf("CoverURL = %q", got.CoverURL)
		}
		if !got.CreatedAt.Equal(testNow) {
			t.Errorf("CreatedAt changed to %v", got.CreatedAt)
		}
	})

	t.Run("clears cover image", func(t *testing.T) {
		db := newTestDB(t)
		b := newBook("b1", "Dune")
		b.CoverImage = []byte("img")
		db.InsertBook(b)

		b.CoverImage = nil
		if err := db.UpdateBook(b); err != nil {
			t.Fatalf("UpdateBook() error = %v", err)
		}

		got, _ := db.FindBookByID("b1")
		if got.CoverImage != nil {
			t.Errorf("CoverImage = %v, want nil", got.CoverImage)
		}
	})

	t.Run("missing book is an error", func(t *testing.T) {
		db := newTestDB(t)
		if err := db.UpdateBook(newBook("ghost", "Nobody")); err == nil {
			t.Error("UpdateBook() expected error for missing book")
		}
	})
}

func TestSQLiteDatabase_Operations(t *testing.T) {
	t.Run("create and list operations", func(t *testing.T) {
		db := newTestDB(t)

		op1, err := db.CreateOperation("add", "Dune")
		if err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}
		if op1.ID == 0 {
			t.Error("operation ID should be non-zero")
		}
		if op1.Operation != "add" {
			t.Errorf("Operation = %q, want %q", op1.Operation, "add")
		}
		if !op1.StartedAt.Equal(testNow) {
			t.Errorf("StartedAt = %v, want %v", op1.StartedAt, testNow)
		}

		op2, err := db.CreateOperation("start", "id-1")
		if err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}

		ops, err := db.ListOperations(10)
		if err != nil {
			t.Fatalf("ListOperations() error = %v", err)
		}
		if len(ops) != 2 {
			t.Fatalf("got %d operations, want 2", len(ops))
		}
		if ops[0].ID != op2.ID {
			t.Errorf("expected newest first: got ID %d, want %d", ops[0].ID, op2.ID)
		}
		if ops[1].Parameters != "Dune" {
			t.Errorf("Parameters = %q, want Dune", ops[1].Parameters)
		}
	})

	t.Run("finish operation sets status and time", func(t *testing.T) {
		db := newTestDB(t)

		op, _ := db.CreateOperation("add", "")
		if err := db.FinishOperation(op.ID, "success"); err != nil {
			t.Fatalf("FinishOperation() error = %v", err)
		}

		ops, _ := db.ListOperations(1)
		if ops[0].Status != "success" {
			t.Errorf("Status = %q, want %q", ops[0].Status, "success")
		}
		if ops[0].FinishedAt == nil {
			t.Error("FinishedAt should be set")
		}
	})

	t.Run("max operation ID", func(t *testing.T) {
		db := newTestDB(t)

		maxID, err := db.MaxOperationID()
		if err != nil {
			t.Fatalf("MaxOperationID() error = %v", err)
		}
		if maxID != 0 {
			t.Errorf("MaxOperationID() = %d, want 0", maxID)
		}

		db.CreateOperation("op1", "")
		op2, _ := db.CreateOperation("op2", "")

		maxID, err = db.MaxOperationID()
		if err != nil {
			t.Fatalf("MaxOperationID() error = %v", err)
		}
		if maxID != op2.ID {
			t.Errorf("MaxOperationID() = %d, want %d", maxID, op2.ID)
		}
	})
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := newTestDB(t)
	if err := db.InsertBook(newBook("b1", "Dune")); err != nil {
		t.Fatalf("InsertBook() error = %v", err)
	}

	destPath := filepath.Join(t.TempDir(), "backup.db")
	if err := db.BackupTo(destPath); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	backup, err := NewSQLiteDatabase(destPath, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer backup.Close()

	if err := backup.CheckMigrations(); err != nil {
		t.Errorf("backup schema is not current: %v", err)
	}
	book, err := backup.FindBookByID("b1")
	if err != nil {
		t.Fatalf("FindBookByID() error = %v", err)
	}
	if book == nil || book.Title != "Dune" {
		t.Errorf("backup does not contain the book, got %v", book)
	}
}

func TestSQLiteDatabase_CheckMigrations(t *testing.T) {
	t.Run("fails on DB without migrations applied", func(t *testing.T) {
		db, err := NewSQLiteDatabase(":memory:", nil)
		if err != nil {
			t.Fatalf("NewSQLiteDatabase() error = %v", err)
		}
		defer db.Close()

		if err := db.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() expected error for missing schema")
		}
	})

	t.Run("passes after Migrate", func(t *testing.T) {
		db := newTestDB(t)
		if err := db.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})
}

func ids(books []*model.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}
