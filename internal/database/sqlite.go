package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shelf-go/internal/database/migrations"
	"shelf-go/internal/model"
	"shelf-go/internal/shelf"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements shelf.Store using SQLite.
type SQLiteDatabase struct {
	db    *sql.DB
	path  string
	clock shelf.Clock
}

// NewSQLiteDatabase opens a library database.
// path can be a file path or ":memory:" for an in-memory database.
// A nil clock uses the wall clock for operation timestamps.
func NewSQLiteDatabase(path string, clock shelf.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteDatabaseFromDB(db, path, clock), nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection opened with OpenConnection.
func NewSQLiteDatabaseFromDB(db *sql.DB, path string, clock shelf.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = shelf.RealClock{}
	}
	return &SQLiteDatabase{db: db, path: path, clock: clock}
}

// OpenConnection opens and configures a SQLite connection.
//
// The pool is limited to one connection. An in-memory database exists only
// on the connection that created it, and a library is only ever written by
// one process at a time.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

const bookColumns = `id, isbn, title, subtitle, author, published_date, cover_url, cover_image,
	page_count, status, start_date, finish_date, notes, summary, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*model.Book, error) {
	var (
		b         model.Book
		isbn      sql.NullString
		subtitle  sql.NullString
		published sql.NullString
		coverURL  sql.NullString
		pageCount sql.NullInt64
		status    string
		startDate sql.NullTime
		finished  sql.NullTime
	)
	err := row.Scan(&b.ID, &isbn, &b.Title, &subtitle, &b.Author, &published, &coverURL, &b.CoverImage,
		&pageCount, &status, &startDate, &finished, &b.Notes, &b.Summary, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.ISBN = isbn.String
	b.Subtitle = subtitle.String
	b.PublishedDate = published.String
	b.CoverURL = coverURL.String
	if pageCount.Valid {
		n := int(pageCount.Int64)
		b.PageCount = &n
	}
	if len(b.CoverImage) == 0 {
		b.CoverImage = nil
	}

	b.Status, err = model.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", b.ID, err)
	}
	b.StartDate = timePtr(startDate)
	b.FinishDate = timePtr(finished)
	return &b, nil
}

func (s *SQLiteDatabase) queryBooks(query string, args ...any) ([]*model.Book, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// Book operations

func (s *SQLiteDatabase) InsertBook(book *model.Book) error {
	_, err := s.db.Exec(`INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, nullString(book.ISBN), book.Title, nullString(book.Subtitle), book.Author,
		nullString(book.PublishedDate), nullString(book.CoverURL), nullBytes(book.CoverImage),
		nullInt(book.PageCount), string(book.Status), nullTime(book.StartDate), nullTime(book.FinishDate),
		book.Notes, book.Summary, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting book: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindBookByID(id string) (*model.Book, error) {
	row := s.db.QueryRow(`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding book by id: %w", err)
	}
	return book, nil
}

func (s *SQLiteDatabase) ListBooks() ([]*model.Book, error) {
	books, err := s.queryBooks(`SELECT ` + bookColumns + ` FROM books ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return books, nil
}

func (s *SQLiteDatabase) ListBooksByStatus(status model.Status) ([]*model.Book, error) {
	books, err := s.queryBooks(`SELECT `+bookColumns+` FROM books WHERE status = ? ORDER BY rowid`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("listing %s books: %w", status, err)
	}
	return books, nil
}

func (s *SQLiteDatabase) UpdateBook(book *model.Book) error {
	res, err := s.db.Exec(`UPDATE books SET
		isbn = ?, title = ?, subtitle = ?, author = ?, published_date = ?, cover_url = ?, cover_image = ?,
		page_count = ?, status = ?, start_date = ?, finish_date = ?, notes = ?, summary = ?, updated_at = ?
		WHERE id = ?`,
		nullString(book.ISBN), book.Title, nullString(book.Subtitle), book.Author,
		nullString(book.PublishedDate), nullString(book.CoverURL), nullBytes(book.CoverImage),
		nullInt(book.PageCount), string(book.Status), nullTime(book.StartDate), nullTime(book.FinishDate),
		book.Notes, book.Summary, book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating book %s: %w", book.ID, sql.ErrNoRows)
	}
	return nil
}

// Operation log

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*model.Operation, error) {
	startedAt := s.clock.Now()
	res, err := s.db.Exec(`INSERT INTO operations (operation, parameters, started_at, status)
		VALUES (?, ?, ?, 'running')`, operation, parameters, startedAt)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return &model.Operation{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     "running",
	}, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	_, err := s.db.Exec(`UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`,
		s.clock.Now(), status, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	rows, err := s.db.Query(`SELECT id, operation, parameters, started_at, finished_at, status
		FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		var (
			op         model.Operation
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &finishedAt, &op.Status); err != nil {
			return nil, fmt.Errorf("listing operations: %w", err)
		}
		op.FinishedAt = timePtr(finishedAt)
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	var id int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM operations`).Scan(&id); err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Maintenance

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate applies pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a complete copy of the database to destPath using VACUUM INTO.
// destPath must not exist.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

var _ shelf.Store = (*SQLiteDatabase)(nil)
