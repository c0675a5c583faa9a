package shelf

import "shelf-go/internal/model"

// Store is the durable record store for books and the operation log.
// Every write returns its error; callers must not assume a write succeeded.
type Store interface {
	// Book operations

	// InsertBook adds a new book. The ID must already be assigned.
	InsertBook(book *model.Book) error

	// FindBookByID returns the book with the given ID, or nil if there is none.
	FindBookByID(id string) (*model.Book, error)

	// ListBooks returns every book in insertion order.
	ListBooks() ([]*model.Book, error)

	// ListBooksByStatus returns the books with the given status in insertion order.
	ListBooksByStatus(status model.Status) ([]*model.Book, error)

	// UpdateBook persists all mutable fields of an existing book.
	UpdateBook(book *model.Book) error

	// Operation log

	// CreateOperation records the start of a mutating command.
	CreateOperation(operation string, parameters string) (*model.Operation, error)

	// FinishOperation stamps the finish time and final status of an operation.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)

	// MaxOperationID returns the highest operation ID, or 0 when none exist.
	MaxOperationID() (int64, error)

	// Maintenance

	// Migrate brings the schema to the latest version.
	Migrate() error

	// CheckMigrations reports an error if the schema is not at the latest version.
	CheckMigrations() error

	// BackupTo writes a consistent copy of the store to destPath.
	BackupTo(destPath string) error

	// Path returns the location of the store (":memory:" for in-memory stores).
	Path() string

	// Close releases the underlying connection.
	Close() error
}
