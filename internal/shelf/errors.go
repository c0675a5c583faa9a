package shelf

import (
	"context"
	"errors"
	"fmt"

	"shelf-go/internal/catalog"
)

var (
	// ErrBookNotFound is returned when no book has the requested ID.
	ErrBookNotFound = errors.New("book not found")

	// ErrEmptyTitle is returned when a book is saved without a title.
	ErrEmptyTitle = errors.New("title is required")

	// ErrNoSnapshot is returned by a Vault that holds no snapshot for a library.
	ErrNoSnapshot = errors.New("no snapshot stored for library")
)

// PersistenceError reports a write to the store that did not complete.
// The in-memory book may hold changes that were not saved.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LookupMessage converts a lookup error into the message shown next to the
// search control. It returns "" for a nil error.
func LookupMessage(err error) string {
	var (
		transportErr *catalog.TransportError
		parseErr     *catalog.ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "Lookup cancelled."
	case errors.Is(err, catalog.ErrNotFound):
		return "No book found for that ISBN."
	case errors.As(err, &parseErr):
		return "The book catalog sent a response that could not be read."
	case errors.As(err, &transportErr):
		return "Could not reach the book catalog. Check your connection and try again."
	default:
		return err.Error()
	}
}
