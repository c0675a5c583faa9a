package testutil

import (
	"errors"

	"shelf-go/internal/model"
	"shelf-go/internal/shelf"
)

// ErrStoreUnavailable is returned by FailingStore writes.
var ErrStoreUnavailable = errors.New("store unavailable")

// FailingStore wraps a Store and fails book writes while FailWrites is set.
// Reads pass through.
type FailingStore struct {
	shelf.Store
	FailWrites bool
}

func NewFailingStore(inner shelf.Store) *FailingStore {
	return &FailingStore{Store: inner, FailWrites: true}
}

func (s *FailingStore) InsertBook(book *model.Book) error {
	if s.FailWrites {
		return ErrStoreUnavailable
	}
	return s.Store.InsertBook(book)
}

func (s *FailingStore) UpdateBook(book *model.Book) error {
	if s.FailWrites {
		return ErrStoreUnavailable
	}
	return s.Store.UpdateBook(book)
}
