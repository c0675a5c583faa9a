package shelf

import (
	"fmt"

	"shelf-go/internal/model"
)

// Shelves partitions a library into its three status views.
// Every book appears in exactly one of them.
type Shelves struct {
	ToRead   []*model.Book
	Reading  []*model.Book
	Finished []*model.Book
}

// For returns the books on the shelf for status.
func (sh *Shelves) For(status model.Status) []*model.Book {
	switch status {
	case model.StatusToRead:
		return sh.ToRead
	case model.StatusReading:
		return sh.Reading
	case model.StatusFinished:
		return sh.Finished
	}
	return nil
}

// Len returns the total number of books across all shelves.
func (sh *Shelves) Len() int {
	return len(sh.ToRead) + len(sh.Reading) + len(sh.Finished)
}

// Partition sorts books onto shelves by status, keeping their order.
func Partition(books []*model.Book) *Shelves {
	sh := &Shelves{}
	for _, b := range books {
		switch b.Status {
		case model.StatusToRead:
			sh.ToRead = append(sh.ToRead, b)
		case model.StatusReading:
			sh.Reading = append(sh.Reading, b)
		case model.StatusFinished:
			sh.Finished = append(sh.Finished, b)
		}
	}
	return sh
}

// Shelves loads the whole library and partitions it.
func (s *LibraryService) Shelves() (*Shelves, error) {
	books, err := s.store.ListBooks()
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return Partition(books), nil
}

// ListByStatus returns the books with the given status in insertion order.
func (s *LibraryService) ListByStatus(status model.Status) ([]*model.Book, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	books, err := s.store.ListBooksByStatus(status)
	if err != nil {
		return nil, fmt.Errorf("listing %s books: %w", status, err)
	}
	return books, nil
}
