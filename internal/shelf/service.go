package shelf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shelf-go/internal/model"
)

// MetadataLookup fetches catalog metadata for an ISBN.
type MetadataLookup interface {
	FetchByISBN(ctx context.Context, isbn string) (*model.Metadata, error)
}

// LibraryService is the orchestration layer used by the CLI and the TUI.
// It owns the status transitions and makes sure every mutation is committed
// and every commit failure is logged and returned.
type LibraryService struct {
	store  Store
	lookup MetadataLookup
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewLibraryService creates a LibraryService with the provided dependencies.
// lookup may be nil when the caller never adds books from the catalog.
func NewLibraryService(store Store, lookup MetadataLookup, logger Logger, clock Clock, idgen IDGenerator) *LibraryService {
	return &LibraryService{
		store:  store,
		lookup: lookup,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Book returns a single book by ID.
func (s *LibraryService) Book(id string) (*model.Book, error) {
	book, err := s.store.FindBookByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding book: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, id)
	}
	return book, nil
}

// AddBook validates a draft and inserts it as a new to-read book.
// A draft without a title never reaches the store.
func (s *LibraryService) AddBook(d Draft) (*model.Book, error) {
	if !d.CanSave() {
		return nil, ErrEmptyTitle
	}

	now := s.clock.Now()
	book := &model.Book{
		ID:            s.idgen.New(),
		ISBN:          strings.TrimSpace(d.ISBN),
		Title:         strings.TrimSpace(d.Title),
		Subtitle:      d.Subtitle,
		Author:        strings.TrimSpace(d.Author),
		PublishedDate: d.PublishedDate,
		CoverURL:      strings.TrimSpace(d.CoverURL),
		CoverImage:    d.CoverImage,
		PageCount:     ParsePageCount(d.PageCountText),
		Status:        model.StatusToRead,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.InsertBook(book); err != nil {
		s.logger.Error("book not saved", "title", book.Title, "error", err)
		return nil, &PersistenceError{Op: "new book", Err: err}
	}

	s.logger.Info("book added", "id", book.ID, "title", book.Title)
	return book, nil
}

// Mutate loads a book, applies fn and commits the result.
// If fn returns an error nothing is written. A failed commit is returned as
// a *PersistenceError.
func (s *LibraryService) Mutate(id string, fn func(*model.Book) error) (*model.Book, error) {
	book, err := s.Book(id)
	if err != nil {
		return nil, err
	}

	if err := fn(book); err != nil {
		return nil, err
	}

	book.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateBook(book); err != nil {
		s.logger.Error("book changes not saved", "id", id, "error", err)
		return nil, &PersistenceError{Op: "book " + id, Err: err}
	}
	return book, nil
}

// StartReading moves a to-read book to reading.
func (s *LibraryService) StartReading(id string) (*model.Book, error) {
	book, err := s.Mutate(id, func(b *model.Book) error {
		return b.StartReading(s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("started reading", "id", id)
	return book, nil
}

// MarkFinished moves a reading book to finished.
func (s *LibraryService) MarkFinished(id string) (*model.Book, error) {
	book, err := s.Mutate(id, func(b *model.Book) error {
		return b.MarkFinished(s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("finished reading", "id", id)
	return book, nil
}

// UpdateNotes replaces a book's notes.
func (s *LibraryService) UpdateNotes(id, notes string) (*model.Book, error) {
	return s.Mutate(id, func(b *model.Book) error {
		b.Notes = notes
		return nil
	})
}

// UpdateSummary replaces a book's summary.
func (s *LibraryService) UpdateSummary(id, summary string) (*model.Book, error) {
	return s.Mutate(id, func(b *model.Book) error {
		b.Summary = summary
		return nil
	})
}

// SetCoverURL replaces the raw cover URL. The URL is stored as given and
// normalized only for display.
func (s *LibraryService) SetCoverURL(id, raw string) (*model.Book, error) {
	return s.Mutate(id, func(b *model.Book) error {
		b.CoverURL = strings.TrimSpace(raw)
		return nil
	})
}

// SetCoverImage attaches image bytes, which take precedence over the cover URL.
// A nil or empty slice removes the image.
func (s *LibraryService) SetCoverImage(id string, data []byte) (*model.Book, error) {
	return s.Mutate(id, func(b *model.Book) error {
		if len(data) == 0 {
			b.CoverImage = nil
			return nil
		}
		b.CoverImage = data
		return nil
	})
}

// FetchMetadata looks up an ISBN in the catalog.
func (s *LibraryService) FetchMetadata(ctx context.Context, isbn string) (*model.Metadata, error) {
	if s.lookup == nil {
		return nil, errors.New("catalog lookup is not configured")
	}

	s.logger.Debug("looking up isbn", "isbn", isbn)
	meta, err := s.lookup.FetchByISBN(ctx, isbn)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("isbn lookup failed", "isbn", isbn, "error", err)
		}
		return nil, err
	}
	return meta, nil
}
