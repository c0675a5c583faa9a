package model

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"shelf-go/internal/cover"
)

// Status is the reading status of a book. It decides which shelf the book is shown on.
type Status string

const (
	StatusToRead   Status = "to-read"
	StatusReading  Status = "reading"
	StatusFinished Status = "finished"
)

// Statuses lists every status in shelf order.
var Statuses = []Status{StatusToRead, StatusReading, StatusFinished}

func (s Status) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusFinished:
		return true
	}
	return false
}

// ParseStatus converts user input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q (choose to-read, reading or finished)", raw)
	}
	return s, nil
}

// ErrInvalidTransition is wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a status change requested from the wrong source status.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move book from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Book is a single item in the library.
type Book struct {
	ID            string
	ISBN          string
	Title         string
	Subtitle      string
	Author        string
	PublishedDate string
	CoverURL      string // raw URL as entered or returned by the catalog
	CoverImage    []byte // takes precedence over CoverURL when present
	PageCount     *int
	Status        Status
	StartDate     *time.Time
	FinishDate    *time.Time
	Notes         string
	Summary       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StartReading moves a to-read book to reading and stamps the start date.
// Calling it on a book that is already reading or finished fails and leaves
// the book untouched.
func (b *Book) StartReading(now time.Time) error {
	if b.Status != StatusToRead {
		return &TransitionError{From: b.Status, To: StatusReading}
	}
	b.Status = StatusReading
	b.StartDate = &now
	return nil
}

// MarkFinished moves a reading book to finished and stamps the finish date.
func (b *Book) MarkFinished(now time.Time) error {
	if b.Status != StatusReading {
		return &TransitionError{From: b.Status, To: StatusFinished}
	}
	b.Status = StatusFinished
	b.FinishDate = &now
	return nil
}

// ReadingDuration returns the number of whole days between the start and
// finish dates. ok is false unless both dates are set. A finish date that
// precedes the start date counts as zero days.
func (b *Book) ReadingDuration() (days int, ok bool) {
	if b.StartDate == nil || b.FinishDate == nil {
		return 0, false
	}
	d := b.FinishDate.Sub(*b.StartDate)
	if d < 0 {
		return 0, true
	}
	return int(d / (24 * time.Hour)), true
}

// FormatDays renders a day count for display, e.g. "1 day" or "1,204 days".
func FormatDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return humanize.Comma(int64(days)) + " days"
}

// CoverSource says where a book's cover comes from.
type CoverSource int

const (
	CoverNone CoverSource = iota
	CoverFromImage
	CoverFromURL
)

// Cover resolves the cover to display. Image bytes win; otherwise the
// normalized cover URL is used when it is loadable.
func (b *Book) Cover() (CoverSource, *url.URL) {
	if len(b.CoverImage) > 0 {
		return CoverFromImage, nil
	}
	if u := cover.Normalize(b.CoverURL); u != nil {
		return CoverFromURL, u
	}
	return CoverNone, nil
}
