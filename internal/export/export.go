// Package export writes a library as a YAML or JSON document.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"shelf-go/internal/model"
)

// Formats lists the supported export formats.
var Formats = []string{"yaml", "json"}

// Record is the exported form of a book. Cover image bytes are not exported;
// HasCoverImage records that the book carries one.
type Record struct {
	ID            string     `yaml:"id" json:"id"`
	ISBN          string     `yaml:"isbn,omitempty" json:"isbn,omitempty"`
	Title         string     `yaml:"title" json:"title"`
	Subtitle      string     `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Author        string     `yaml:"author,omitempty" json:"author,omitempty"`
	PublishedDate string     `yaml:"published_date,omitempty" json:"published_date,omitempty"`
	PageCount     *int       `yaml:"page_count,omitempty" json:"page_count,omitempty"`
	Status        string     `yaml:"status" json:"status"`
	StartDate     *time.Time `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	FinishDate    *time.Time `yaml:"finish_date,omitempty" json:"finish_date,omitempty"`
	ReadingDays   *int       `yaml:"reading_days,omitempty" json:"reading_days,omitempty"`
	CoverURL      string     `yaml:"cover_url,omitempty" json:"cover_url,omitempty"`
	HasCoverImage bool       `yaml:"has_cover_image,omitempty" json:"has_cover_image,omitempty"`
	Notes         string     `yaml:"notes,omitempty" json:"notes,omitempty"`
	Summary       string     `yaml:"summary,omitempty" json:"summary,omitempty"`
	CreatedAt     time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `yaml:"updated_at" json:"updated_at"`
}

// Document is the top level of an export.
type Document struct {
	LibraryID  string    `yaml:"library_id" json:"library_id"`
	ExportedAt time.Time `yaml:"exported_at" json:"exported_at"`
	Books      []Record  `yaml:"books" json:"books"`
}

// NewRecord converts a book into its exported form.
func NewRecord(b *model.Book) Record {
	r := Record{
		ID:            b.ID,
		ISBN:          b.ISBN,
		Title:         b.Title,
		Subtitle:      b.Subtitle,
		Author:        b.Author,
		PublishedDate: b.PublishedDate,
		PageCount:     b.PageCount,
		Status:        b.Status.String(),
		StartDate:     b.StartDate,
		FinishDate:    b.FinishDate,
		CoverURL:      b.CoverURL,
		HasCoverImage: len(b.CoverImage) > 0,
		Notes:         b.Notes,
		Summary:       b.Summary,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if days, ok := b.ReadingDuration(); ok {
		r.ReadingDays = &days
	}
	return r
}

// NewDocument builds an export of books taken at exportedAt.
func NewDocument(libraryID string, books []*model.Book, exportedAt time.Time) *Document {
	doc := &Document{
		LibraryID:  libraryID,
		ExportedAt: exportedAt,
		Books:      make([]Record, 0, len(books)),
	}
	for _, b := range books {
		doc.Books = append(doc.Books, NewRecord(b))
	}
	return doc
}

// Write encodes doc to w in the given format ("yaml" or "json").
func Write(w io.Writer, format string, doc *Document) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (choose yaml or json)", format)
	}
}
