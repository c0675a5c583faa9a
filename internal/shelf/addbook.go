package shelf

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"shelf-go/internal/model"
)

// Draft holds the fields of a book that has not been saved yet.
// Cover URL and image are optional and independent of how the rest was filled.
type Draft struct {
	ISBN          string
	Title         string
	Subtitle      string
	Author        string
	PublishedDate string
	PageCountText string
	CoverURL      string
	CoverImage    []byte
}

// CanSave reports whether the draft has a title.
// Whitespace alone does not count as a title.
func (d *Draft) CanSave() bool {
	return strings.TrimSpace(d.Title) != ""
}

// ApplyMetadata copies a catalog result into the draft. Every field the
// lookup returns overwrites the draft, including fields that came back empty.
func (d *Draft) ApplyMetadata(m *model.Metadata) {
	d.Title = m.Title
	d.Subtitle = m.Subtitle
	d.Author = m.Authors
	d.PublishedDate = m.PublishedDate
	d.CoverURL = m.ThumbnailURL
	d.PageCountText = ""
	if m.PageCount > 0 {
		d.PageCountText = strconv.Itoa(m.PageCount)
	}
}

// ParsePageCount reads a page count typed by the user. Empty, non-numeric
// and negative input all mean "no page count".
func ParsePageCount(text string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// LookupResult is the outcome of one catalog lookup started by an AddBookFlow.
type LookupResult struct {
	Seq      uint64
	ISBN     string
	Metadata *model.Metadata
	Err      error
}

// BookAdder is what an AddBookFlow needs from the library.
type BookAdder interface {
	AddBook(d Draft) (*model.Book, error)
	FetchMetadata(ctx context.Context, isbn string) (*model.Metadata, error)
}

// AddBookFlow collects one new book. It owns at most one in-flight lookup:
// starting another lookup, or cancelling the flow, aborts the previous one,
// and results that arrive for an aborted lookup are dropped.
//
// Draft and Message are meant to be touched from a single goroutine (the UI
// loop). Only the fetch function returned by StartLookup runs elsewhere.
type AddBookFlow struct {
	Draft   Draft
	Message string // user-visible lookup error

	lib    BookAdder
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewAddBookFlow starts an empty add-book session against lib.
func NewAddBookFlow(lib BookAdder) *AddBookFlow {
	return &AddBookFlow{lib: lib}
}

// NewAddBookFlow starts an empty add-book session.
func (s *LibraryService) NewAddBookFlow() *AddBookFlow {
	return NewAddBookFlow(s)
}

// CanSave reports whether Save is allowed.
func (f *AddBookFlow) CanSave() bool {
	return f.Draft.CanSave()
}

// Loading reports whether a lookup is in flight.
func (f *AddBookFlow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancel != nil
}

// StartLookup aborts any in-flight lookup and prepares a new one. The
// returned fetch performs the network call and may run on another goroutine;
// its result must be handed back to Resolve.
func (f *AddBookFlow) StartLookup(ctx context.Context, isbn string) (uint64, func() LookupResult) {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.seq++
	seq := f.seq
	lctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	isbn = strings.TrimSpace(isbn)
	fetch := func() LookupResult {
		meta, err := f.lib.FetchMetadata(lctx, isbn)
		return LookupResult{Seq: seq, ISBN: isbn, Metadata: meta, Err: err}
	}
	return seq, fetch
}

// Resolve applies a lookup result to the draft. It returns false, and changes
// nothing, if the result belongs to a lookup that has since been replaced or
// cancelled.
func (f *AddBookFlow) Resolve(res LookupResult) bool {
	f.mu.Lock()
	if res.Seq != f.seq || f.cancel == nil {
		f.mu.Unlock()
		return false
	}
	f.cancel()
	f.cancel = nil
	f.mu.Unlock()

	if res.Err != nil {
		f.Message = LookupMessage(res.Err)
		return true
	}

	f.Message = ""
	f.Draft.ISBN = res.ISBN
	f.Draft.ApplyMetadata(res.Metadata)
	return true
}

// Lookup runs a lookup to completion on the calling goroutine.
func (f *AddBookFlow) Lookup(ctx context.Context, isbn string) error {
	_, fetch := f.StartLookup(ctx, isbn)
	res := fetch()
	f.Resolve(res)
	return res.Err
}

// Save inserts the draft as a new to-read book and clears the flow.
func (f *AddBookFlow) Save() (*model.Book, error) {
	book, err := f.lib.AddBook(f.Draft)
	if err != nil {
		return nil, err
	}
	f.reset()
	return book, nil
}

// Cancel aborts any in-flight lookup and discards the draft.
func (f *AddBookFlow) Cancel() {
	f.reset()
}

func (f *AddBookFlow) reset() {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.seq++
	f.mu.Unlock()

	f.Draft = Draft{}
	f.Message = ""
}
