package testutil

import (
	"context"
	"sync"

	"shelf-go/internal/catalog"
	"shelf-go/internal/model"
)

// StubLookup is an in-memory ISBN catalog.
// Unknown ISBNs return catalog.ErrNotFound. Safe for concurrent use.
type StubLookup struct {
	mu      sync.Mutex
	results map[string]*model.Metadata
	errs    map[string]error
	gates   map[string]chan struct{}
	calls   []string
}

func NewStubLookup() *StubLookup {
	return &StubLookup{
		results: make(map[string]*model.Metadata),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
	}
}

// Add registers metadata for isbn.
func (s *StubLookup) Add(isbn string, m *model.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[isbn] = m
}

// Fail makes lookups of isbn return err.
func (s *StubLookup) Fail(isbn string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[isbn] = err
}

// Block makes lookups of isbn wait until the returned function is called or
// the lookup's context is done.
func (s *StubLookup) Block(isbn string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[isbn] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Calls returns the ISBNs looked up so far, in order.
func (s *StubLookup) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *StubLookup) FetchByISBN(ctx context.Context, isbn string) (*model.Metadata, error) {
	s.mu.Lock()
	s.calls = append(s.calls, isbn)
	gate := s.gates[isbn]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &catalog.TransportError{Err: ctx.Err()}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &catalog.TransportError{Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[isbn]; err != nil {
		return nil, err
	}
	m, ok := s.results[isbn]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *m
	return &cp, nil
}
