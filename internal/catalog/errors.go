package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the catalog has no entry for the ISBN.
var ErrNotFound = errors.New("no catalog entry for isbn")

// TransportError wraps a failure to reach the catalog or a non-2xx response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError wraps a response body that could not be read as a catalog result.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing catalog response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
