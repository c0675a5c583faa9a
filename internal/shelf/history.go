package shelf

import (
	"fmt"

	"shelf-go/internal/model"
)

// GetHistory returns the most recent mutating operations, newest first.
func (s *LibraryService) GetHistory(limit int) ([]*model.Operation, error) {
	ops, err := s.store.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
