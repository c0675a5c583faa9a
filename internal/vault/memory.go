package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"shelf-go/internal/shelf"
)

// MemoryVault keeps snapshots in memory. It is used by tests and by
// throwaway libraries configured with a memory database.
// Safe for concurrent use.
type MemoryVault struct {
	name      string
	snapshots map[string][]byte // libraryID -> snapshot
	versions  map[string]int64  // libraryID -> version
	mu        sync.RWMutex
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string][]byte),
		versions:  make(map[string]int64),
	}
}

// Name returns the configured vault name.
func (m *MemoryVault) Name() string { return m.name }

func (m *MemoryVault) PutSnapshot(libraryID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[libraryID] = data
	m.versions[libraryID] = version
	return nil
}

func (m *MemoryVault) GetSnapshot(libraryID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[libraryID]
	if !ok {
		return fmt.Errorf("%w: %s", shelf.ErrNoSnapshot, libraryID)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (m *MemoryVault) GetSnapshotVersion(libraryID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[libraryID], nil
}

// ValidateSetup always succeeds for an in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ shelf.Vault = (*MemoryVault)(nil)
