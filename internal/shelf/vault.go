package shelf

import "io"

// Vault stores versioned snapshots of a library database.
// Reads and writes are streamed through io.Reader/io.Writer.
type Vault interface {
	// PutSnapshot stores the snapshot for a library, replacing any previous one.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the snapshot for consistency checks.
	PutSnapshot(libraryID string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the stored snapshot for a library to w.
	GetSnapshot(libraryID string, w io.Writer) error

	// GetSnapshotVersion returns the version of the stored snapshot.
	// Returns 0 if no snapshot has been stored for this library.
	GetSnapshotVersion(libraryID string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
