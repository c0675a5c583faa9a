package testutil

import (
	"shelf-go/internal/encryption"
	"shelf-go/internal/shelf"
)

// NewTestEncryptor returns the header-only encryptor used in tests.
func NewTestEncryptor() shelf.Encryptor {
	return encryption.NewTestEncryptor()
}
