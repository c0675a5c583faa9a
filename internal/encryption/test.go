package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"shelf-go/internal/shelf"
)

// testHeader marks output of TestEncryptor so tests can tell it from plaintext.
var testHeader = []byte("SHELFENC")

// TestEncryptor is a deterministic stand-in for age in tests. It prepends
// testHeader on Encrypt and strips it on Decrypt. Unlock accepts any
// passphrase except WrongPassphrase.
type TestEncryptor struct {
	setupCalled bool
}

// WrongPassphrase is the one passphrase TestEncryptor rejects.
const WrongPassphrase = "wrong"

var _ shelf.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (shelf.DecryptionContext, error) {
	if passphrase == WrongPassphrase {
		return nil, ErrBadPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ shelf.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return errors.New("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
