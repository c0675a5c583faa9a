package encryption

import (
	"io"

	"shelf-go/internal/shelf"
)

// PlainEncryptor stores snapshots unencrypted. It is used when the
// encryption type is "none".
type PlainEncryptor struct{}

var _ shelf.Encryptor = PlainEncryptor{}

func (PlainEncryptor) Setup(string) error { return nil }

func (PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	_, err := io.Copy(w, r)
	return err
}

func (PlainEncryptor) Unlock(string) (shelf.DecryptionContext, error) {
	return plainContext{}, nil
}

func (PlainEncryptor) IsConfigured() bool { return true }

type plainContext struct{}

func (plainContext) Decrypt(r io.Reader, w io.Writer) error {
	_, err := io.Copy(w, r)
	return err
}
