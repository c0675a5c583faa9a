package shelf

import "io"

// Encryptor protects library snapshots before they are written to a vault.
// Encryption needs only the public key. Decryption requires the passphrase
// that unlocks the private key.
type Encryptor interface {
	// Setup generates a key pair and protects the private key with passphrase.
	// Called once during `shelf config init`.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a DecryptionContext
	// for the rest of the session. A wrong passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	// Decrypt decrypts data read from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
