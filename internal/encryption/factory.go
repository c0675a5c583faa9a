package encryption

import (
	"fmt"

	"shelf-go/internal/config"
	"shelf-go/internal/shelf"
)

// NewEncryptorFromConfig creates the snapshot Encryptor selected by cfg.Type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (shelf.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return PlainEncryptor{}, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}

// RequiresPassphrase reports whether restoring a snapshot needs the user's passphrase.
func RequiresPassphrase(cfg config.EncryptionConfig) bool {
	return cfg.Type == "age"
}
