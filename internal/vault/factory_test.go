package vault

import (
	"path/filepath"
	"testing"

	"shelf-go/internal/config"
)

func TestNewVaultFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.VaultConfig
		wantErr bool
	}{
		{
			name:    "memory vault",
			cfg:     config.VaultConfig{Type: "memory", Name: "test-memory"},
			wantErr: false,
		},
		{
			name:    "filesystem vault",
			cfg:     config.VaultConfig{Type: "filesystem", Name: "local", FSVaultRoot: "VAULT_ROOT"},
			wantErr: false,
		},
		{
			name:    "filesystem vault without root",
			cfg:     config.VaultConfig{Type: "filesystem", Name: "local"},
			wantErr: true,
		},
		{
			name:    "s3 is not supported",
			cfg:     config.VaultConfig{Type: "s3", Name: "remote"},
			wantErr: true,
		},
		{
			name:    "unknown vault type",
			cfg:     config.VaultConfig{Type: "unknown", Name: "test"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.FSVaultRoot == "VAULT_ROOT" {
				tt.cfg.FSVaultRoot = filepath.Join(t.TempDir(), "vault")
			}

			got, err := NewVaultFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewVaultFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Error("NewVaultFromConfig() should return nil on error")
				}
				return
			}
			if got == nil {
				t.Fatal("NewVaultFromConfig() returned nil")
			}
			if err := got.ValidateSetup(); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}
