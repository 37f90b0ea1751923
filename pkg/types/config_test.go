package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "sqlite with empty DataDir is valid at config level",
			config:  Config{Backend: "sqlite", DataDir: ""},
			wantErr: nil,
		},
		{
			name:    "negative lock timeout returns ErrLockTimeoutInvalid",
			config:  Config{Backend: "sqlite", LockTimeout: -time.Second},
			wantErr: ErrLockTimeoutInvalid,
		},
		{
			name:    "negative lock lease returns ErrLockLeaseInvalid",
			config:  Config{Backend: "sqlite", LockLease: -time.Second},
			wantErr: ErrLockLeaseInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigLockDefaults(t *testing.T) {
	var c Config
	if got := c.GetLockTimeout(); got != DefaultLockTimeout {
		t.Fatalf("expected default lock timeout %v, got %v", DefaultLockTimeout, got)
	}
	if got := c.GetLockLease(); got != DefaultLockLease {
		t.Fatalf("expected default lock lease %v, got %v", DefaultLockLease, got)
	}

	c = Config{LockTimeout: 2 * time.Second, LockLease: 5 * time.Second}
	if got := c.GetLockTimeout(); got != 2*time.Second {
		t.Fatalf("expected 2s, got %v", got)
	}
	if got := c.GetLockLease(); got != 5*time.Second {
		t.Fatalf("expected 5s, got %v", got)
	}
}
