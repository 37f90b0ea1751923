package types

import (
	"errors"
	"time"
)

// Config holds backend selection and engine parameters.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// LockTimeout bounds how long a structural operation waits for the
	// table lock. Zero selects DefaultLockTimeout.
	LockTimeout time.Duration `json:"lock_timeout" yaml:"lock_timeout"`

	// LockLease is how long an acquired lock stays valid if its holder
	// never releases it. Zero selects DefaultLockLease.
	LockLease time.Duration `json:"lock_lease" yaml:"lock_lease"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults for the lock parameters.
const (
	DefaultLockTimeout = 10 * time.Second
	DefaultLockLease   = 60 * time.Second
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrLockTimeoutInvalid = errors.New("lock timeout must not be negative")
	ErrLockLeaseInvalid   = errors.New("lock lease must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.LockTimeout < 0 {
		return ErrLockTimeoutInvalid
	}
	if c.LockLease < 0 {
		return ErrLockLeaseInvalid
	}
	return nil
}

// GetLockTimeout returns LockTimeout or its default.
func (c Config) GetLockTimeout() time.Duration {
	if c.LockTimeout == 0 {
		return DefaultLockTimeout
	}
	return c.LockTimeout
}

// GetLockLease returns LockLease or its default.
func (c Config) GetLockLease() time.Duration {
	if c.LockLease == 0 {
		return DefaultLockLease
	}
	return c.LockLease
}
