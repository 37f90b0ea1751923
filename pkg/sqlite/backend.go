// Package sqlite provides the public API for the SQLite store.
// This package exposes the factory function for creating SQLite stores
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/tablesync/internal/sqlite"
	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// Store is a types.Store that must be attached before use and detached
// when done.
type Store interface {
	types.Store
	Attach(config types.Config) error
	Detach() error

	// Config returns the configuration the store was attached with.
	Config() types.Config
}

// NewBackend creates a new SQLite store instance.
// The store is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".tablesync-db",
//	})
//	defer store.Detach()
//	tm := tables.NewTableManager(store)
func NewBackend() Store {
	return sqlite.NewBackend()
}
