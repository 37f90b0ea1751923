package tables

import (
	"errors"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// SchemaManager reads and edits table columns and properties. Edits name
// the schema etag the caller last saw and run under the table lock.
type SchemaManager struct {
	store types.Store
	opts  options
}

// NewSchemaManager returns a SchemaManager over store.
func NewSchemaManager(store types.Store, opts ...Option) *SchemaManager {
	return &SchemaManager{store: store, opts: buildOptions(opts)}
}

// GetColumns returns the columns of a table ordered by ordinal.
func (sm *SchemaManager) GetColumns(tableID string) ([]types.Column, error) {
	const op = "getColumns"
	if err := sm.exists(op, tableID); err != nil {
		return nil, err
	}
	cols, err := sm.store.ListColumns(tableID)
	if err != nil {
		return nil, logFailure(sm.opts.logger, op, tableID, err)
	}
	return cols, nil
}

// GetProperties returns the key-value entries of a table.
func (sm *SchemaManager) GetProperties(tableID string) ([]types.KeyValueStoreEntry, error) {
	const op = "getProperties"
	if err := sm.exists(op, tableID); err != nil {
		return nil, err
	}
	kvs, err := sm.store.ListKVS(tableID)
	if err != nil {
		return nil, logFailure(sm.opts.logger, op, tableID, err)
	}
	return kvs, nil
}

// AlterColumns replaces the column set of a table if schemaETag is current
// and returns the entry with its new schema etag.
func (sm *SchemaManager) AlterColumns(tableID, schemaETag string, columns []types.Column) (*types.TableEntry, error) {
	const op = "alterColumns"
	if err := types.ValidateColumns(columns); err != nil {
		return nil, invalid(op, tableID, err)
	}
	ordered := types.Ordered(columns)
	return sm.edit(op, tableID, schemaETag, func(tx types.StoreTx) error {
		return tx.ReplaceColumns(tableID, ordered)
	})
}

// SetProperties replaces the key-value entries of a table if schemaETag is
// current and returns the entry with its new schema etag.
func (sm *SchemaManager) SetProperties(tableID, schemaETag string, entries []types.KeyValueStoreEntry) (*types.TableEntry, error) {
	const op = "setProperties"
	if err := types.ValidateKVS(entries); err != nil {
		return nil, invalid(op, tableID, err)
	}
	kvs := make([]types.KeyValueStoreEntry, len(entries))
	for i, e := range entries {
		e.TableID = tableID
		kvs[i] = e
	}
	return sm.edit(op, tableID, schemaETag, func(tx types.StoreTx) error {
		return tx.ReplaceKVS(tableID, kvs)
	})
}

// edit swaps the schema etag and applies fn in one batch under the table
// lock.
func (sm *SchemaManager) edit(op, tableID, schemaETag string, fn func(tx types.StoreTx) error) (*types.TableEntry, error) {
	if tableID == "" {
		return nil, invalid(op, "", errors.New("table id is required"))
	}
	if schemaETag == "" {
		return nil, invalid(op, tableID, errors.New("schema etag is required"))
	}
	next := newETag()
	var entry *types.TableEntry
	err := withTableLock(sm.store, sm.opts, op, tableID, func() error {
		return sm.store.Batch(func(tx types.StoreTx) error {
			if err := tx.SwapSchemaETag(tableID, schemaETag, next); err != nil {
				return err
			}
			if err := fn(tx); err != nil {
				return err
			}
			var err error
			entry, err = tx.GetTableEntry(tableID)
			return err
		})
	})
	if err != nil {
		return nil, logFailure(sm.opts.logger, op, tableID, err)
	}
	sm.opts.logger.Info("schema changed", "op", op, "table_id", tableID, "schema_etag", next)
	return entry, nil
}

func (sm *SchemaManager) exists(op, tableID string) error {
	if tableID == "" {
		return invalid(op, "", errors.New("table id is required"))
	}
	if _, err := sm.store.GetTableEntry(tableID); err != nil {
		return logFailure(sm.opts.logger, op, tableID, err)
	}
	return nil
}
