package tables

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// aclFanout bounds the concurrent ACL lookups of GetTablesForScopes.
const aclFanout = 8

// TableManager creates, looks up, lists and deletes tables.
type TableManager struct {
	store types.Store
	opts  options
}

// NewTableManager returns a TableManager over store.
func NewTableManager(store types.Store, opts ...Option) *TableManager {
	return &TableManager{store: store, opts: buildOptions(opts)}
}

// CreateTable creates a table with its initial columns, ACL and properties.
// The new entry has a fresh schema etag and no data etag. Nothing is
// persisted unless every part of the definition is.
func (tm *TableManager) CreateTable(def types.TableDefinition) (*types.TableEntry, error) {
	const op = "createTable"
	id := def.TableID
	if id == "" {
		return nil, invalid(op, "", errors.New("table id is required"))
	}
	if err := types.ValidateColumns(def.Columns); err != nil {
		return nil, invalid(op, id, err)
	}
	acl, err := normalizeAcl(id, def.ACL)
	if err != nil {
		return nil, invalid(op, id, err)
	}
	if err := types.ValidateKVS(def.KVS); err != nil {
		return nil, invalid(op, id, err)
	}
	kvs := make([]types.KeyValueStoreEntry, len(def.KVS))
	for i, e := range def.KVS {
		e.TableID = id
		kvs[i] = e
	}

	entry := &types.TableEntry{
		TableID:     id,
		TableKey:    def.TableKey,
		DBTableName: def.DBTableName,
		TableType:   def.TableType,
		SchemaETag:  newETag(),
	}

	err = withTableLock(tm.store, tm.opts, op, id, func() error {
		if _, err := tm.store.GetTableEntry(id); err == nil {
			return types.NewError(types.KindAlreadyExists, op, id, nil)
		} else if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		return tm.store.Batch(func(tx types.StoreTx) error {
			if err := tx.InsertTableEntry(entry); err != nil {
				return err
			}
			if err := tx.ReplaceColumns(id, types.Ordered(def.Columns)); err != nil {
				return err
			}
			for _, a := range acl {
				if err := tx.PutAcl(a); err != nil {
					return err
				}
			}
			return tx.ReplaceKVS(id, kvs)
		})
	})
	if err != nil {
		return nil, logFailure(tm.opts.logger, op, id, err)
	}

	tm.opts.logger.Info("table created",
		"table_id", id,
		"schema_etag", entry.SchemaETag,
		"columns", len(def.Columns),
		"acl", len(acl),
		"kvs", len(kvs))
	out := *entry
	return &out, nil
}

// GetTableNullSafe returns the entry for tableID, failing with NotFound
// rather than returning nil.
func (tm *TableManager) GetTableNullSafe(tableID string) (*types.TableEntry, error) {
	const op = "getTable"
	if tableID == "" {
		return nil, invalid(op, "", errors.New("table id is required"))
	}
	entry, err := tm.store.GetTableEntry(tableID)
	if err != nil {
		return nil, logFailure(tm.opts.logger, op, tableID, err)
	}
	return entry, nil
}

// GetTables returns every table. The result is never nil.
func (tm *TableManager) GetTables() ([]*types.TableEntry, error) {
	const op = "getTables"
	entries, err := tm.store.ListTableEntries()
	if err != nil {
		return nil, logFailure(tm.opts.logger, op, "", err)
	}
	if entries == nil {
		entries = []*types.TableEntry{}
	}
	return entries, nil
}

// GetTablesForScopes returns the tables on which scopes, together with the
// DEFAULT scope, hold at least READER.
func (tm *TableManager) GetTablesForScopes(scopes []types.Scope) ([]*types.TableEntry, error) {
	const op = "getTablesForScopes"
	for _, s := range scopes {
		if err := s.Validate(); err != nil {
			return nil, invalid(op, "", err)
		}
	}
	entries, err := tm.store.ListTableEntries()
	if err != nil {
		return nil, logFailure(tm.opts.logger, op, "", err)
	}

	visible := make([]bool, len(entries))
	var g errgroup.Group
	g.SetLimit(aclFanout)
	for i, e := range entries {
		g.Go(func() error {
			acl, err := tm.store.ListAcl(e.TableID)
			if err != nil {
				return fmt.Errorf("acl of %s: %w", e.TableID, err)
			}
			visible[i] = ResolveRole(acl, scopes).AtLeast(types.RoleReader)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, logFailure(tm.opts.logger, op, "", err)
	}

	out := make([]*types.TableEntry, 0, len(entries))
	for i, e := range entries {
		if visible[i] {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeleteTable removes a table and everything stored under it.
func (tm *TableManager) DeleteTable(tableID string) error {
	const op = "deleteTable"
	if tableID == "" {
		return invalid(op, "", errors.New("table id is required"))
	}
	err := withTableLock(tm.store, tm.opts, op, tableID, func() error {
		return tm.store.Batch(func(tx types.StoreTx) error {
			return tx.DeleteTableEntry(tableID)
		})
	})
	if err != nil {
		return logFailure(tm.opts.logger, op, tableID, err)
	}
	tm.opts.logger.Info("table deleted", "table_id", tableID)
	return nil
}

// normalizeAcl validates initial ACL entries, binds them to tableID and
// rejects a scope listed twice.
func normalizeAcl(tableID string, entries []types.AclEntry) ([]types.AclEntry, error) {
	out := make([]types.AclEntry, 0, len(entries))
	seen := make(map[types.Scope]bool, len(entries))
	for _, a := range entries {
		if err := a.Scope.Validate(); err != nil {
			return nil, err
		}
		if !a.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role for %s", types.ErrInvalidArgument, a.Scope)
		}
		if seen[a.Scope] {
			return nil, fmt.Errorf("%w: duplicate acl scope %s", types.ErrInvalidArgument, a.Scope)
		}
		seen[a.Scope] = true
		a.TableID = tableID
		out = append(out, a)
	}
	return out, nil
}
