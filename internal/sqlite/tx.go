// This file implements atomic batches: every multi-record write of the
// engine runs inside one SQLite transaction.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// Batch runs fn in a transaction. The transaction commits only if fn
// returns nil; otherwise it rolls back and fn's error is returned as is.
func (b *Backend) Batch(fn func(tx types.StoreTx) error) error {
	return b.withDB("batch", func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return types.StoreError("begin transaction", err)
		}
		defer tx.Rollback()

		if err := fn(&storeTx{tx: tx}); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return types.StoreError("commit transaction", err)
		}
		return nil
	})
}

// storeTx implements types.StoreTx over a *sql.Tx.
type storeTx struct {
	tx *sql.Tx
}

var _ types.StoreTx = (*storeTx)(nil)

func (s *storeTx) GetTableEntry(tableID string) (*types.TableEntry, error) {
	return getTableEntry(s.tx, tableID)
}

func (s *storeTx) InsertTableEntry(e *types.TableEntry) error {
	res, err := s.tx.Exec(
		`INSERT OR IGNORE INTO table_entries
    (table_id, table_key, db_table_name, table_type, schema_etag, data_etag, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TableID, e.TableKey, e.DBTableName, e.TableType, e.SchemaETag, e.DataETag,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return types.StoreError("insert table entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.StoreError("insert table entry", err)
	}
	if n == 0 {
		return fmt.Errorf("table %s: %w", e.TableID, types.ErrAlreadyExists)
	}
	return nil
}

// DeleteTableEntry removes the entry and cascades to everything keyed
// under the table id.
func (s *storeTx) DeleteTableEntry(tableID string) error {
	res, err := s.tx.Exec("DELETE FROM table_entries WHERE table_id = ?", tableID)
	if err != nil {
		return types.StoreError("delete table entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.StoreError("delete table entry", err)
	}
	if n == 0 {
		return fmt.Errorf("table %s: %w", tableID, types.ErrNotFound)
	}

	for _, tbl := range []string{"table_columns", "table_acl", "table_kvs", "table_rows", "data_etags"} {
		if _, err := s.tx.Exec("DELETE FROM "+tbl+" WHERE table_id = ?", tableID); err != nil {
			return types.StoreError("delete "+tbl, err)
		}
	}
	return nil
}

func (s *storeTx) ReplaceColumns(tableID string, columns []types.Column) error {
	if _, err := s.tx.Exec("DELETE FROM table_columns WHERE table_id = ?", tableID); err != nil {
		return types.StoreError("clear columns", err)
	}
	for _, c := range columns {
		_, err := s.tx.Exec(
			"INSERT INTO table_columns (table_id, name, data_type, nullable, ordinal) VALUES (?, ?, ?, ?, ?)",
			tableID, c.Name, string(c.Type), c.Nullable, c.Ordinal,
		)
		if err != nil {
			return types.StoreError("insert column "+c.Name, err)
		}
	}
	return nil
}

func (s *storeTx) PutAcl(e types.AclEntry) error {
	_, err := s.tx.Exec(
		`INSERT INTO table_acl (table_id, scope_type, scope_value, role) VALUES (?, ?, ?, ?)
ON CONFLICT (table_id, scope_type, scope_value) DO UPDATE SET role = excluded.role`,
		e.TableID, e.Scope.Type.String(), e.Scope.Value, e.Role.String(),
	)
	if err != nil {
		return types.StoreError("put acl", err)
	}
	return nil
}

func (s *storeTx) DeleteAcl(tableID string, scope types.Scope) error {
	res, err := s.tx.Exec(
		"DELETE FROM table_acl WHERE table_id = ? AND scope_type = ? AND scope_value = ?",
		tableID, scope.Type.String(), scope.Value,
	)
	if err != nil {
		return types.StoreError("delete acl", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.StoreError("delete acl", err)
	}
	if n == 0 {
		return fmt.Errorf("acl %s on %s: %w", scope, tableID, types.ErrNotFound)
	}
	return nil
}

func (s *storeTx) ReplaceKVS(tableID string, entries []types.KeyValueStoreEntry) error {
	if _, err := s.tx.Exec("DELETE FROM table_kvs WHERE table_id = ?", tableID); err != nil {
		return types.StoreError("clear kvs", err)
	}
	for _, e := range entries {
		_, err := s.tx.Exec(
			"INSERT INTO table_kvs (table_id, partition, aspect, key, value_type, value) VALUES (?, ?, ?, ?, ?, ?)",
			tableID, e.Partition, e.Aspect, e.Key, e.Type, e.Value,
		)
		if err != nil {
			return types.StoreError("insert kvs entry", err)
		}
	}
	return nil
}

// PutRow inserts or replaces a row.
func (s *storeTx) PutRow(tableID string, r *types.Row) error {
	values := r.Values
	if values == nil {
		values = map[string]string{}
	}
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshaling row values: %w", err)
	}

	var filterType, filterValue any
	if r.FilterScope != nil {
		filterType = r.FilterScope.Type.String()
		filterValue = r.FilterScope.Value
	}

	_, err = s.tx.Exec(
		`INSERT INTO table_rows (table_id, row_id, row_etag, data_etag_at_modification, deleted,
    create_user, last_update_user, filter_type, filter_value, row_values, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (table_id, row_id) DO UPDATE SET
    row_etag = excluded.row_etag,
    data_etag_at_modification = excluded.data_etag_at_modification,
    deleted = excluded.deleted,
    last_update_user = excluded.last_update_user,
    filter_type = excluded.filter_type,
    filter_value = excluded.filter_value,
    row_values = excluded.row_values,
    last_updated = excluded.last_updated`,
		tableID, r.RowID, r.RowETag, r.DataETagAtModification, r.Deleted,
		r.CreateUser, r.LastUpdateUser, filterType, filterValue, string(valuesJSON),
		r.LastUpdated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return types.StoreError("put row "+r.RowID, err)
	}
	return nil
}

func (s *storeTx) SwapSchemaETag(tableID, expected, next string) error {
	res, err := s.tx.Exec(
		"UPDATE table_entries SET schema_etag = ? WHERE table_id = ? AND schema_etag = ?",
		next, tableID, expected,
	)
	if err != nil {
		return types.StoreError("swap schema etag", err)
	}
	return s.checkSwap(res, tableID, "schema")
}

// SwapDataETag is the compare-and-swap on the data channel. The new etag
// is appended to the table's data etag history.
func (s *storeTx) SwapDataETag(tableID string, expected *string, next string) error {
	res, err := s.tx.Exec(
		"UPDATE table_entries SET data_etag = ? WHERE table_id = ? AND data_etag IS ?",
		next, tableID, expected,
	)
	if err != nil {
		return types.StoreError("swap data etag", err)
	}
	if err := s.checkSwap(res, tableID, "data"); err != nil {
		return err
	}

	_, err = s.tx.Exec(
		`INSERT INTO data_etags (table_id, data_etag, seq, created_at)
SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ? FROM data_etags WHERE table_id = ?`,
		tableID, next, time.Now().UTC().Format(time.RFC3339Nano), tableID,
	)
	if err != nil {
		return types.StoreError("record data etag", err)
	}
	return nil
}

// checkSwap turns a conditional update that matched nothing into
// ErrNotFound or ErrEtagMismatch.
func (s *storeTx) checkSwap(res sql.Result, tableID, channel string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return types.StoreError("swap "+channel+" etag", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := getTableEntry(s.tx, tableID); err != nil {
		return err
	}
	return fmt.Errorf("%s etag of table %s: %w", channel, tableID, types.ErrEtagMismatch)
}
