// This file implements the read side of table entries, columns, ACL and
// key-value metadata.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectTableEntry = "SELECT table_id, table_key, db_table_name, table_type, schema_etag, data_etag FROM table_entries"

// GetTableEntry returns the entry for tableID.
func (b *Backend) GetTableEntry(tableID string) (*types.TableEntry, error) {
	var entry *types.TableEntry
	err := b.withDB("get table entry", func(db *sql.DB) error {
		var err error
		entry, err = getTableEntry(db, tableID)
		return err
	})
	return entry, err
}

func getTableEntry(q querier, tableID string) (*types.TableEntry, error) {
	row := q.QueryRow(selectTableEntry+" WHERE table_id = ?", tableID)
	e, err := scanTableEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %s: %w", tableID, types.ErrNotFound)
	}
	if err != nil {
		return nil, types.StoreError("get table entry", err)
	}
	return e, nil
}

func scanTableEntry(s scanner) (*types.TableEntry, error) {
	var e types.TableEntry
	var dataETag sql.NullString
	if err := s.Scan(&e.TableID, &e.TableKey, &e.DBTableName, &e.TableType, &e.SchemaETag, &dataETag); err != nil {
		return nil, err
	}
	if dataETag.Valid {
		v := dataETag.String
		e.DataETag = &v
	}
	return &e, nil
}

// ListTableEntries returns every table entry ordered by table id.
func (b *Backend) ListTableEntries() ([]*types.TableEntry, error) {
	var entries []*types.TableEntry
	err := b.withDB("list table entries", func(db *sql.DB) error {
		rows, err := db.Query(selectTableEntry + " ORDER BY table_id ASC")
		if err != nil {
			return types.StoreError("list table entries", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanTableEntry(rows)
			if err != nil {
				return types.StoreError("scan table entry", err)
			}
			entries = append(entries, e)
		}
		if err := rows.Err(); err != nil {
			return types.StoreError("iterate table entries", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Return empty slice, not nil.
	if entries == nil {
		entries = []*types.TableEntry{}
	}
	return entries, nil
}

// ListColumns returns the columns of a table ordered by ordinal.
func (b *Backend) ListColumns(tableID string) ([]types.Column, error) {
	columns := []types.Column{}
	err := b.withDB("list columns", func(db *sql.DB) error {
		rows, err := db.Query(
			"SELECT name, data_type, nullable, ordinal FROM table_columns WHERE table_id = ? ORDER BY ordinal ASC",
			tableID,
		)
		if err != nil {
			return types.StoreError("list columns", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c types.Column
			var dataType string
			if err := rows.Scan(&c.Name, &dataType, &c.Nullable, &c.Ordinal); err != nil {
				return types.StoreError("scan column", err)
			}
			c.Type = types.ColumnType(dataType)
			columns = append(columns, c)
		}
		if err := rows.Err(); err != nil {
			return types.StoreError("iterate columns", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// ListAcl returns every ACL entry of a table.
func (b *Backend) ListAcl(tableID string) ([]types.AclEntry, error) {
	entries := []types.AclEntry{}
	err := b.withDB("list acl", func(db *sql.DB) error {
		rows, err := db.Query(
			"SELECT scope_type, scope_value, role FROM table_acl WHERE table_id = ? ORDER BY scope_type, scope_value",
			tableID,
		)
		if err != nil {
			return types.StoreError("list acl", err)
		}
		defer rows.Close()

		for rows.Next() {
			var scopeType, scopeValue, role string
			if err := rows.Scan(&scopeType, &scopeValue, &role); err != nil {
				return types.StoreError("scan acl entry", err)
			}
			entry, err := hydrateAcl(tableID, scopeType, scopeValue, role)
			if err != nil {
				return types.StoreError("hydrate acl entry", err)
			}
			entries = append(entries, entry)
		}
		if err := rows.Err(); err != nil {
			return types.StoreError("iterate acl", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func hydrateAcl(tableID, scopeType, scopeValue, role string) (types.AclEntry, error) {
	st, err := types.ParseScopeType(scopeType)
	if err != nil {
		return types.AclEntry{}, err
	}
	r, err := types.ParseTableRole(role)
	if err != nil {
		return types.AclEntry{}, err
	}
	return types.AclEntry{
		TableID: tableID,
		Scope:   types.Scope{Type: st, Value: scopeValue},
		Role:    r,
	}, nil
}

// ListKVS returns every key-value entry of a table.
func (b *Backend) ListKVS(tableID string) ([]types.KeyValueStoreEntry, error) {
	entries := []types.KeyValueStoreEntry{}
	err := b.withDB("list kvs", func(db *sql.DB) error {
		rows, err := db.Query(
			"SELECT partition, aspect, key, value_type, value FROM table_kvs WHERE table_id = ? ORDER BY partition, aspect, key",
			tableID,
		)
		if err != nil {
			return types.StoreError("list kvs", err)
		}
		defer rows.Close()

		for rows.Next() {
			e := types.KeyValueStoreEntry{TableID: tableID}
			if err := rows.Scan(&e.Partition, &e.Aspect, &e.Key, &e.Type, &e.Value); err != nil {
				return types.StoreError("scan kvs entry", err)
			}
			entries = append(entries, e)
		}
		if err := rows.Err(); err != nil {
			return types.StoreError("iterate kvs", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
