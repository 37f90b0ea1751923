// This file implements row storage and the data etag history used to
// answer "what changed since" queries.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

const selectRow = `SELECT r.row_id, r.row_etag, r.data_etag_at_modification, r.deleted,
    r.create_user, r.last_update_user, r.filter_type, r.filter_value, r.row_values, r.last_updated
FROM table_rows r`

// GetRow returns one row, tombstones included.
func (b *Backend) GetRow(tableID, rowID string) (*types.Row, error) {
	var row *types.Row
	err := b.withDB("get row", func(db *sql.DB) error {
		r, err := hydrateRow(db.QueryRow(selectRow+" WHERE r.table_id = ? AND r.row_id = ?", tableID, rowID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("row %s/%s: %w", tableID, rowID, types.ErrNotFound)
		}
		if err != nil {
			return types.StoreError("get row", err)
		}
		row = r
		return nil
	})
	return row, err
}

// ListRows returns the rows of a table ordered by row id.
func (b *Backend) ListRows(tableID string, includeDeleted bool) ([]*types.Row, error) {
	query := selectRow + " WHERE r.table_id = ?"
	if !includeDeleted {
		query += " AND r.deleted = 0"
	}
	query += " ORDER BY r.row_id ASC"

	var rows []*types.Row
	err := b.withDB("list rows", func(db *sql.DB) error {
		var err error
		rows, err = queryRows(db, query, tableID)
		return err
	})
	return rows, err
}

// ListRowsSince returns rows touched by writes after the one that produced
// dataETag, in write order.
func (b *Backend) ListRowsSince(tableID, dataETag string) ([]*types.Row, error) {
	var rows []*types.Row
	err := b.withDB("list rows since", func(db *sql.DB) error {
		var seq int64
		err := db.QueryRow(
			"SELECT seq FROM data_etags WHERE table_id = ? AND data_etag = ?",
			tableID, dataETag,
		).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("data etag %s of table %s: %w", dataETag, tableID, types.ErrNotFound)
		}
		if err != nil {
			return types.StoreError("look up data etag", err)
		}

		rows, err = queryRows(db, selectRow+`
JOIN data_etags d ON d.table_id = r.table_id AND d.data_etag = r.data_etag_at_modification
WHERE r.table_id = ? AND d.seq > ?
ORDER BY d.seq ASC, r.row_id ASC`, tableID, seq)
		return err
	})
	return rows, err
}

func queryRows(q querier, query string, args ...any) ([]*types.Row, error) {
	rs, err := q.Query(query, args...)
	if err != nil {
		return nil, types.StoreError("query rows", err)
	}
	defer rs.Close()

	rows := []*types.Row{}
	for rs.Next() {
		r, err := hydrateRow(rs)
		if err != nil {
			return nil, types.StoreError("hydrate row", err)
		}
		rows = append(rows, r)
	}
	if err := rs.Err(); err != nil {
		return nil, types.StoreError("iterate rows", err)
	}
	return rows, nil
}

// hydrateRow converts a SQLite row into a *types.Row.
func hydrateRow(s scanner) (*types.Row, error) {
	var r types.Row
	var deleted int
	var filterType, filterValue sql.NullString
	var valuesJSON, lastUpdated string
	if err := s.Scan(&r.RowID, &r.RowETag, &r.DataETagAtModification, &deleted,
		&r.CreateUser, &r.LastUpdateUser, &filterType, &filterValue, &valuesJSON, &lastUpdated); err != nil {
		return nil, err
	}
	r.Deleted = deleted != 0
	if filterType.Valid {
		st, err := types.ParseScopeType(filterType.String)
		if err != nil {
			return nil, fmt.Errorf("parsing filter scope: %w", err)
		}
		r.FilterScope = &types.Scope{Type: st, Value: filterValue.String}
	}
	if err := json.Unmarshal([]byte(valuesJSON), &r.Values); err != nil {
		return nil, fmt.Errorf("parsing row values: %w", err)
	}
	if r.Values == nil {
		r.Values = map[string]string{}
	}
	var err error
	r.LastUpdated, err = time.Parse(time.RFC3339Nano, lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("parsing last_updated: %w", err)
	}
	return &r, nil
}
