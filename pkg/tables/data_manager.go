package tables

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// DataManager reads and writes table rows. Writes name the data etag the
// caller last saw; a write against any other etag fails with EtagMismatch
// and changes nothing.
type DataManager struct {
	store types.Store
	opts  options
}

// NewDataManager returns a DataManager over store.
func NewDataManager(store types.Store, opts ...Option) *DataManager {
	return &DataManager{store: store, opts: buildOptions(opts)}
}

// authorize loads the table entry and checks that caller holds required.
func (dm *DataManager) authorize(op, tableID string, caller types.Caller, required types.TableRole) (*types.TableEntry, error) {
	if tableID == "" {
		return nil, invalid(op, "", errors.New("table id is required"))
	}
	entry, err := dm.store.GetTableEntry(tableID)
	if err != nil {
		return nil, err
	}
	acl, err := dm.store.ListAcl(tableID)
	if err != nil {
		return nil, err
	}
	if role := ResolveRole(acl, caller.Scopes()); !role.AtLeast(required) {
		return nil, types.NewError(types.KindPermissionDenied, op, tableID,
			fmt.Errorf("%s holds %s, needs %s", callerName(caller), role, required))
	}
	return entry, nil
}

// GetRows returns the live rows of a table. Requires READER.
func (dm *DataManager) GetRows(caller types.Caller, tableID string) ([]*types.Row, error) {
	const op = "getRows"
	if _, err := dm.authorize(op, tableID, caller, types.RoleReader); err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}
	rows, err := dm.store.ListRows(tableID, false)
	if err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}
	return rows, nil
}

// GetRow returns one live row. Tombstones are reported as NotFound.
// Requires READER.
func (dm *DataManager) GetRow(caller types.Caller, tableID, rowID string) (*types.Row, error) {
	const op = "getRow"
	if rowID == "" {
		return nil, invalid(op, tableID, errors.New("row id is required"))
	}
	if _, err := dm.authorize(op, tableID, caller, types.RoleReader); err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}
	row, err := dm.store.GetRow(tableID, rowID)
	if err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}
	if row.Deleted {
		return nil, types.NewError(types.KindNotFound, op, tableID, fmt.Errorf("row %s is deleted", rowID))
	}
	return row, nil
}

// GetRowsSince returns the rows, tombstones included, changed by writes
// after the one that produced dataETag, together with the table's current
// data etag. A nil dataETag returns every row. An etag the table never
// produced fails with EtagMismatch: the caller must resync from scratch.
// Requires READER.
func (dm *DataManager) GetRowsSince(caller types.Caller, tableID string, dataETag *string) (*types.RowChange, error) {
	const op = "getRowsSince"
	entry, err := dm.authorize(op, tableID, caller, types.RoleReader)
	if err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}
	var rows []*types.Row
	if dataETag == nil {
		rows, err = dm.store.ListRows(tableID, true)
	} else {
		rows, err = dm.store.ListRowsSince(tableID, *dataETag)
		if errors.Is(err, types.ErrNotFound) {
			err = types.NewError(types.KindEtagMismatch, op, tableID,
				fmt.Errorf("data etag %q is unknown", *dataETag))
		}
	}
	if err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}
	change := &types.RowChange{Rows: rows}
	if entry.DataETag != nil {
		change.DataETag = *entry.DataETag
	}
	return change, nil
}

// InsertOrUpdateRows writes rows against the data etag the caller last saw
// (nil for a table that never had data). Rows without an id are assigned
// one. On success every row shares the returned new data etag. Requires
// WRITER.
func (dm *DataManager) InsertOrUpdateRows(caller types.Caller, tableID string, dataETag *string, rows []types.Row) (*types.RowChange, error) {
	const op = "insertOrUpdateRows"
	if len(rows) == 0 {
		return nil, invalid(op, tableID, errors.New("no rows to write"))
	}
	entry, err := dm.authorize(op, tableID, caller, types.RoleWriter)
	if err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}
	columns, err := dm.store.ListColumns(tableID)
	if err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}

	next := newETag()
	now := dm.opts.now().UTC()
	out := make([]*types.Row, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i := range rows {
		r := rows[i]
		if r.RowID == "" {
			r.RowID = newRowID()
		}
		if seen[r.RowID] {
			return nil, invalid(op, tableID, fmt.Errorf("row %s listed twice", r.RowID))
		}
		seen[r.RowID] = true
		if err := checkRowValues(columns, r.Values); err != nil {
			return nil, invalid(op, tableID, fmt.Errorf("row %s: %w", r.RowID, err))
		}
		if r.FilterScope != nil {
			if err := r.FilterScope.Validate(); err != nil {
				return nil, invalid(op, tableID, fmt.Errorf("row %s: %w", r.RowID, err))
			}
		}

		// An existing row keeps its creator. The etag swap in commit
		// rejects the write if this read is stale.
		r.CreateUser = caller.User
		if prev, err := dm.store.GetRow(tableID, r.RowID); err == nil {
			r.CreateUser = prev.CreateUser
		} else if !errors.Is(err, types.ErrNotFound) {
			return nil, logFailure(dm.opts.logger, op, tableID, err)
		}

		r.RowETag = newETag()
		r.DataETagAtModification = next
		r.Deleted = false
		r.LastUpdateUser = caller.User
		r.LastUpdated = now
		out = append(out, &r)
	}

	if err := dm.commit(op, tableID, entry.SchemaETag, dataETag, next, out); err != nil {
		return nil, err
	}
	dm.opts.logger.Info("rows written", "table_id", tableID, "rows", len(out), "data_etag", next)
	return &types.RowChange{DataETag: next, Rows: out}, nil
}

// DeleteRows tombstones live rows against the data etag the caller last
// saw. Unknown or already deleted rows fail with NotFound. Requires WRITER.
func (dm *DataManager) DeleteRows(caller types.Caller, tableID string, dataETag *string, rowIDs []string) (*types.RowChange, error) {
	const op = "deleteRows"
	if len(rowIDs) == 0 {
		return nil, invalid(op, tableID, errors.New("no rows to delete"))
	}
	if _, err := dm.authorize(op, tableID, caller, types.RoleWriter); err != nil {
		return nil, logFailure(dm.opts.logger, op, tableID, err)
	}

	next := newETag()
	now := dm.opts.now().UTC()
	out := make([]*types.Row, 0, len(rowIDs))
	seen := make(map[string]bool, len(rowIDs))
	for _, id := range rowIDs {
		if id == "" {
			return nil, invalid(op, tableID, errors.New("row id is required"))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		r, err := dm.store.GetRow(tableID, id)
		if err != nil {
			return nil, logFailure(dm.opts.logger, op, tableID, err)
		}
		if r.Deleted {
			return nil, logFailure(dm.opts.logger, op, tableID,
				types.NewError(types.KindNotFound, op, tableID, fmt.Errorf("row %s is already deleted", id)))
		}
		r.Deleted = true
		r.RowETag = newETag()
		r.DataETagAtModification = next
		r.LastUpdateUser = caller.User
		r.LastUpdated = now
		out = append(out, r)
	}

	if err := dm.commit(op, tableID, "", dataETag, next, out); err != nil {
		return nil, err
	}
	dm.opts.logger.Info("rows deleted", "table_id", tableID, "rows", len(out), "data_etag", next)
	return &types.RowChange{DataETag: next, Rows: out}, nil
}

// commit swaps the data etag from expected to next and stores rows in the
// same batch. A non-empty schemaETag is the schema the rows were validated
// against; the batch fails with EtagMismatch if the columns changed since.
func (dm *DataManager) commit(op, tableID, schemaETag string, expected *string, next string, rows []*types.Row) error {
	err := dm.store.Batch(func(tx types.StoreTx) error {
		if schemaETag != "" {
			current, err := tx.GetTableEntry(tableID)
			if err != nil {
				return err
			}
			if current.SchemaETag != schemaETag {
				return types.NewError(types.KindEtagMismatch, op, tableID,
					fmt.Errorf("schema changed from %s to %s while writing rows", schemaETag, current.SchemaETag))
			}
		}
		if err := tx.SwapDataETag(tableID, expected, next); err != nil {
			return err
		}
		for _, r := range rows {
			if err := tx.PutRow(tableID, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return logFailure(dm.opts.logger, op, tableID, err)
	}
	return nil
}

// checkRowValues validates values against the table's columns.
func checkRowValues(columns []types.Column, values map[string]string) error {
	known := make(map[string]types.Column, len(columns))
	for _, c := range columns {
		known[c.Name] = c
	}
	var unknown []string
	for name := range values {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("%w: unknown columns %s", types.ErrInvalidArgument, strings.Join(unknown, ", "))
	}
	for _, c := range columns {
		v, ok := values[c.Name]
		if !ok || v == "" {
			if !c.Nullable {
				return fmt.Errorf("%w: column %q requires a value", types.ErrInvalidArgument, c.Name)
			}
			continue
		}
		if err := c.Type.CheckValue(v); err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	return nil
}
