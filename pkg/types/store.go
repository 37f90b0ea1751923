package types

import "time"

// Store is the persistence contract the table managers require. Reads are
// individually consistent; multi-record writes go through Batch, which
// applies all of them or none. Implementations must be safe for concurrent
// use.
//
// Failures of the underlying engine are reported wrapping
// ErrStoreUnavailable; lookups of missing records wrap ErrNotFound.
type Store interface {
	// GetTableEntry returns the entry for tableID or an error wrapping
	// ErrNotFound.
	GetTableEntry(tableID string) (*TableEntry, error)

	// ListTableEntries returns every table entry, in no particular order.
	ListTableEntries() ([]*TableEntry, error)

	// ListColumns returns the columns of a table ordered by ordinal.
	ListColumns(tableID string) ([]Column, error)

	// ListAcl returns every ACL entry of a table.
	ListAcl(tableID string) ([]AclEntry, error)

	// ListKVS returns every key-value entry of a table.
	ListKVS(tableID string) ([]KeyValueStoreEntry, error)

	// GetRow returns one row, tombstones included, or an error wrapping
	// ErrNotFound.
	GetRow(tableID, rowID string) (*Row, error)

	// ListRows returns the rows of a table; tombstones only when
	// includeDeleted is set.
	ListRows(tableID string, includeDeleted bool) ([]*Row, error)

	// ListRowsSince returns rows, tombstones included, last modified by a
	// write that happened after the one that produced dataETag. Unknown
	// etags are reported wrapping ErrNotFound.
	ListRowsSince(tableID, dataETag string) ([]*Row, error)

	// Batch runs fn inside one atomic unit. If fn returns an error nothing
	// it wrote is kept and that error is returned unchanged.
	Batch(fn func(tx StoreTx) error) error

	// Lock acquires the named mutual-exclusion lock, waiting at most
	// timeout. It fails wrapping ErrLockTimeout when the wait expires.
	// Locks are not reentrant: a holder asking again waits like anyone else.
	Lock(name string, timeout time.Duration) (Lock, error)
}

// StoreTx is the write side of a Batch.
type StoreTx interface {
	GetTableEntry(tableID string) (*TableEntry, error)

	// InsertTableEntry stores a new entry; it fails wrapping
	// ErrAlreadyExists if the id is taken.
	InsertTableEntry(entry *TableEntry) error

	// DeleteTableEntry removes the entry and everything keyed under it:
	// columns, ACL, KVS, rows and data etag history.
	DeleteTableEntry(tableID string) error

	ReplaceColumns(tableID string, columns []Column) error
	PutAcl(entry AclEntry) error

	// DeleteAcl fails wrapping ErrNotFound if no entry exists for scope.
	DeleteAcl(tableID string, scope Scope) error

	ReplaceKVS(tableID string, entries []KeyValueStoreEntry) error
	PutRow(tableID string, row *Row) error

	// SwapSchemaETag replaces the schema etag only if it currently equals
	// expected; otherwise it fails wrapping ErrEtagMismatch.
	SwapSchemaETag(tableID, expected, next string) error

	// SwapDataETag replaces the data etag only if it currently equals
	// expected (nil meaning "no data written yet"); otherwise it fails
	// wrapping ErrEtagMismatch.
	SwapDataETag(tableID string, expected *string, next string) error
}

// Lock is a held named lock.
type Lock interface {
	// Release gives the lock up. Releasing twice is a no-op.
	Release() error
}

// TableLockName is the lock name serializing structural changes to one
// table.
func TableLockName(tableID string) string {
	return "table:" + tableID
}
