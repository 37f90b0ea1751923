// This file holds the DDL executed on Attach.
package sqlite

// Schema DDL for all store tables. Statements are idempotent so a store
// can be reattached to an existing database file.
const (
	createTableEntries = `CREATE TABLE IF NOT EXISTS table_entries (
    table_id TEXT PRIMARY KEY,
    table_key TEXT NOT NULL,
    db_table_name TEXT NOT NULL,
    table_type TEXT NOT NULL,
    schema_etag TEXT NOT NULL,
    data_etag TEXT,
    created_at TEXT NOT NULL
);`

	createColumns = `CREATE TABLE IF NOT EXISTS table_columns (
    table_id TEXT NOT NULL,
    name TEXT NOT NULL,
    data_type TEXT NOT NULL,
    nullable INTEGER NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (table_id, name)
);`

	createAcl = `CREATE TABLE IF NOT EXISTS table_acl (
    table_id TEXT NOT NULL,
    scope_type TEXT NOT NULL,
    scope_value TEXT NOT NULL,
    role TEXT NOT NULL,
    PRIMARY KEY (table_id, scope_type, scope_value)
);`

	createKVS = `CREATE TABLE IF NOT EXISTS table_kvs (
    table_id TEXT NOT NULL,
    partition TEXT NOT NULL,
    aspect TEXT NOT NULL,
    key TEXT NOT NULL,
    value_type TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (table_id, partition, aspect, key)
);`

	createRows = `CREATE TABLE IF NOT EXISTS table_rows (
    table_id TEXT NOT NULL,
    row_id TEXT NOT NULL,
    row_etag TEXT NOT NULL,
    data_etag_at_modification TEXT NOT NULL,
    deleted INTEGER NOT NULL,
    create_user TEXT NOT NULL,
    last_update_user TEXT NOT NULL,
    filter_type TEXT,
    filter_value TEXT,
    row_values TEXT NOT NULL,
    last_updated TEXT NOT NULL,
    PRIMARY KEY (table_id, row_id)
);`

	createDataETags = `CREATE TABLE IF NOT EXISTS data_etags (
    table_id TEXT NOT NULL,
    data_etag TEXT NOT NULL,
    seq INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (table_id, data_etag)
);`

	createTaskLocks = `CREATE TABLE IF NOT EXISTS task_locks (
    name TEXT PRIMARY KEY,
    holder TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxRowsModification = `CREATE INDEX IF NOT EXISTS idx_rows_modification ON table_rows(table_id, data_etag_at_modification);`
	idxDataETagsSeq     = `CREATE UNIQUE INDEX IF NOT EXISTS idx_data_etags_seq ON data_etags(table_id, seq);`
	idxColumnsOrdinal   = `CREATE INDEX IF NOT EXISTS idx_columns_ordinal ON table_columns(table_id, ordinal);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createTableEntries,
	createColumns,
	createAcl,
	createKVS,
	createRows,
	createDataETags,
	createTaskLocks,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRowsModification,
	idxDataETagsSeq,
	idxColumnsOrdinal,
}
