package types

import "time"

// Row is one record of a synchronized table. Deleted rows are kept as
// tombstones so that clients syncing from an older data etag learn about
// the deletion.
type Row struct {
	RowID string `json:"row_id"`

	// RowETag changes every time this row is written.
	RowETag string `json:"row_etag"`

	// DataETagAtModification is the table data etag produced by the write
	// that last touched this row.
	DataETagAtModification string `json:"data_etag_at_modification"`

	Deleted        bool              `json:"deleted"`
	CreateUser     string            `json:"create_user,omitempty"`
	LastUpdateUser string            `json:"last_update_user,omitempty"`
	FilterScope    *Scope            `json:"filter_scope,omitempty"`
	Values         map[string]string `json:"values"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// RowChange is the result of a successful row write: the table's new data
// etag and the rows as stored.
type RowChange struct {
	DataETag string `json:"data_etag"`
	Rows     []*Row `json:"rows"`
}
