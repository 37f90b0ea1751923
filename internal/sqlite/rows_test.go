package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// writeRows swaps the data etag from prev to next and stores rows stamped
// with next.
func writeRows(t *testing.T, b *Backend, tableID string, prev *string, next string, rows ...*types.Row) {
	t.Helper()
	err := b.Batch(func(tx types.StoreTx) error {
		if err := tx.SwapDataETag(tableID, prev, next); err != nil {
			return err
		}
		for _, r := range rows {
			r.DataETagAtModification = next
			r.RowETag = next + "-" + r.RowID
			r.LastUpdated = time.Now()
			if err := tx.PutRow(tableID, r); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRows_PutGetAndTombstones(t *testing.T) {
	b := newTestBackend(t)
	seedTable(t, b, "plots")

	scope := types.GroupScope("team")
	writeRows(t, b, "plots", nil, "d1",
		&types.Row{RowID: "r1", CreateUser: "u", LastUpdateUser: "u", FilterScope: &scope, Values: map[string]string{"a": "1"}},
		&types.Row{RowID: "r2", Values: map[string]string{"a": "2"}},
	)

	r, err := b.GetRow("plots", "r1")
	require.NoError(t, err)
	assert.Equal(t, "1", r.Values["a"])
	assert.Equal(t, "d1", r.DataETagAtModification)
	require.NotNil(t, r.FilterScope)
	assert.Equal(t, scope, *r.FilterScope)
	assert.False(t, r.LastUpdated.IsZero())

	writeRows(t, b, "plots", strPtr("d1"), "d2",
		&types.Row{RowID: "r2", Deleted: true, Values: map[string]string{"a": "2"}},
	)

	live, err := b.ListRows("plots", false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "r1", live[0].RowID)

	all, err := b.ListRows("plots", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tomb, err := b.GetRow("plots", "r2")
	require.NoError(t, err)
	assert.True(t, tomb.Deleted)

	_, err = b.GetRow("plots", "r9")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRows_ListRowsSince(t *testing.T) {
	b := newTestBackend(t)
	seedTable(t, b, "plots")

	writeRows(t, b, "plots", nil, "d1", &types.Row{RowID: "r1"}, &types.Row{RowID: "r2"})
	writeRows(t, b, "plots", strPtr("d1"), "d2", &types.Row{RowID: "r3"})
	writeRows(t, b, "plots", strPtr("d2"), "d3", &types.Row{RowID: "r1", Values: map[string]string{"a": "new"}})

	since, err := b.ListRowsSince("plots", "d1")
	require.NoError(t, err)
	ids := make([]string, len(since))
	for i, r := range since {
		ids[i] = r.RowID
	}
	assert.Equal(t, []string{"r3", "r1"}, ids)

	since, err = b.ListRowsSince("plots", "d3")
	require.NoError(t, err)
	assert.Empty(t, since)

	_, err = b.ListRowsSince("plots", "unknown")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
