package tables

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

func newSchemaFixture(t *testing.T, opts ...Option) (types.Store, *SchemaManager, *types.TableEntry) {
	t.Helper()
	store := newStore(t)
	e := createTable(t, NewTableManager(store, testOptions()...), "t1")
	return store, NewSchemaManager(store, testOptions(opts...)...), e
}

func TestAlterColumns(t *testing.T) {
	_, sm, e := newSchemaFixture(t)

	cols := []types.Column{
		{Name: "name", Type: types.ColumnString},
		{Name: "score", Type: types.ColumnNumber, Nullable: true},
		{Name: "seen", Type: types.ColumnDateTime, Nullable: true},
	}
	updated, err := sm.AlterColumns("t1", e.SchemaETag, cols)
	require.NoError(t, err)
	assert.NotEqual(t, e.SchemaETag, updated.SchemaETag)
	assert.Equal(t, e.TableKey, updated.TableKey)

	got, err := sm.GetColumns("t1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "seen", got[2].Name)
	assert.Equal(t, 2, got[2].Ordinal)

	_, err = sm.AlterColumns("t1", e.SchemaETag, cols[:1])
	requireKind(t, err, types.KindEtagMismatch)

	got, err = sm.GetColumns("t1")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestAlterColumns_Errors(t *testing.T) {
	_, sm, e := newSchemaFixture(t)

	_, err := sm.AlterColumns("", e.SchemaETag, nil)
	requireKind(t, err, types.KindInvalidArgument)

	_, err = sm.AlterColumns("t1", "", nil)
	requireKind(t, err, types.KindInvalidArgument)

	_, err = sm.AlterColumns("t1", e.SchemaETag, []types.Column{{Name: "", Type: types.ColumnString}})
	requireKind(t, err, types.KindInvalidArgument)

	_, err = sm.AlterColumns("missing", "etag", nil)
	requireKind(t, err, types.KindNotFound)
}

func TestAlterColumns_DoesNotTouchDataETag(t *testing.T) {
	store, sm, e := newSchemaFixture(t)
	require.NoError(t, aclFor(t, store).SetAcl(types.DefaultScope, types.RoleWriter))
	w, err := NewDataManager(store, testOptions()...).InsertOrUpdateRows(alice, "t1", nil, []types.Row{row("r1", "a")})
	require.NoError(t, err)

	updated, err := sm.AlterColumns("t1", e.SchemaETag, []types.Column{{Name: "name", Type: types.ColumnString}})
	require.NoError(t, err)
	require.NotNil(t, updated.DataETag)
	assert.Equal(t, w.DataETag, *updated.DataETag)
}

func TestSetProperties(t *testing.T) {
	_, sm, e := newSchemaFixture(t)

	entries := []types.KeyValueStoreEntry{
		{Partition: "Table", Aspect: "default", Key: "displayName", Type: "string", Value: "Visits"},
		{Partition: "Column", Aspect: "name", Key: "width", Type: "integer", Value: "40"},
	}
	updated, err := sm.SetProperties("t1", e.SchemaETag, entries)
	require.NoError(t, err)
	assert.NotEqual(t, e.SchemaETag, updated.SchemaETag)

	got, err := sm.GetProperties("t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, kv := range got {
		assert.Equal(t, "t1", kv.TableID)
	}

	_, err = sm.SetProperties("t1", e.SchemaETag, nil)
	requireKind(t, err, types.KindEtagMismatch)

	_, err = sm.SetProperties("t1", updated.SchemaETag, []types.KeyValueStoreEntry{{Partition: "Table"}})
	requireKind(t, err, types.KindInvalidArgument)
}

func TestSchemaReaders_MissingTable(t *testing.T) {
	_, sm, _ := newSchemaFixture(t)

	_, err := sm.GetColumns("missing")
	requireKind(t, err, types.KindNotFound)
	_, err = sm.GetProperties("missing")
	requireKind(t, err, types.KindNotFound)
	_, err = sm.GetColumns("")
	requireKind(t, err, types.KindInvalidArgument)
}

func TestSchemaEdit_LockTimeout(t *testing.T) {
	store, sm, e := newSchemaFixture(t, WithLockTimeout(50*time.Millisecond))

	held, err := store.Lock(types.TableLockName("t1"), time.Second)
	require.NoError(t, err)
	_, err = sm.AlterColumns("t1", e.SchemaETag, nil)
	requireKind(t, err, types.KindLockTimeout)
	require.NoError(t, held.Release())

	_, err = sm.AlterColumns("t1", e.SchemaETag, nil)
	require.NoError(t, err)
}

// aclFor returns the ACL manager of t1.
func aclFor(t *testing.T, store types.Store) *AclManager {
	t.Helper()
	am, err := NewAclManager(store, "t1", testOptions()...)
	require.NoError(t, err)
	return am
}
