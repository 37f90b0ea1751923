package tables

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablesync/pkg/sqlite"
	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// newStore attaches a SQLite store in a temp directory.
func newStore(t *testing.T) types.Store {
	t.Helper()
	s := sqlite.NewBackend()
	require.NoError(t, s.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	t.Cleanup(func() { s.Detach() })
	return s
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testOptions(extra ...Option) []Option {
	return append([]Option{quiet(), WithLockTimeout(2 * time.Second)}, extra...)
}

func definition(id string) types.TableDefinition {
	return types.TableDefinition{
		TableID:     id,
		TableKey:    id + "-key",
		DBTableName: "db_" + id,
		TableType:   "DATA",
		Columns: []types.Column{
			{Name: "name", Type: types.ColumnString},
			{Name: "age", Type: types.ColumnInteger, Nullable: true},
		},
		KVS: []types.KeyValueStoreEntry{
			{Partition: "Table", Aspect: "default", Key: "displayName", Type: "string", Value: id},
		},
	}
}

// createTable creates a table with the given ACL and fails the test on error.
func createTable(t *testing.T, tm *TableManager, id string, acl ...types.AclEntry) *types.TableEntry {
	t.Helper()
	def := definition(id)
	def.ACL = acl
	e, err := tm.CreateTable(def)
	require.NoError(t, err)
	return e
}

func grant(scope types.Scope, role types.TableRole) types.AclEntry {
	return types.AclEntry{Scope: scope, Role: role}
}

func requireKind(t *testing.T, err error, kind types.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, types.KindOf(err), "error: %v", err)
}

func strPtr(s string) *string { return &s }

// failingStore fails the ReplaceKVS step of every batch.
type failingStore struct {
	types.Store
}

func (f failingStore) Batch(fn func(tx types.StoreTx) error) error {
	return f.Store.Batch(func(tx types.StoreTx) error {
		return fn(failingTx{tx})
	})
}

type failingTx struct {
	types.StoreTx
}

func (failingTx) ReplaceKVS(string, []types.KeyValueStoreEntry) error {
	return types.StoreError("replace kvs", io.ErrUnexpectedEOF)
}
