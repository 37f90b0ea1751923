package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

func TestLock_AcquireRelease(t *testing.T) {
	b := newTestBackend(t)

	l, err := b.Lock("table:plots", time.Second)
	require.NoError(t, err)
	require.NoError(t, l.Release())
	require.NoError(t, l.Release(), "second release is a no-op")

	l2, err := b.Lock("table:plots", time.Second)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestLock_TimesOutWhileHeld(t *testing.T) {
	b := newTestBackend(t)

	l, err := b.Lock("table:plots", time.Second)
	require.NoError(t, err)
	defer l.Release()

	start := time.Now()
	_, err = b.Lock("table:plots", 50*time.Millisecond)
	assert.ErrorIs(t, err, types.ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// A different name is independent.
	other, err := b.Lock("table:trees", 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, other.Release())
}

func TestLock_NotReentrant(t *testing.T) {
	b := newTestBackend(t)

	l, err := b.Lock("table:plots", time.Second)
	require.NoError(t, err)
	defer l.Release()

	_, err = b.Lock("table:plots", 20*time.Millisecond)
	assert.ErrorIs(t, err, types.ErrLockTimeout)
}

func TestLock_WaiterAcquiresAfterRelease(t *testing.T) {
	b := newTestBackend(t)

	l, err := b.Lock("table:plots", time.Second)
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		l.Release()
	}()

	l2, err := b.Lock("table:plots", 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestLock_ExpiredLeaseIsTakenOver(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend:   types.BackendSQLite,
		DataDir:   t.TempDir(),
		LockLease: 20 * time.Millisecond,
	}))
	defer b.Detach()

	stale, err := b.Lock("table:plots", time.Second)
	require.NoError(t, err)

	fresh, err := b.Lock("table:plots", time.Second)
	require.NoError(t, err, "expired lease should be reclaimed")

	// Releasing the stale holder must not drop the new holder's row.
	require.NoError(t, stale.Release())
	var holder string
	require.NoError(t, b.db.QueryRow("SELECT holder FROM task_locks WHERE name = ?", "table:plots").Scan(&holder))
	assert.Equal(t, fresh.(*namedLock).holder, holder)
	require.NoError(t, fresh.Release())
}

func TestLock_TimesOutWhileBatchHoldsWriteLock(t *testing.T) {
	b := newTestBackend(t)

	inBatch := make(chan struct{})
	finish := make(chan struct{})
	batchDone := make(chan error, 1)
	go func() {
		batchDone <- b.Batch(func(tx types.StoreTx) error {
			close(inBatch)
			<-finish
			return nil
		})
	}()
	<-inBatch

	start := time.Now()
	_, err := b.Lock("table:plots", 50*time.Millisecond)
	elapsed := time.Since(start)
	close(finish)
	require.NoError(t, <-batchDone)

	assert.ErrorIs(t, err, types.ErrLockTimeout)
	assert.Less(t, elapsed, time.Second)

	// Once the batch ends the lock is available.
	l, err := b.Lock("table:plots", time.Second)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}
