// This file implements named, lease-based mutual-exclusion locks stored in
// the task_locks table, so that structural changes serialize across every
// process sharing the database.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

// lockPollInterval is the pause between acquisition attempts.
const lockPollInterval = 10 * time.Millisecond

// Lock acquires the named lock, polling until timeout elapses. An acquired
// lock expires after the configured lease if it is never released.
func (b *Backend) Lock(name string, timeout time.Duration) (types.Lock, error) {
	holder := newUUID()
	deadline := time.Now().Add(timeout)

	for {
		ok, err := b.tryLock(name, holder, deadline)
		if err != nil {
			return nil, err
		}
		if ok {
			return &namedLock{backend: b, name: name, holder: holder}, nil
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			return nil, fmt.Errorf("lock %q not acquired within %s: %w", name, timeout, types.ErrLockTimeout)
		}
		time.Sleep(min(wait, lockPollInterval))
	}
}

// tryLock makes one acquisition attempt: expired leases are cleared, then
// the lock row is inserted unless another holder owns it. The attempt runs
// on its own connection whose busy wait ends at deadline; a database write
// lock still held by another transaction at that point counts as not
// acquired.
func (b *Backend) tryLock(name, holder string, deadline time.Time) (bool, error) {
	var acquired bool
	err := b.withDB("acquire lock", func(db *sql.DB) error {
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		defer cancel()

		conn, err := db.Conn(ctx)
		if err != nil {
			if contended(err) {
				return nil
			}
			return types.StoreError("acquire lock", err)
		}
		defer conn.Close()

		wait := max(time.Until(deadline).Milliseconds(), 1)
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", wait)); err != nil {
			if contended(err) {
				return nil
			}
			return types.StoreError("acquire lock", err)
		}
		defer restoreBusyTimeout(conn)

		acquired, err = insertLock(ctx, conn, name, holder, b.config.GetLockLease())
		switch {
		case err == nil, contended(err):
			return nil
		default:
			return types.StoreError("acquire lock", err)
		}
	})
	return acquired, err
}

func insertLock(ctx context.Context, conn *sql.Conn, name, holder string, lease time.Duration) (bool, error) {
	now := time.Now()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM task_locks WHERE name = ? AND expires_at <= ?", name, now.UnixNano()); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO task_locks (name, holder, expires_at) VALUES (?, ?, ?)",
		name, holder, now.Add(lease).UnixNano(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n == 1, nil
}

// restoreBusyTimeout puts the pooled connection back on the store-wide busy
// timeout. A connection that cannot be restored is discarded.
func restoreBusyTimeout(conn *sql.Conn) {
	_, err := conn.ExecContext(context.Background(), fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis))
	if err != nil {
		conn.Raw(func(any) error { return driver.ErrBadConn })
	}
}

// contended reports whether err means another transaction held the
// database write lock past the attempt's deadline.
func contended(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_INTERRUPT:
			return true
		}
	}
	return false
}

// namedLock is a held lock. Release deletes the row only if this holder
// still owns it, so a lock that expired and was taken over is left alone.
type namedLock struct {
	backend *Backend
	name    string
	holder  string

	once sync.Once
	err  error
}

func (l *namedLock) Release() error {
	l.once.Do(func() {
		l.err = l.backend.withDB("release lock", func(db *sql.DB) error {
			if _, err := db.Exec("DELETE FROM task_locks WHERE name = ? AND holder = ?", l.name, l.holder); err != nil {
				return types.StoreError("release lock", err)
			}
			return nil
		})
	})
	return l.err
}
