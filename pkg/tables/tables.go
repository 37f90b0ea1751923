// Package tables is the table synchronization engine. It manages the
// lifecycle of synchronized tables (TableManager), their access control
// lists (AclManager), their schema and properties (SchemaManager) and their
// rows (DataManager) on top of a types.Store.
//
// Structural changes (create, delete, schema edits) run under a named
// per-table lock obtained from the store. Row writes are not locked; they
// are guarded by a compare-and-swap on the table's data etag.
package tables

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tablesync/pkg/types"
)

type options struct {
	logger      *slog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// Option configures a manager.
type Option func(*options)

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLockTimeout bounds the wait for a table lock. The default is
// types.DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithClock overrides the time source used to stamp rows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:      slog.Default(),
		lockTimeout: types.DefaultLockTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newETag returns a fresh random version token.
func newETag() string {
	return uuid.NewString()
}

// newRowID returns a time-ordered id for rows submitted without one.
func newRowID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// withTableLock runs fn while holding the structural lock of tableID. The
// lock is released on every exit path; a release failure is reported only
// if fn itself succeeded.
func withTableLock(store types.Store, o options, op, tableID string, fn func() error) (err error) {
	lock, err := store.Lock(types.TableLockName(tableID), o.lockTimeout)
	if err != nil {
		o.logger.Warn("table lock not acquired", "op", op, "table_id", tableID, "timeout", o.lockTimeout, "error", err)
		return types.Classify(op, tableID, err)
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			o.logger.Error("table lock release failed", "op", op, "table_id", tableID, "error", rerr)
			if err == nil {
				err = types.Classify(op, tableID, rerr)
			}
		}
	}()
	return fn()
}

// invalid builds an InvalidArgument error.
func invalid(op, id string, err error) error {
	return types.NewError(types.KindInvalidArgument, op, id, err)
}

// logFailure logs err at a level matching its kind and returns it
// classified for op.
func logFailure(l *slog.Logger, op, id string, err error) error {
	err = types.Classify(op, id, err)
	switch types.KindOf(err) {
	case types.KindStoreUnavailable:
		l.Error("store failure", "op", op, "table_id", id, "error", err)
	case types.KindEtagMismatch, types.KindLockTimeout:
		l.Warn("conflict", "op", op, "table_id", id, "error", err)
	default:
		l.Debug("request rejected", "op", op, "table_id", id, "error", err)
	}
	return err
}
