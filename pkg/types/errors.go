package types

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the engine reports. The set is closed;
// callers switch on KindOf(err) to decide whether a retry makes sense.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindAlreadyExists
	KindNotFound
	KindEtagMismatch
	KindPermissionDenied
	KindLockTimeout
	KindStoreUnavailable
)

// Sentinel errors, one per kind. Every *Error matches the sentinel of its
// kind under errors.Is.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotFound         = errors.New("not found")
	ErrEtagMismatch     = errors.New("etag mismatch")
	ErrPermissionDenied = errors.New("permission denied")
	ErrLockTimeout      = errors.New("lock timeout")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindNotFound:
		return "NotFound"
	case KindEtagMismatch:
		return "EtagMismatch"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindLockTimeout:
		return "LockTimeout"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	default:
		return "Unknown"
	}
}

// Retryable reports whether the same request may succeed if issued again
// later, possibly after refreshing ETags.
func (k Kind) Retryable() bool {
	switch k {
	case KindEtagMismatch, KindLockTimeout, KindStoreUnavailable:
		return true
	default:
		return false
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindAlreadyExists:
		return ErrAlreadyExists
	case KindNotFound:
		return ErrNotFound
	case KindEtagMismatch:
		return ErrEtagMismatch
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindLockTimeout:
		return ErrLockTimeout
	case KindStoreUnavailable:
		return ErrStoreUnavailable
	default:
		return nil
	}
}

// Error is the error value returned by the table managers.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "createTable"
	ID   string // table id (or table/row) the operation addressed
	Err  error  // underlying cause; may be nil
}

// NewError builds an *Error. err may be nil.
func NewError(kind Kind, op, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil && e.Err != e.Kind.sentinel() {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of err. Errors that are neither an *Error nor
// wrap one of the sentinels report KindUnknown; nil reports KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k := KindInvalidArgument; k <= KindStoreUnavailable; k++ {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUnknown
}

// Classify converts err into an *Error for op/id. Errors that already carry
// a kind keep it; anything else is treated as a store failure.
func Classify(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := KindOf(err)
	if kind == KindUnknown {
		kind = KindStoreUnavailable
	}
	return NewError(kind, op, id, err)
}

// StoreError wraps a backend failure as KindStoreUnavailable.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
