package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesSentinel(t *testing.T) {
	kinds := map[Kind]error{
		KindInvalidArgument:  ErrInvalidArgument,
		KindAlreadyExists:    ErrAlreadyExists,
		KindNotFound:         ErrNotFound,
		KindEtagMismatch:     ErrEtagMismatch,
		KindPermissionDenied: ErrPermissionDenied,
		KindLockTimeout:      ErrLockTimeout,
		KindStoreUnavailable: ErrStoreUnavailable,
	}
	for kind, sentinel := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			err := NewError(kind, "op", "t1", nil)
			if !errors.Is(err, sentinel) {
				t.Fatalf("expected %v to match %v", err, sentinel)
			}
			if KindOf(err) != kind {
				t.Fatalf("expected kind %v, got %v", kind, KindOf(err))
			}
			wrapped := fmt.Errorf("outer: %w", err)
			if KindOf(wrapped) != kind {
				t.Fatalf("expected wrapped kind %v, got %v", kind, KindOf(wrapped))
			}
		})
	}
}

func TestKindOfSentinelChain(t *testing.T) {
	err := fmt.Errorf("get table: %w", ErrNotFound)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected NotFound, got %v", KindOf(err))
	}
	if KindOf(errors.New("boom")) != KindUnknown {
		t.Fatal("plain error should be Unknown")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatal("nil should be Unknown")
	}
}

func TestClassify(t *testing.T) {
	if Classify("op", "t", nil) != nil {
		t.Fatal("Classify(nil) must be nil")
	}

	err := Classify("createTable", "t1", errors.New("disk I/O error"))
	if KindOf(err) != KindStoreUnavailable {
		t.Fatalf("expected StoreUnavailable, got %v", KindOf(err))
	}

	err = Classify("createTable", "t1", fmt.Errorf("insert: %w", ErrAlreadyExists))
	if KindOf(err) != KindAlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", KindOf(err))
	}

	orig := NewError(KindLockTimeout, "deleteTable", "t1", nil)
	if Classify("other", "x", orig) != error(orig) {
		t.Fatal("Classify must pass *Error through unchanged")
	}
}

func TestStoreErrorIsUnavailable(t *testing.T) {
	cause := errors.New("database is locked")
	err := StoreError("put row", cause)
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected both sentinel and cause in chain, got %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError(KindNotFound, "getTable", "t1", nil)
	if got := err.Error(); got != "getTable t1: NotFound" {
		t.Fatalf("unexpected message %q", got)
	}
	err = NewError(KindStoreUnavailable, "getTables", "", errors.New("closed"))
	if got := err.Error(); got != "getTables: StoreUnavailable: closed" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestKindRetryable(t *testing.T) {
	if !KindEtagMismatch.Retryable() || !KindLockTimeout.Retryable() {
		t.Fatal("etag mismatch and lock timeout are retryable by the caller")
	}
	if KindInvalidArgument.Retryable() || KindPermissionDenied.Retryable() {
		t.Fatal("contract violations are not retryable")
	}
}
