package records

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable marks a transport-level failure talking to the
	// record store. It is surfaced to callers unchanged; nothing in this
	// module retries on its behalf.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrInvalidArgument marks a request rejected before any store call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a lookup for a record id the store does not hold.
	ErrNotFound = errors.New("record not found")
)

// StoreError wraps a store transport failure with the operation that hit it.
// errors.Is matches it against ErrStoreUnavailable and, through Unwrap,
// against the underlying cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// Unavailable wraps err as a StoreError for op.
func Unavailable(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
