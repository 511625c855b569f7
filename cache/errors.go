package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned by Put (and by a reload that cannot be
	// admitted) when resident memory is at capacity. It is an expected,
	// retryable condition: back off and try again.
	ErrUnavailable = errors.New("cache unavailable: no room for new entry, retry later")

	// ErrTooLarge is returned by Put for a blob bigger than the high
	// watermark. Unlike ErrUnavailable, retrying cannot help.
	ErrTooLarge = errors.New("entry exceeds the high watermark")

	// ErrStore marks failures of the backing store. Match it with errors.Is;
	// the concrete error is a *StoreError.
	ErrStore = errors.New("backing store failure")

	// ErrBlobMissing is reported when the backing store has no copy of an
	// entry that was demoted to it.
	ErrBlobMissing = errors.New("demoted blob missing from backing store")

	// ErrClosed is returned by operations on a closed Cache.
	ErrClosed = errors.New("cache is closed")
)

// StoreError describes a failed backing-store operation on a single entry.
type StoreError struct {
	Op  string // "read" or "write"
	Key string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("backing store %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStore.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// ErrInvalidConfig describes a configuration validation failure.
type ErrInvalidConfig struct {
	Message string
}

// Error implements the error interface.
func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}
