// Package sentinel holds the errors stores and adapters return, optionally
// wrapped. The risk service maps them to domain error codes in one place.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists covers duplicate artifact, task and evaluation IDs and
	// a (record, tier) remediation claim taken by an earlier run.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnavailable is a dependency that answered with an error or not at all:
	// the certification registry, an open breaker, the broker.
	ErrUnavailable = errors.New("unavailable")
	ErrTimeout     = errors.New("timeout")
	// ErrLockHeld means another remediation holds the record's lock.
	ErrLockHeld = errors.New("lock held")
)
