package errors

import "errors"

var (
	// ErrLockNotAcquired another holder owns the named lock.
	ErrLockNotAcquired = errors.New("lock is held by another request")
)
