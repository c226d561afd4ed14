package store

import "errors"

var (
	// ErrStoreUnavailable wraps every failure of the underlying database.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrCorruptRow       = errors.New("corrupt card row")
)
