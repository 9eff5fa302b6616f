package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrLockTimeout = errors.New("lock timeout")
)
