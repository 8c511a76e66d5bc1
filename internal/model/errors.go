package model

import "errors"

var (
	ErrInvalidGeometry     = errors.New("invalid geometry")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTarget       = errors.New("invalid clone target")
	ErrExclusivityConflict = errors.New("default exclusivity conflict")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrOptimisticLock      = errors.New("optimistic lock conflict")
)
