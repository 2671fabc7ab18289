package domain

import "errors"

var (
	// ErrNotFound signals a missing record regardless of the backing store.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyRegistered is the voter registry's uniqueness violation. It is
	// raised by the storage constraint, never by a read-then-write check.
	ErrAlreadyRegistered = errors.New("device already registered")
)
