package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrNilRecord     = errors.New("mutate returned no record")
	ErrKeyMismatch   = errors.New("record does not match its key")
	ErrStoreClosed   = errors.New("store closed")
	ErrUnknownDriver = errors.New("unknown store driver")
)
