package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrFull   = errors.New("upload queue full")
	ErrClosed = errors.New("upload queue closed")
)
