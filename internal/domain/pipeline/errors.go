package pipeline

import "errors"

var (
	// ErrRosterUnavailable is returned when the roster cannot be listed; nothing is written.
	ErrRosterUnavailable = errors.New("roster unavailable")
	// ErrNoImageRecognized is returned when every image of an upload failed OCR.
	ErrNoImageRecognized = errors.New("no image could be recognized")
)
