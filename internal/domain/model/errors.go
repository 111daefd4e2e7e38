package model

import "errors"

// Sentinel errors for upload validation.
var (
	ErrInvalidUpload = errors.New("invalid upload")
	ErrNoImages      = errors.New("upload has no images")
)
