package ocr

import "errors"

var (
	// ErrEngineUnavailable is returned when the binary was built without Tesseract.
	ErrEngineUnavailable = errors.New("ocr engine unavailable: built without cgo")
	// ErrUnreadableImage is returned when image bytes cannot be decoded.
	ErrUnreadableImage = errors.New("unreadable image")
)
