//go:build !cgo

package ocr

// Available reports whether this build can run Tesseract.
func Available() bool { return false }

func (t *Tesseract) words([]byte) ([]Word, error) {
	return nil, ErrEngineUnavailable
}
