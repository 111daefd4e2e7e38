package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Normalize decodes any supported screenshot format, applies its EXIF
// orientation, and re-encodes it as PNG for the recognizer.
func Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
