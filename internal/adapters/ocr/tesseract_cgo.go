//go:build cgo

package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/okian/rollcall/internal/domain/model"
)

// Available reports whether this build can run Tesseract.
func Available() bool { return true }

// words must be called with t.mu held.
func (t *Tesseract) words(png []byte) ([]Word, error) {
	if t.client == nil {
		c := gosseract.NewClient()
		if err := c.SetLanguage(t.language); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set language %q: %w", t.language, err)
		}
		t.client = c
	}
	client := t.client.(*gosseract.Client)

	if err := client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			Confidence: b.Confidence,
			Box: model.Box{
				Left:   float64(b.Box.Min.X),
				Top:    float64(b.Box.Min.Y),
				Right:  float64(b.Box.Max.X),
				Bottom: float64(b.Box.Max.Y),
			},
			Block: b.BlockNum,
			Par:   b.ParNum,
			Line:  b.LineNum,
		})
	}
	return words, nil
}
