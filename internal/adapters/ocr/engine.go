// Package ocr wraps the Tesseract recognizer and turns its word boxes into
// phrase detections.
package ocr

import (
	"context"
	"sync"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

// Tesseract recognizes screenshots. One gosseract client is reused under a
// mutex since the underlying API handle is not safe for concurrent use.
type Tesseract struct {
	mu       sync.Mutex
	language string
	wordGap  float64
	log      logger.Logger
	client   closer
}

type closer interface {
	Close() error
}

// New constructs an engine. The native client is created lazily on first use.
func New(opts ...Option) *Tesseract {
	t := &Tesseract{
		language: "eng",
		wordGap:  1.0,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Recognize returns the phrase detections of img, tagged with its name.
func (t *Tesseract) Recognize(ctx context.Context, img model.Image) ([]model.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := Normalize(img.Data)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	words, err := t.words(data)
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	dets := Group(words, t.wordGap, img.Name)
	t.log.Debug(ctx, "image recognized",
		logger.String("image", img.Name),
		logger.Int("words", len(words)),
		logger.Int("phrases", len(dets)))
	return dets, nil
}

// Close releases the native client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
