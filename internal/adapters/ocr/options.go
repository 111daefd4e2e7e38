package ocr

import "github.com/okian/rollcall/pkg/logger"

// Option configures a Tesseract engine.
type Option func(*Tesseract)

// WithLanguage sets the Tesseract language (default "eng").
func WithLanguage(lang string) Option {
	return func(t *Tesseract) {
		if lang != "" {
			t.language = lang
		}
	}
}

// WithWordGap sets the maximum horizontal gap between two words of one
// phrase, as a multiple of the word height.
func WithWordGap(factor float64) Option {
	return func(t *Tesseract) {
		if factor > 0 {
			t.wordGap = factor
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tesseract) {
		if l != nil {
			t.log = l
		}
	}
}
