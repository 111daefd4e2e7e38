// Package extract turns the OCR detections of one screenshot into player records.
package extract

import (
	"regexp"
	"strings"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/naming"
)

// nameFormat is the in-game display name: a 2 to 4 character alliance tag in
// brackets followed by the nickname.
var nameFormat = regexp.MustCompile(`^\[[A-Za-z0-9]{2,4}\][A-Za-z0-9]`)

// DefaultMinConfidence is the OCR confidence a name must exceed.
const DefaultMinConfidence = 0.6

// Extractor builds PlayerRecords from one image's detections. It is pure:
// the same detections always give the same records.
type Extractor struct {
	layout  Layout
	cleaner naming.Cleaner
	minConf float64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLayout replaces the screen geometry rules.
func WithLayout(l Layout) Option {
	return func(e *Extractor) {
		if l != nil {
			e.layout = l
		}
	}
}

// WithCleaner sets the name cleaner used before the format check.
func WithCleaner(c naming.Cleaner) Option {
	return func(e *Extractor) { e.cleaner = c }
}

// WithMinConfidence sets the minimum name confidence.
func WithMinConfidence(c float64) Option {
	return func(e *Extractor) { e.minConf = c }
}

// New creates an Extractor with the standard layout.
func New(opts ...Option) *Extractor {
	e := &Extractor{layout: DefaultLayout(), minConf: DefaultMinConfidence}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the player records found in dets, in detection order.
// Detections that do not look like player names are skipped as noise.
func (e *Extractor) Extract(dets []model.Detection) []model.PlayerRecord {
	var names []model.Detection
	for _, d := range dets {
		if d.Confidence > e.minConf && nameFormat.MatchString(e.cleaner.Clean(d.Text)) {
			names = append(names, d)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sticky := e.layout.StickyLine(names)

	out := make([]model.PlayerRecord, 0, len(names))
	for _, d := range names {
		raw := strings.TrimSpace(d.Text)
		if i := e.layout.Fragment(d, dets); i >= 0 {
			raw += " " + strings.TrimSpace(dets[i].Text)
		}

		out = append(out, model.PlayerRecord{
			RawName:          raw,
			Name:             e.cleaner.Clean(raw),
			Rank:             e.layout.Rank(d, dets),
			Score:            e.layout.Score(d, dets),
			Confidence:       d.Confidence,
			SourceImage:      d.SourceImage,
			VerticalPosition: d.Box.Top,
			Sticky:           d.Box.Bottom > sticky,
		})
	}
	return out
}
