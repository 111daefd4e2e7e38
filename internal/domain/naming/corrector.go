package naming

import (
	"context"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

// MappingStore persists what observed OCR names resolved to.
type MappingStore interface {
	// ObserveName folds one sighting into the mapping for observed
	// (see model.NameMapping.Observe) and returns the stored mapping.
	ObserveName(ctx context.Context, observed, playerID string, confidence float64, at time.Time) (model.NameMapping, error)
}

// Summary counts the outcome of one correction batch.
type Summary struct {
	Matched       int
	Unmatched     int
	Corrections   int // records whose name differs from the raw OCR text
	MappingErrors int
}

// Corrector applies roster corrections to records and records name mappings.
type Corrector struct {
	mappings MappingStore
	log      logger.Logger
	now      func() time.Time
}

// CorrectorOption configures a Corrector.
type CorrectorOption func(*Corrector)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) CorrectorOption {
	return func(c *Corrector) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock sets the time source for mapping timestamps.
func WithClock(now func() time.Time) CorrectorOption {
	return func(c *Corrector) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCorrector creates a Corrector. A nil store skips mapping writes.
func NewCorrector(mappings MappingStore, opts ...CorrectorOption) *Corrector {
	c := &Corrector{mappings: mappings, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply corrects every record in place against ix. Each record is handled
// independently; a failed mapping write is logged and counted, never fatal.
func (c *Corrector) Apply(ctx context.Context, ix *Index, records []model.PlayerRecord) Summary {
	var sum Summary
	at := c.now()

	for i := range records {
		r := &records[i]
		res := ix.Correct(r.RawName)

		r.Name = res.Cleaned
		r.CorrectedName = res.Corrected
		r.AllianceTag = res.Tag
		r.PlayerID = res.PlayerID
		r.MatchConfidence = res.Confidence()

		if res.Matched {
			sum.Matched++
		} else {
			sum.Unmatched++
		}
		if res.Corrected != r.RawName {
			sum.Corrections++
			c.log.Debug(ctx, "name corrected",
				logger.String("raw", r.RawName),
				logger.String("corrected", res.Corrected),
				logger.Float64("similarity", res.Similarity),
				logger.Bool("matched", res.Matched))
		}

		if c.mappings == nil {
			continue
		}
		if _, err := c.mappings.ObserveName(ctx, r.RawName, res.PlayerID, res.Confidence(), at); err != nil {
			sum.MappingErrors++
			c.log.Warn(ctx, "name mapping not saved",
				logger.String("observed", r.RawName),
				logger.Error(err))
		}
	}
	return sum
}
