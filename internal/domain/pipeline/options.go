package pipeline

import (
	"time"

	"github.com/okian/rollcall/internal/domain/consensus"
	"github.com/okian/rollcall/internal/domain/dedupe"
	"github.com/okian/rollcall/internal/domain/extract"
	"github.com/okian/rollcall/internal/domain/naming"
	"github.com/okian/rollcall/pkg/logger"
)

// Option configures a Processor.
type Option func(*Processor)

// WithExtractor replaces the default record extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(p *Processor) {
		if e != nil {
			p.extractor = e
		}
	}
}

// WithResolver replaces the default duplicate resolver.
func WithResolver(r *dedupe.Resolver) Option {
	return func(p *Processor) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithIndexOptions configures the roster index built for each upload.
func WithIndexOptions(opts ...naming.IndexOption) Option {
	return func(p *Processor) {
		p.indexOpts = append(p.indexOpts, opts...)
	}
}

// WithPolicy sets the consensus policy.
func WithPolicy(policy consensus.Policy) Option {
	return func(p *Processor) {
		p.policy = policy
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock sets the time source used for timestamps and latency.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}
