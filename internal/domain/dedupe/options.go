package dedupe

import "github.com/okian/rollcall/internal/domain/similarity"

// Option applies a configuration option to the session deduper.
type Option func(*sessionSet)

// WithMaxSize sets the maximum number of session ids to remember.
// If maxSize > 0: bounded mode, oldest id evicted first.
// If maxSize <= 0: unbounded mode.
func WithMaxSize(maxSize int) Option {
	return func(d *sessionSet) {
		d.maxSize = maxSize
	}
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithThresholds replaces the similarity and score thresholds.
func WithThresholds(t Thresholds) ResolverOption {
	return func(r *Resolver) {
		r.th = t
	}
}

// WithSimilarity replaces the name similarity function.
func WithSimilarity(fn similarity.Func) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.sim = fn
		}
	}
}
