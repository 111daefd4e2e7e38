package consensus

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

// Store is the ledger as seen by the aggregator.
type Store interface {
	// UpsertEventRecord runs mutate on the row stored under key (nil when
	// absent) while holding that key exclusively, and persists the result.
	// mutate may be called more than once if the store retries.
	UpsertEventRecord(ctx context.Context, key model.EventKey, mutate func(existing *model.EventRecord) (*model.EventRecord, error)) (*model.EventRecord, error)
}

// Report counts the outcome of one Apply. A row can be both verified and improved.
type Report struct {
	Succeeded int
	Created   int
	Verified  int
	Improved  int
	Unchanged int
	Failed    int
	Errors    []error
}

func (r Report) String() string {
	return fmt.Sprintf("succeeded=%d created=%d verified=%d improved=%d unchanged=%d failed=%d",
		r.Succeeded, r.Created, r.Verified, r.Improved, r.Unchanged, r.Failed)
}

// Aggregator writes upload results into the ledger one record at a time, so
// a failure never undoes rows already merged from the same upload.
type Aggregator struct {
	store  Store
	policy Policy
	log    logger.Logger
	now    func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPolicy sets the agreement and confidence constants.
func WithPolicy(p Policy) Option {
	return func(a *Aggregator) { a.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClock sets the time source for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an Aggregator over store.
func NewAggregator(store Store, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, policy: DefaultPolicy(), log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply merges records into the ledger and returns the report together with
// the rows as persisted, in input order, skipping failures.
func (a *Aggregator) Apply(ctx context.Context, meta Meta, records []model.PlayerRecord) (Report, []*model.EventRecord) {
	var rep Report
	saved := make([]*model.EventRecord, 0, len(records))
	now := a.now()

	for _, rec := range records {
		key := meta.Key(rec)
		var ch Change
		row, err := a.store.UpsertEventRecord(ctx, key, func(existing *model.EventRecord) (*model.EventRecord, error) {
			var next *model.EventRecord
			next, ch = Merge(existing, meta, rec, a.policy, now)
			return next, nil
		})
		if err != nil {
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Errorf("upsert %s/%s/%s: %w", key.EventName, key.PlayerName, key.DayKey, err))
			a.log.Error(ctx, "ledger upsert failed",
				logger.String("event", key.EventName),
				logger.String("player", key.PlayerName),
				logger.String("day", key.DayKey),
				logger.Error(err))
			continue
		}

		rep.Succeeded++
		switch {
		case ch.Created:
			rep.Created++
		case ch.Unchanged():
			rep.Unchanged++
		}
		if ch.Verified {
			rep.Verified++
		}
		if ch.Improved {
			rep.Improved++
		}
		a.log.Debug(ctx, "ledger row merged",
			logger.String("player", key.PlayerName),
			logger.Bool("created", ch.Created),
			logger.Bool("verified", ch.Verified),
			logger.Bool("improved", ch.Improved),
			logger.Int("verification_count", row.VerificationCount))
		saved = append(saved, row)
	}
	return rep, saved
}
