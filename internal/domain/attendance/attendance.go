// Package attendance marks roster players present at the events they appear in.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

// MarkedBy is recorded on entries created from screenshots.
const MarkedBy = "ocr"

// Store holds attendance entries keyed by (player id, event session key).
type Store interface {
	// UpsertAttendance runs mutate on the entry under the key (nil when
	// absent) while holding that key exclusively, and persists the result.
	UpsertAttendance(ctx context.Context, playerID, sessionKey string, mutate func(existing *model.AttendanceEntry) *model.AttendanceEntry) (*model.AttendanceEntry, error)
}

// Report counts the outcome of one Project call.
type Report struct {
	Marked    int // new entries
	Refreshed int // existing entries touched again
	Skipped   int // ghost rows
	Failed    int
	Errors    []error
}

// Merge folds a ledger row into the existing entry. The higher score is kept
// and the mark time always refreshes.
func Merge(existing *model.AttendanceEntry, row *model.EventRecord, now time.Time) *model.AttendanceEntry {
	if existing == nil {
		e := &model.AttendanceEntry{
			PlayerID:        *row.PlayerID,
			EventSessionKey: model.EventSessionKey(row.EventName, row.EventDate),
			EventName:       row.EventName,
			EventDate:       row.EventDate,
			PlayerName:      row.PlayerName,
			Status:          model.AttendancePresent,
			MarkedAt:        now,
			MarkedBy:        MarkedBy,
		}
		if row.Score != nil {
			e.Score = model.Int64Ptr(*row.Score)
		}
		return e
	}

	e := *existing
	if row.Score != nil && (e.Score == nil || *row.Score > *e.Score) {
		e.Score = model.Int64Ptr(*row.Score)
		e.PlayerName = row.PlayerName
	}
	e.MarkedAt = now
	return &e
}

// Projector derives attendance from ledger rows.
type Projector struct {
	store Store
	log   logger.Logger
	now   func() time.Time
}

// Option configures a Projector.
type Option func(*Projector)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Projector) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock sets the time source for mark timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Projector) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProjector creates a Projector over store.
func NewProjector(store Store, opts ...Option) *Projector {
	p := &Projector{store: store, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project marks every matched row present. Ghost rows are skipped.
func (p *Projector) Project(ctx context.Context, rows []*model.EventRecord) Report {
	var rep Report
	now := p.now()

	for _, row := range rows {
		if row == nil || row.Ghost() {
			rep.Skipped++
			continue
		}
		key := model.EventSessionKey(row.EventName, row.EventDate)
		created := false
		_, err := p.store.UpsertAttendance(ctx, *row.PlayerID, key, func(existing *model.AttendanceEntry) *model.AttendanceEntry {
			created = existing == nil
			return Merge(existing, row, now)
		})
		if err != nil {
			rep.Failed++
			rep.Errors = append(rep.Errors, fmt.Errorf("attendance %s/%s: %w", *row.PlayerID, key, err))
			p.log.Error(ctx, "attendance upsert failed",
				logger.String("player_id", *row.PlayerID),
				logger.String("session_key", key),
				logger.Error(err))
			continue
		}
		if created {
			rep.Marked++
		} else {
			rep.Refreshed++
		}
	}
	return rep
}
