// Package consensus merges upload results into the per-event ledger and
// tracks how many independent sessions agreed on each row.
package consensus

import (
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/similarity"
)

// Policy holds the agreement and confidence constants.
type Policy struct {
	// AgreementTolerance is the largest absolute score difference still
	// counted as the same reading.
	AgreementTolerance int64
	ConfidenceStep     float64
	MaxConfidence      float64
}

// DefaultPolicy returns tolerance 1000, step 0.2, cap 2.0.
func DefaultPolicy() Policy {
	return Policy{AgreementTolerance: 1000, ConfidenceStep: 0.2, MaxConfidence: 2.0}
}

// Confidence is min(MaxConfidence, 1 + step*(count-1)), rounded to 2 decimals.
func (p Policy) Confidence(count int) float64 {
	if count < 1 {
		count = 1
	}
	return similarity.Round2(min(p.MaxConfidence, 1+p.ConfidenceStep*float64(count-1)))
}

// Meta identifies the upload an observation came from.
type Meta struct {
	SessionID string
	EventName string
	EventType string
	EventDate time.Time
}

// Key returns the ledger key rec is filed under.
func (m Meta) Key(rec model.PlayerRecord) model.EventKey {
	return model.EventKey{
		EventName:  m.EventName,
		PlayerName: rec.DisplayName(),
		DayKey:     model.DayKey(m.EventDate),
	}
}

// Change describes what a merge did to the ledger row.
type Change struct {
	Created  bool
	Verified bool
	Improved bool
}

// Unchanged reports a merge that left the row as it was.
func (c Change) Unchanged() bool { return !c.Created && !c.Verified && !c.Improved }

// Merge folds one observation into the stored row. existing is not
// modified; the returned row is the new state. A nil existing creates the row.
func Merge(existing *model.EventRecord, meta Meta, rec model.PlayerRecord, p Policy, now time.Time) (*model.EventRecord, Change) {
	if existing == nil {
		return create(meta, rec, p, now), Change{Created: true}
	}

	out := existing.Clone()
	var ch Change

	if agrees(out, rec, p) && out.AddSession(meta.SessionID) {
		out.DataConfidence = p.Confidence(out.VerificationCount)
		ch.Verified = true
	}

	if rec.Score != nil && (out.Score == nil || *rec.Score > *out.Score) {
		out.Score = model.Int64Ptr(*rec.Score)
		ch.Improved = true
	}
	if betterRank(out, rec) {
		out.Rank = model.IntPtr(*rec.Rank)
		out.RankInferred = rec.RankInferred
		ch.Improved = true
	}
	if rec.Confidence > out.OCRConfidence {
		out.OCRConfidence = rec.Confidence
		out.ImageSource = rec.SourceImage
		ch.Improved = true
	}
	if out.Ghost() && rec.Matched() {
		id := rec.PlayerID
		out.PlayerID = &id
		ch.Improved = true
	}

	if !ch.Unchanged() {
		out.UpdatedAt = now
	}
	return out, ch
}

func create(meta Meta, rec model.PlayerRecord, p Policy, now time.Time) *model.EventRecord {
	key := meta.Key(rec)
	out := &model.EventRecord{
		EventName:           key.EventName,
		EventType:           meta.EventType,
		EventDate:           meta.EventDate,
		DayKey:              key.DayKey,
		PlayerName:          key.PlayerName,
		RankInferred:        rec.RankInferred,
		OCRConfidence:       rec.Confidence,
		ImageSource:         rec.SourceImage,
		ProcessingSessionID: meta.SessionID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if rec.Matched() {
		id := rec.PlayerID
		out.PlayerID = &id
	}
	if rec.Rank != nil {
		out.Rank = model.IntPtr(*rec.Rank)
	}
	if rec.Score != nil {
		out.Score = model.Int64Ptr(*rec.Score)
	}
	out.AddSession(meta.SessionID)
	out.DataConfidence = p.Confidence(out.VerificationCount)
	return out
}

// agrees: scores within tolerance, or equal ranks, each only when both sides have a value.
func agrees(stored *model.EventRecord, rec model.PlayerRecord, p Policy) bool {
	if stored.Score != nil && rec.Score != nil {
		d := *stored.Score - *rec.Score
		if d < 0 {
			d = -d
		}
		if d <= p.AgreementTolerance {
			return true
		}
	}
	return stored.Rank != nil && rec.Rank != nil && *stored.Rank == *rec.Rank
}

// betterRank decides whether rec's rank replaces the stored one. A read rank
// is never replaced by an inferred one; a read rank replaces an inferred one;
// otherwise the lower rank wins.
func betterRank(stored *model.EventRecord, rec model.PlayerRecord) bool {
	if rec.Rank == nil {
		return false
	}
	if stored.Rank == nil {
		return true
	}
	switch {
	case rec.RankInferred && !stored.RankInferred:
		return false
	case !rec.RankInferred && stored.RankInferred:
		return true
	default:
		return *rec.Rank < *stored.Rank
	}
}
