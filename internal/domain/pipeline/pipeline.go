// Package pipeline runs one upload through recognition, extraction,
// duplicate resolution, rank inference, name correction, consensus and
// attendance.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rollcall/internal/domain/attendance"
	"github.com/okian/rollcall/internal/domain/consensus"
	"github.com/okian/rollcall/internal/domain/dedupe"
	"github.com/okian/rollcall/internal/domain/extract"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/naming"
	"github.com/okian/rollcall/internal/domain/rank"
	"github.com/okian/rollcall/internal/domain/types"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Engine recognizes text in one screenshot.
type Engine interface {
	Recognize(ctx context.Context, img model.Image) ([]model.Detection, error)
}

// RosterSource lists the known players.
type RosterSource interface {
	ListRoster(ctx context.Context) ([]model.RosterEntry, error)
}

// Store is every ledger table the pipeline writes.
type Store interface {
	consensus.Store
	attendance.Store
	naming.MappingStore
}

// UploadResult is the outcome of ProcessUpload.
type UploadResult struct {
	SessionID string
	EventName string
	EventDate time.Time

	ImagesProcessed  int
	ImagesFailed     int
	RecordsExtracted int
	Duplicates       dedupe.Stats
	RanksInferred    int

	Matched         []model.PlayerRecord
	Unmatched       []model.PlayerRecord
	CorrectionsMade int
	MappingErrors   int

	Ledger     consensus.Report
	Attendance attendance.Report
	Rows       []*model.EventRecord
	Duration   time.Duration
}

// Processor is the upload pipeline. Collaborators are built once and
// reused across uploads; ProcessUpload is safe for concurrent use as long
// as the engine is.
type Processor struct {
	engine    Engine
	roster    RosterSource
	store     Store
	extractor *extract.Extractor
	resolver  *dedupe.Resolver
	indexOpts []naming.IndexOption
	policy    consensus.Policy
	log       logger.Logger
	now       func() time.Time

	corrector  *naming.Corrector
	aggregator *consensus.Aggregator
	projector  *attendance.Projector
}

// New wires a Processor.
func New(engine Engine, roster RosterSource, store Store, opts ...Option) *Processor {
	p := &Processor{
		engine:    engine,
		roster:    roster,
		store:     store,
		extractor: extract.New(),
		resolver:  dedupe.NewResolver(),
		policy:    consensus.DefaultPolicy(),
		log:       logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.corrector = naming.NewCorrector(store,
		naming.WithLogger(p.log.Named("naming")),
		naming.WithClock(p.now))
	p.aggregator = consensus.NewAggregator(store,
		consensus.WithPolicy(p.policy),
		consensus.WithLogger(p.log.Named("consensus")),
		consensus.WithClock(p.now))
	p.projector = attendance.NewProjector(store,
		attendance.WithLogger(p.log.Named("attendance")),
		attendance.WithClock(p.now))
	return p
}

// ProcessUpload runs every stage for one upload session. Image failures
// are skipped; ledger and attendance failures are counted in the result.
// An error is returned only when nothing could be written.
func (p *Processor) ProcessUpload(ctx context.Context, up model.Upload) (UploadResult, error) {
	start := p.now()
	if err := up.Validate(); err != nil {
		metrics.RecordUploadFailed()
		return UploadResult{}, err
	}
	if up.SessionID == "" {
		up.SessionID = uuid.NewString()
	}
	res := UploadResult{SessionID: up.SessionID, EventName: up.EventName, EventDate: up.EventDate}

	roster, err := p.roster.ListRoster(ctx)
	if err != nil {
		metrics.RecordUploadFailed()
		metrics.RecordErrorByComponent("pipeline", "roster")
		return res, fmt.Errorf("%w: %w", ErrRosterUnavailable, err)
	}

	records, err := p.recognize(ctx, up, &res)
	if err != nil {
		metrics.RecordUploadFailed()
		return res, err
	}

	records, res.Duplicates = p.resolver.Resolve(records)
	metrics.AddDuplicatesRemoved("exact", res.Duplicates.Exact)
	metrics.AddDuplicatesRemoved("fuzzy", res.Duplicates.Fuzzy)

	records, res.RanksInferred = rank.Infer(records)
	metrics.AddRanksInferred(res.RanksInferred)

	ix := naming.NewIndex(roster, p.indexOpts...)
	sum := p.corrector.Apply(ctx, ix, records)
	res.CorrectionsMade = sum.Corrections
	res.MappingErrors = sum.MappingErrors
	for _, r := range records {
		if r.Matched() {
			res.Matched = append(res.Matched, r)
			metrics.RecordNameResolved("matched")
		} else {
			res.Unmatched = append(res.Unmatched, r)
			metrics.RecordNameResolved("unmatched")
		}
	}
	metrics.AddNameCorrections(sum.Corrections)

	meta := consensus.Meta{SessionID: up.SessionID, EventName: up.EventName, EventType: up.EventType, EventDate: up.EventDate}
	res.Ledger, res.Rows = p.aggregator.Apply(ctx, meta, records)
	metrics.AddLedgerOutcome("created", res.Ledger.Created)
	metrics.AddLedgerOutcome("verified", res.Ledger.Verified)
	metrics.AddLedgerOutcome("improved", res.Ledger.Improved)
	metrics.AddLedgerOutcome("unchanged", res.Ledger.Unchanged)
	metrics.AddLedgerOutcome("failed", res.Ledger.Failed)

	res.Attendance = p.projector.Project(ctx, res.Rows)
	metrics.AddAttendanceMarked(res.Attendance.Marked + res.Attendance.Refreshed)

	res.Duration = p.now().Sub(start)
	metrics.RecordUploadProcessed(float64(res.Duration.Milliseconds()))
	p.log.Info(ctx, "upload processed",
		logger.String("session_id", res.SessionID),
		logger.String("event", res.EventName),
		logger.Int("images", res.ImagesProcessed),
		logger.Int("images_failed", res.ImagesFailed),
		logger.Int("records", len(records)),
		logger.Int("matched", len(res.Matched)),
		logger.Int("unmatched", len(res.Unmatched)),
		logger.Int("corrections", res.CorrectionsMade),
		logger.String("ledger", res.Ledger.String()),
		logger.Duration("took", res.Duration))
	return res, nil
}

// recognize runs OCR and extraction image by image. Extraction is per
// image because sticky lines and rank neighbours are image-local.
func (p *Processor) recognize(ctx context.Context, up model.Upload, res *UploadResult) ([]model.PlayerRecord, error) {
	var records []model.PlayerRecord
	for _, img := range up.Images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dets, err := p.engine.Recognize(ctx, img)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			res.ImagesFailed++
			metrics.RecordImageFailed()
			p.log.Warn(ctx, "image skipped",
				logger.String("session_id", up.SessionID),
				logger.String("image", img.Name),
				logger.Error(err))
			continue
		}
		for i := range dets {
			dets[i].SourceImage = img.Name
		}
		res.ImagesProcessed++
		metrics.RecordImageProcessed()

		extracted := p.extractor.Extract(dets)
		p.log.Debug(ctx, "records extracted",
			logger.String("image", img.Name),
			logger.Int("detections", len(dets)),
			logger.Int("records", len(extracted)))
		records = append(records, extracted...)
	}
	if res.ImagesProcessed == 0 {
		return nil, ErrNoImageRecognized
	}
	res.RecordsExtracted = len(records)
	metrics.AddRecordsExtracted(len(records))
	return records, nil
}

// Summary converts r into its API shape.
func (r UploadResult) Summary() types.UploadSummary {
	s := types.UploadSummary{
		SessionID:         r.SessionID,
		EventName:         r.EventName,
		EventDate:         r.EventDate,
		ImagesProcessed:   r.ImagesProcessed,
		ImagesFailed:      r.ImagesFailed,
		RecordsExtracted:  r.RecordsExtracted,
		DuplicatesRemoved: r.Duplicates.Removed(),
		RanksInferred:     r.RanksInferred,
		CorrectionsMade:   r.CorrectionsMade,
		Matched:           summarize(r.Matched),
		Unmatched:         summarize(r.Unmatched),
		Ledger: types.LedgerSummary{
			Created:   r.Ledger.Created,
			Verified:  r.Ledger.Verified,
			Improved:  r.Ledger.Improved,
			Unchanged: r.Ledger.Unchanged,
			Failed:    r.Ledger.Failed,
		},
		AttendanceMarked:    r.Attendance.Marked,
		AttendanceRefreshed: r.Attendance.Refreshed,
		DurationMs:          r.Duration.Milliseconds(),
	}
	for _, err := range r.Ledger.Errors {
		s.Ledger.Errors = append(s.Ledger.Errors, err.Error())
	}
	return s
}

func summarize(records []model.PlayerRecord) []types.RecordSummary {
	out := make([]types.RecordSummary, len(records))
	for i, r := range records {
		out[i] = types.RecordSummary{
			RawName:         r.RawName,
			CorrectedName:   r.DisplayName(),
			PlayerID:        r.PlayerID,
			MatchConfidence: r.MatchConfidence,
			Rank:            r.Rank,
			RankInferred:    r.RankInferred,
			Score:           r.Score,
			SourceImage:     r.SourceImage,
		}
	}
	return out
}
