// Package service wires the ledger, OCR engine, pipeline, upload queue and
// workers, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rollcall/internal/adapters/mq/queue"
	"github.com/okian/rollcall/internal/adapters/mq/worker"
	"github.com/okian/rollcall/internal/adapters/ocr"
	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/adapters/roster"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/dedupe"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/pipeline"
	"github.com/okian/rollcall/internal/domain/report"
	"github.com/okian/rollcall/internal/domain/types"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Service implements the API dependencies for the ingestion service.
type Service struct {
	mu  sync.RWMutex
	cfg *config.Config

	store     repository.Store
	engine    pipeline.Engine
	rosterSrc pipeline.RosterSource
	processor *pipeline.Processor
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	jobs      *jobRegistry

	started bool
	logger  logger.Logger
}

// New constructs a Service from cfg. Nothing is opened until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:    cfg,
		jobs:   newJobRegistry(cfg.DedupeSize),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, loads the roster, and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting rollcall service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.cfg, repository.WithLogger(s.logger.Named("repository")))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}
	s.logger.Info(ctx, "ledger store ready", logger.String("driver", s.cfg.StoreDriver))

	if err := s.loadRoster(ctx); err != nil {
		return err
	}

	if s.engine == nil {
		if !ocr.Available() {
			s.logger.Warn(ctx, "built without cgo; uploads will fail until an OCR engine is available")
		}
		s.engine = ocr.New(
			ocr.WithLanguage(s.cfg.OCRLanguage),
			ocr.WithWordGap(s.cfg.OCRWordGap),
			ocr.WithLogger(s.logger.Named("ocr")),
		)
	}

	s.processor = pipeline.New(s.engine, s.store, s.store, PipelineOptions(s.cfg, s.logger)...)
	s.deduper = dedupe.NewSessionDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))
	s.jobs.release = s.deduper.Unrecord
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.UploadQueueSize))
	s.pool = worker.NewPool(s.cfg.WorkerCount, s.queue, s.processor,
		worker.WithLogger(s.logger),
		worker.WithRecorder(s.jobs))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rollcall service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.cfg.UploadQueueSize),
		logger.Int("dedupeSize", s.cfg.DedupeSize))
	return nil
}

// loadRoster copies the external roster, if any, into the store, which is
// the roster the pipeline reads.
func (s *Service) loadRoster(ctx context.Context) error {
	src := s.rosterSrc
	if src == nil && s.cfg.RosterFile != "" {
		src = roster.NewFileSource(s.cfg.RosterFile)
	}
	if src == nil {
		return nil
	}
	entries, err := src.ListRoster(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if err := s.store.PutRoster(ctx, entries); err != nil {
		return fmt.Errorf("store roster: %w", err)
	}
	s.logger.Info(ctx, "roster loaded", logger.Int("players", len(entries)))
	return nil
}

// Stop drains the queue, stops the workers, and closes the store and engine.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping rollcall service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if c, ok := s.engine.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close engine: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "rollcall service stopped")
	return errors.Join(errs...)
}

// Submit queues an upload. A session id already submitted returns the
// original job with duplicate set. A full queue returns queue.ErrFull.
func (s *Service) Submit(ctx context.Context, up model.Upload) (types.UploadStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.UploadStatus{}, false, ErrNotStarted
	}

	if err := up.Validate(); err != nil {
		return types.UploadStatus{}, false, err
	}
	if up.SessionID == "" {
		up.SessionID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, up.SessionID) {
		metrics.RecordUploadDuplicate()
		st, _ := s.jobs.bySession(up.SessionID)
		s.logger.Debug(ctx, "duplicate upload session", logger.String("session_id", up.SessionID))
		return st, true, nil
	}

	job := model.UploadJob{ID: uuid.NewString(), Upload: up, SubmittedAt: time.Now()}
	s.jobs.add(job)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, up.SessionID)
		s.jobs.remove(job.ID)
		return types.UploadStatus{}, false, err
	}
	st, _ := s.jobs.get(job.ID)
	return st, false, nil
}

// Process runs an upload synchronously, bypassing the queue.
func (s *Service) Process(ctx context.Context, up model.Upload) (pipeline.UploadResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return pipeline.UploadResult{}, ErrNotStarted
	}
	return s.processor.ProcessUpload(ctx, up)
}

// Job returns the status of a submitted upload.
func (s *Service) Job(_ context.Context, id string) (types.UploadStatus, error) {
	st, ok := s.jobs.get(id)
	if !ok {
		return types.UploadStatus{}, ErrJobNotFound
	}
	return st, nil
}

// Ghosts lists unmatched players across the ledger. Best ranks are
// calculated against every player of each event, so all rows are read.
func (s *Service) Ghosts(ctx context.Context) ([]types.GhostPlayer, error) {
	rows, err := s.rows(ctx, repository.EventFilter{})
	if err != nil {
		return nil, err
	}
	return report.Ghosts(rows), nil
}

// EventDetail returns every player of one event on one day (YYYY-MM-DD).
func (s *Service) EventDetail(ctx context.Context, eventName, day string) (types.EventDetail, error) {
	rows, err := s.rows(ctx, repository.EventFilter{EventName: eventName, DayKey: day})
	if err != nil {
		return types.EventDetail{}, err
	}
	if len(rows) == 0 {
		return types.EventDetail{}, fmt.Errorf("event %s on %s: %w", eventName, day, repository.ErrNotFound)
	}
	return report.EventDetail(rows), nil
}

// TopPlayers ranks players by total score across events.
func (s *Service) TopPlayers(ctx context.Context, limit int) ([]types.TopPlayer, error) {
	rows, err := s.rows(ctx, repository.EventFilter{})
	if err != nil {
		return nil, err
	}
	return report.TopPlayers(rows, limit), nil
}

// Verification summarizes how well the ledger is corroborated.
func (s *Service) Verification(ctx context.Context) (types.VerificationStats, error) {
	rows, err := s.rows(ctx, repository.EventFilter{})
	if err != nil {
		return types.VerificationStats{}, err
	}
	return report.Verification(rows), nil
}

func (s *Service) rows(ctx context.Context, f repository.EventFilter) ([]*model.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store.ListEventRecords(ctx, f)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"storeDriver": s.cfg.StoreDriver,
		"ocrEnabled":  ocr.Available(),
		"jobs":        s.jobs.counts(),
	}
	if !s.started {
		return stats
	}

	stats["workerCount"] = s.pool.Size()
	stats["queueLength"] = s.queue.Len()
	stats["queueCapacity"] = s.queue.Capacity()
	stats["sessionsSeen"] = s.deduper.Size()
	metrics.UpdateQueueSize(s.queue.Len())

	if c, err := s.store.Counts(context.Background()); err == nil {
		stats["ledger"] = c
	} else {
		s.logger.Warn(context.Background(), "ledger counts unavailable", logger.Error(err))
	}
	return stats
}
