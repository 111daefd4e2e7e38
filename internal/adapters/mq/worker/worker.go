// Package worker runs queued uploads through the pipeline.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/rollcall/internal/adapters/mq/queue"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/pipeline"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Processor runs one upload.
type Processor interface {
	ProcessUpload(ctx context.Context, up model.Upload) (pipeline.UploadResult, error)
}

// Recorder is told when a job starts and how it ended.
type Recorder interface {
	Started(ctx context.Context, jobID string)
	Finished(ctx context.Context, jobID string, res pipeline.UploadResult, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

type nopRecorder struct{}

func (nopRecorder) Started(context.Context, string)                                 {}
func (nopRecorder) Finished(context.Context, string, pipeline.UploadResult, error) {}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	recorder  Recorder
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		recorder:  nopRecorder{},
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "upload failed", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam: jobs travel by value through the channel
	w.recorder.Started(ctx, job.ID)
	w.logger.Info(ctx, "upload started",
		logger.String("job_id", job.ID),
		logger.String("session_id", job.Upload.SessionID),
		logger.Int("images", len(job.Upload.Images)),
		logger.Duration("waited", time.Since(job.SubmittedAt)))

	res, err := w.processor.ProcessUpload(ctx, job.Upload)
	w.recorder.Finished(ctx, job.ID, res, err)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "upload_failed")
		return fmt.Errorf("process upload %s: %w", job.ID, err)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers (at least one) sharing q and p.
func NewPool(workerCount int, q Queue, p Processor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	probe := &InMemoryWorker{logger: logger.Discard()}
	for _, opt := range opts {
		opt(probe)
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  probe.logger.Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, p, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain what is already queued,
// and waits for them until ctx or the pool timeout expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
