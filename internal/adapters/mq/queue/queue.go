// Package queue holds uploads waiting for a worker.
//
// Screenshot uploads are few and heavy, so the queue is a small bounded
// channel that rejects work when full instead of blocking the submitter.
package queue

import (
	"context"
	"sync"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/metrics"
)

const defaultQueueCapacity = 256

// Job is the payload type flowing through the queue.
type Job = model.UploadJob

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job, or returns ErrFull or ErrClosed without blocking.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that receives jobs until the queue is
	// closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of waiting jobs.
	Len() int

	// Capacity returns the maximum number of waiting jobs.
	Capacity() int

	// Close stops accepting jobs. Jobs already queued are still delivered.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: jobs travel by value through the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.jobs))
				select {
				case out <- j:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}
