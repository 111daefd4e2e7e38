// Package dedupe removes repeated work: duplicate player records within an
// upload, and repeated submissions of the same upload session.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen upload session ids so each session is processed at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the session can be resubmitted, e.g. after the
	// queue rejected it.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// sessionSet is a Deduper over a map plus an insertion-order ring.
// When bounded, the oldest session id is evicted first.
type sessionSet struct {
	mu      sync.Mutex
	seen    map[string]int // id -> slot in order, -1 when unbounded
	order   []string       // ring of ids; "" marks a freed slot
	next    int
	maxSize int
}

// NewSessionDeduper creates an in-memory session deduper.
func NewSessionDeduper(opts ...Option) Deduper {
	d := &sessionSet{maxSize: 50_000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.order = make([]string, d.maxSize)
	}
	return d
}

func (d *sessionSet) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}

	if old := d.order[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.order[d.next] = id
	d.seen[id] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *sessionSet) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.order[slot] = ""
	}
}

func (d *sessionSet) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
