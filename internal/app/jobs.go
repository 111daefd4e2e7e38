package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/pipeline"
	"github.com/okian/rollcall/internal/domain/types"
)

// jobRegistry remembers upload jobs for status queries. When full, the
// oldest finished job is forgotten first.
type jobRegistry struct {
	mu         sync.Mutex
	jobs       map[string]*types.UploadStatus
	sessions   map[string]string // session id -> job id
	order      []string
	maxTracked int

	// release forgets a session so a failed upload can be submitted again.
	release func(ctx context.Context, session string)
}

func newJobRegistry(maxTracked int) *jobRegistry {
	if maxTracked <= 0 {
		maxTracked = 10_000
	}
	return &jobRegistry{
		jobs:       make(map[string]*types.UploadStatus),
		sessions:   make(map[string]string),
		maxTracked: maxTracked,
	}
}

func (r *jobRegistry) add(job model.UploadJob) { //nolint:gocritic // hugeParam: copied once per submission
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.ID] = &types.UploadStatus{
		JobID:       job.ID,
		SessionID:   job.Upload.SessionID,
		EventName:   job.Upload.EventName,
		Images:      len(job.Upload.Images),
		Status:      types.JobQueued,
		SubmittedAt: job.SubmittedAt,
	}
	r.sessions[job.Upload.SessionID] = job.ID
	r.order = append(r.order, job.ID)
	r.evict()
}

// evict must be called with r.mu held.
func (r *jobRegistry) evict() {
	for i := 0; len(r.jobs) > r.maxTracked && i < len(r.order); {
		id := r.order[i]
		st, ok := r.jobs[id]
		if ok && (st.Status == types.JobQueued || st.Status == types.JobRunning) {
			i++
			continue
		}
		if ok {
			delete(r.sessions, st.SessionID)
			delete(r.jobs, id)
		}
		r.order = append(r.order[:i], r.order[i+1:]...)
	}
}

func (r *jobRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.jobs[id]; ok {
		delete(r.sessions, st.SessionID)
		delete(r.jobs, id)
	}
}

func (r *jobRegistry) get(id string) (types.UploadStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok {
		return types.UploadStatus{}, false
	}
	return *st, true
}

func (r *jobRegistry) bySession(session string) (types.UploadStatus, bool) {
	r.mu.Lock()
	id, ok := r.sessions[session]
	r.mu.Unlock()
	if !ok {
		return types.UploadStatus{SessionID: session, Status: types.JobDone}, false
	}
	return r.get(id)
}

func (r *jobRegistry) counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int{types.JobQueued: 0, types.JobRunning: 0, types.JobDone: 0, types.JobFailed: 0}
	for _, st := range r.jobs {
		out[st.Status]++
	}
	return out
}

// Started implements worker.Recorder.
func (r *jobRegistry) Started(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.jobs[id]; ok {
		now := time.Now()
		st.Status = types.JobRunning
		st.StartedAt = &now
	}
}

// Finished implements worker.Recorder.
func (r *jobRegistry) Finished(ctx context.Context, id string, res pipeline.UploadResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok {
		return
	}
	now := time.Now()
	st.FinishedAt = &now
	if err != nil {
		st.Status = types.JobFailed
		st.Error = err.Error()
		if r.release != nil {
			r.release(ctx, st.SessionID)
		}
		return
	}
	sum := res.Summary()
	st.Status = types.JobDone
	st.Result = &sum
}
