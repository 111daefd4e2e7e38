package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/metrics"
)

type attendanceKey struct {
	playerID   string
	sessionKey string
}

// MemoryStore is an in-process Store. A single mutex serializes writers,
// so per-key upserts are atomic.
type MemoryStore struct {
	mu         sync.RWMutex
	events     map[model.EventKey]*model.EventRecord
	mappings   map[string]model.NameMapping
	attendance map[attendanceKey]model.AttendanceEntry
	roster     map[string]model.RosterEntry
	closed     bool
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore{
		events:     make(map[model.EventKey]*model.EventRecord),
		mappings:   make(map[string]model.NameMapping),
		attendance: make(map[attendanceKey]model.AttendanceEntry),
		roster:     make(map[string]model.RosterEntry),
	}
	for _, e := range o.roster {
		s.roster[e.PlayerID] = e
	}
	return s
}

// UpsertEventRecord implements consensus.Store.
func (s *MemoryStore) UpsertEventRecord(_ context.Context, key model.EventKey, mutate func(*model.EventRecord) (*model.EventRecord, error)) (*model.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	existing := s.events[key]
	next, err := mutate(existing.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, ErrNilRecord
	}
	if next.Key() != key {
		return nil, fmt.Errorf("%w: %+v", ErrKeyMismatch, key)
	}
	if next.ID == "" {
		if existing != nil {
			next.ID = existing.ID
		} else {
			next.ID = uuid.NewString()
		}
	}
	s.events[key] = next.Clone()
	metrics.UpdateLedgerRows(len(s.events))
	return next, nil
}

// ListEventRecords implements Store.
func (s *MemoryStore) ListEventRecords(_ context.Context, f EventFilter) ([]*model.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.EventRecord, 0, len(s.events))
	for _, r := range s.events {
		if f.match(r) {
			out = append(out, r.Clone())
		}
	}
	slices.SortFunc(out, compareRecords)
	return out, nil
}

func compareRecords(a, b *model.EventRecord) int {
	if c := cmp.Compare(a.EventName, b.EventName); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DayKey, b.DayKey); c != 0 {
		return c
	}
	return cmp.Compare(a.PlayerName, b.PlayerName)
}

// ObserveName implements naming.MappingStore.
func (s *MemoryStore) ObserveName(_ context.Context, observed, playerID string, confidence float64, at time.Time) (model.NameMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.NameMapping{}, ErrStoreClosed
	}

	m := s.mappings[observed]
	m.ObservedName = observed
	m.Observe(playerID, confidence, at)
	s.mappings[observed] = m
	return m, nil
}

// NameMapping implements Store.
func (s *MemoryStore) NameMapping(_ context.Context, observed string) (model.NameMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mappings[observed]
	if !ok {
		return model.NameMapping{}, ErrNotFound
	}
	return m, nil
}

// UpsertAttendance implements attendance.Store.
func (s *MemoryStore) UpsertAttendance(_ context.Context, playerID, sessionKey string, mutate func(*model.AttendanceEntry) *model.AttendanceEntry) (*model.AttendanceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	k := attendanceKey{playerID: playerID, sessionKey: sessionKey}
	var existing *model.AttendanceEntry
	if e, ok := s.attendance[k]; ok {
		existing = &e
	}
	next := mutate(existing)
	if next == nil {
		return nil, ErrNilRecord
	}
	if next.PlayerID != playerID || next.EventSessionKey != sessionKey {
		return nil, fmt.Errorf("%w: %s/%s", ErrKeyMismatch, playerID, sessionKey)
	}
	s.attendance[k] = *next
	return next, nil
}

// ListAttendance implements Store.
func (s *MemoryStore) ListAttendance(_ context.Context, sessionKey string) ([]model.AttendanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AttendanceEntry, 0)
	for k, e := range s.attendance {
		if sessionKey == "" || k.sessionKey == sessionKey {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.AttendanceEntry) int {
		if c := cmp.Compare(a.EventSessionKey, b.EventSessionKey); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	return out, nil
}

// ListRoster implements Store.
func (s *MemoryStore) ListRoster(_ context.Context) ([]model.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RosterEntry, 0, len(s.roster))
	for _, e := range s.roster {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b model.RosterEntry) int { return cmp.Compare(a.PlayerID, b.PlayerID) })
	return out, nil
}

// PutRoster implements Store.
func (s *MemoryStore) PutRoster(_ context.Context, entries []model.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.roster[e.PlayerID] = e
	}
	return nil
}

// Counts implements Store.
func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		EventRecords: int64(len(s.events)),
		NameMappings: int64(len(s.mappings)),
		Attendance:   int64(len(s.attendance)),
		Roster:       int64(len(s.roster)),
	}, nil
}

// Close marks the store closed; later writes fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
