// Package repository persists the ledger: event records, name mappings,
// attendance, and the roster they are matched against.
package repository

import (
	"context"

	"github.com/okian/rollcall/internal/domain/attendance"
	"github.com/okian/rollcall/internal/domain/consensus"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/naming"
)

// EventFilter narrows ListEventRecords. Zero fields match everything.
type EventFilter struct {
	EventName  string
	DayKey     string
	SessionID  string // rows verified by this upload session
	GhostsOnly bool
}

func (f EventFilter) match(r *model.EventRecord) bool {
	switch {
	case f.EventName != "" && r.EventName != f.EventName:
		return false
	case f.DayKey != "" && r.DayKey != f.DayKey:
		return false
	case f.SessionID != "" && !r.HasSession(f.SessionID):
		return false
	case f.GhostsOnly && !r.Ghost():
		return false
	}
	return true
}

// Counts is the size of each ledger table.
type Counts struct {
	EventRecords int64 `json:"event_records"`
	NameMappings int64 `json:"name_mappings"`
	Attendance   int64 `json:"attendance"`
	Roster       int64 `json:"roster"`
}

// Store provides read/write access to the ledger. Every upsert serializes
// writers of the same key.
type Store interface {
	consensus.Store
	attendance.Store
	naming.MappingStore

	// ListEventRecords returns rows matching f ordered by event, day, player.
	ListEventRecords(ctx context.Context, f EventFilter) ([]*model.EventRecord, error)
	// NameMapping returns the mapping for observed or ErrNotFound.
	NameMapping(ctx context.Context, observed string) (model.NameMapping, error)
	// ListAttendance returns the entries of one event session key, or all when empty.
	ListAttendance(ctx context.Context, sessionKey string) ([]model.AttendanceEntry, error)
	// ListRoster returns the roster ordered by player id.
	ListRoster(ctx context.Context) ([]model.RosterEntry, error)
	// PutRoster inserts or replaces roster entries.
	PutRoster(ctx context.Context, entries []model.RosterEntry) error

	Counts(ctx context.Context) (Counts, error)
	Close() error
}
