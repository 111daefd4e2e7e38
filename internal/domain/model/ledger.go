package model

import (
	"slices"
	"time"
)

// EventKey identifies one ledger row: an event, a player and a calendar day.
type EventKey struct {
	EventName  string
	PlayerName string
	DayKey     string
}

// DayKey truncates t to its calendar day in t's location.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// EventRecord is the durable consensus result for one player in one event on one day.
// VerificationCount always equals len(VerifiedSessionIDs).
type EventRecord struct {
	ID                  string
	EventName           string
	EventType           string
	EventDate           time.Time
	DayKey              string
	PlayerName          string
	PlayerID            *string // nil for ghost players
	Rank                *int
	RankInferred        bool
	Score               *int64
	OCRConfidence       float64
	ImageSource         string
	ProcessingSessionID string
	VerificationCount   int
	VerifiedSessionIDs  []string // sorted, unique
	DataConfidence      float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Key returns the ledger key of r.
func (r *EventRecord) Key() EventKey {
	return EventKey{EventName: r.EventName, PlayerName: r.PlayerName, DayKey: r.DayKey}
}

// Ghost reports whether r is not linked to a roster entry.
func (r *EventRecord) Ghost() bool {
	return r.PlayerID == nil || *r.PlayerID == "" || *r.PlayerID == UnmatchedPlayerID
}

// HasSession reports whether session already verified r.
func (r *EventRecord) HasSession(session string) bool {
	_, found := slices.BinarySearch(r.VerifiedSessionIDs, session)
	return found
}

// AddSession inserts session into the verified set, keeping it sorted.
// It returns false when the session was already present.
func (r *EventRecord) AddSession(session string) bool {
	i, found := slices.BinarySearch(r.VerifiedSessionIDs, session)
	if found {
		return false
	}
	r.VerifiedSessionIDs = slices.Insert(r.VerifiedSessionIDs, i, session)
	r.VerificationCount = len(r.VerifiedSessionIDs)
	return true
}

// Clone returns a deep copy of r.
func (r *EventRecord) Clone() *EventRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.PlayerID != nil {
		id := *r.PlayerID
		c.PlayerID = &id
	}
	if r.Rank != nil {
		c.Rank = IntPtr(*r.Rank)
	}
	if r.Score != nil {
		c.Score = Int64Ptr(*r.Score)
	}
	c.VerifiedSessionIDs = slices.Clone(r.VerifiedSessionIDs)
	return &c
}

// NameMapping remembers what an observed OCR name resolved to.
type NameMapping struct {
	ObservedName string
	PlayerID     string // roster id or UnmatchedPlayerID
	Confidence   float64
	FirstSeen    time.Time
	LastSeen     time.Time
	TimesSeen    int
}

// Matched reports whether the mapping points at a roster entry.
func (m NameMapping) Matched() bool {
	return m.PlayerID != "" && m.PlayerID != UnmatchedPlayerID
}

// Observe folds one more sighting into m. A zero m becomes a new mapping.
// A matched id is never replaced by the unmatched sentinel; a different
// matched id only wins with a strictly higher confidence.
func (m *NameMapping) Observe(playerID string, confidence float64, at time.Time) {
	if playerID == "" {
		playerID = UnmatchedPlayerID
	}
	if m.TimesSeen == 0 {
		m.PlayerID = playerID
		m.Confidence = confidence
		m.FirstSeen = at
		m.LastSeen = at
		m.TimesSeen = 1
		return
	}

	m.TimesSeen++
	if at.After(m.LastSeen) {
		m.LastSeen = at
	}

	incomingMatched := playerID != UnmatchedPlayerID
	switch {
	case !m.Matched() && incomingMatched:
		m.PlayerID = playerID
		m.Confidence = confidence
	case m.PlayerID == playerID:
		m.Confidence = max(m.Confidence, confidence)
	case m.Matched() && incomingMatched && confidence > m.Confidence:
		m.PlayerID = playerID
		m.Confidence = confidence
	}
}

// Attendance statuses.
const (
	AttendancePresent = "present"
)

// EventSessionKey groups repeated uploads of one real event: name plus day.
func EventSessionKey(eventName string, date time.Time) string {
	return eventName + "_" + date.Format("20060102")
}

// AttendanceEntry marks a roster player as present at an event session.
type AttendanceEntry struct {
	PlayerID        string
	EventSessionKey string
	EventName       string
	EventDate       time.Time
	PlayerName      string
	Score           *int64
	Status          string
	MarkedAt        time.Time
	MarkedBy        string
}
