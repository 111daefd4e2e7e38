package model

// UnmatchedPlayerID marks a name that has no roster match (a ghost player).
const UnmatchedPlayerID = "0000000000"

// PlayerRecord is one candidate result row for a player, built from a single
// image and refined in place by the pipeline stages.
type PlayerRecord struct {
	RawName         string // OCR text, trailing fragments joined
	Name            string // RawName with bracket misreads fixed
	CorrectedName   string // empty until names are corrected
	AllianceTag     string
	PlayerID        string // roster id, UnmatchedPlayerID, or empty before correction
	MatchConfidence float64

	Rank         *int
	RankInferred bool
	Score        *int64

	Confidence       float64
	SourceImage      string
	VerticalPosition float64
	Sticky           bool
}

// DisplayName is the best name known so far.
func (r PlayerRecord) DisplayName() string {
	switch {
	case r.CorrectedName != "":
		return r.CorrectedName
	case r.Name != "":
		return r.Name
	default:
		return r.RawName
	}
}

// Matched reports whether the record is linked to a roster entry.
func (r PlayerRecord) Matched() bool {
	return r.PlayerID != "" && r.PlayerID != UnmatchedPlayerID
}

// RosterEntry is a known community member. A nickname may carry an alliance tag.
type RosterEntry struct {
	PlayerID string `koanf:"id" json:"id"`
	Nickname string `koanf:"nickname" json:"nickname"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
