// Package types contains the read-model shapes served by the API.
package types

import "time"

// PlayerResult is one player row of an event detail, ranked by score.
type PlayerResult struct {
	CalculatedRank    int     `json:"calculated_rank"`
	PlayerName        string  `json:"player_name"`
	AllianceTag       string  `json:"alliance_tag,omitempty"`
	PlayerID          string  `json:"player_id"`
	Matched           bool    `json:"is_matched"`
	Rank              *int    `json:"rank,omitempty"`
	RankInferred      bool    `json:"rank_inferred"`
	Score             *int64  `json:"score,omitempty"`
	OCRConfidence     float64 `json:"ocr_confidence"`
	VerificationCount int     `json:"verification_count"`
	DataConfidence    float64 `json:"data_confidence"`
	ImageSource       string  `json:"image_source,omitempty"`
}

// EventDetail is every player of one event on one day.
type EventDetail struct {
	EventName  string         `json:"event_name"`
	EventType  string         `json:"event_type,omitempty"`
	Day        string         `json:"day"`
	Players    []PlayerResult `json:"players"`
	TotalScore int64          `json:"total_score"`
	Matched    int            `json:"matched"`
	Ghosts     int            `json:"ghosts"`
}

// GhostPlayer aggregates the ledger rows of one unmatched name.
type GhostPlayer struct {
	PlayerName      string    `json:"player_name"`
	AllianceTag     string    `json:"alliance_tag,omitempty"`
	Appearances     int       `json:"appearances"`
	TotalScore      int64     `json:"total_score"`
	BestScore       *int64    `json:"best_score,omitempty"`
	BestRank        *int      `json:"best_rank,omitempty"`
	AvgVerification float64   `json:"avg_verification"`
	LastSeen        time.Time `json:"last_seen"`
	Events          []string  `json:"events"`
}

// TopPlayer aggregates a player's score across events.
type TopPlayer struct {
	PlayerName      string  `json:"player_name"`
	AllianceTag     string  `json:"alliance_tag,omitempty"`
	PlayerID        string  `json:"player_id"`
	TotalScore      int64   `json:"total_score"`
	EventCount      int     `json:"event_count"`
	BestRank        *int    `json:"best_rank,omitempty"`
	AvgVerification float64 `json:"avg_verification"`
}

// VerificationStats summarizes how well the ledger is corroborated.
type VerificationStats struct {
	TotalRecords  int     `json:"total_records"`
	High          int     `json:"high_confidence"`   // 3+ sessions
	Medium        int     `json:"medium_confidence"` // 2 sessions
	Low           int     `json:"low_confidence"`    // 1 session
	AvgConfidence float64 `json:"avg_confidence"`
}

// RecordSummary is one processed player record of an upload.
type RecordSummary struct {
	RawName         string  `json:"raw_name"`
	CorrectedName   string  `json:"corrected_name"`
	PlayerID        string  `json:"player_id"`
	MatchConfidence float64 `json:"match_confidence"`
	Rank            *int    `json:"rank,omitempty"`
	RankInferred    bool    `json:"rank_inferred"`
	Score           *int64  `json:"score,omitempty"`
	SourceImage     string  `json:"source_image"`
}

// LedgerSummary counts ledger upsert outcomes of one upload.
type LedgerSummary struct {
	Created   int      `json:"created"`
	Verified  int      `json:"verified"`
	Improved  int      `json:"improved"`
	Unchanged int      `json:"unchanged"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// UploadSummary is the outcome of processing one upload session.
type UploadSummary struct {
	SessionID           string          `json:"session_id"`
	EventName           string          `json:"event_name"`
	EventDate           time.Time       `json:"event_date"`
	ImagesProcessed     int             `json:"images_processed"`
	ImagesFailed        int             `json:"images_failed"`
	RecordsExtracted    int             `json:"records_extracted"`
	DuplicatesRemoved   int             `json:"duplicates_removed"`
	RanksInferred       int             `json:"ranks_inferred"`
	CorrectionsMade     int             `json:"corrections_made"`
	Matched             []RecordSummary `json:"matched"`
	Unmatched           []RecordSummary `json:"unmatched"`
	Ledger              LedgerSummary   `json:"ledger"`
	AttendanceMarked    int             `json:"attendance_marked"`
	AttendanceRefreshed int             `json:"attendance_refreshed"`
	DurationMs          int64           `json:"duration_ms"`
}

// Upload job states.
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// UploadStatus tracks one submitted upload through the queue.
type UploadStatus struct {
	JobID       string         `json:"job_id"`
	SessionID   string         `json:"session_id"`
	EventName   string         `json:"event_name"`
	Images      int            `json:"images"`
	Status      string         `json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
	Result      *UploadSummary `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}
