// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Flat koanf keys; env vars are the upper-cased key with the ROLLCALL_ prefix.
// - New() returns the defaults; Load layers a YAML file and the environment on top.
// - Errors returned from this package wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Store drivers understood by the service bootstrap.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxUploadBytes caps the size of one multipart upload request.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// UploadQueueSize bounds the in-memory upload queue.
	UploadQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of upload workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the initial capacity of the session-id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects the ledger backend: memory or postgres.
	StoreDriver string `koanf:"store_driver"`

	// DatabaseDSN is the PostgreSQL connection string for the postgres driver.
	DatabaseDSN string `koanf:"database_dsn"`

	// AutoMigrate creates/updates the ledger tables on startup.
	AutoMigrate bool `koanf:"auto_migrate"`

	// RosterFile is an optional YAML roster; when empty the store's roster table is used.
	RosterFile string `koanf:"roster_file"`

	// OCRLanguage is the tesseract language code.
	OCRLanguage string `koanf:"ocr_language"`

	// OCRWordGap is the max horizontal gap between words of one phrase, in word heights.
	OCRWordGap float64 `koanf:"ocr_word_gap"`

	// Extraction geometry.
	NameMinConfidence float64 `koanf:"name_min_confidence"`
	MaxRank           int     `koanf:"max_rank"`
	RankLineTolerance float64 `koanf:"rank_line_tolerance"`
	ScoreWindow       float64 `koanf:"score_window"`
	StickyFraction    float64 `koanf:"sticky_fraction"`
	FragmentGap       float64 `koanf:"fragment_gap"`

	// Duplicate resolution.
	DupExactSimilarity  float64 `koanf:"dup_exact_similarity"`
	DupStrongSimilarity float64 `koanf:"dup_strong_similarity"`
	DupWeakSimilarity   float64 `koanf:"dup_weak_similarity"`
	DupScoreTolerance   float64 `koanf:"dup_score_tolerance"`

	// Name matching. AllianceTags lists tags whose bracket misreads are repaired
	// (e.g. "[DOAJ" -> "[DOA]"); env form is comma separated.
	MatchThreshold float64  `koanf:"match_threshold"`
	AllianceTags   []string `koanf:"alliance_tags"`

	// Consensus.
	AgreementTolerance int64   `koanf:"agreement_tolerance"`
	ConfidenceStep     float64 `koanf:"confidence_step"`
	MaxDataConfidence  float64 `koanf:"max_data_confidence"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		MaxUploadBytes:  64 << 20,
		UploadQueueSize: 256,
		WorkerCount:     1,
		DedupeSize:      10_000,
		StoreDriver:     StoreMemory,
		AutoMigrate:     true,
		OCRLanguage:     "eng",
		OCRWordGap:      1.0,

		NameMinConfidence: 0.6,
		MaxRank:           50,
		RankLineTolerance: 50,
		ScoreWindow:       100,
		StickyFraction:    0.8,
		FragmentGap:       200,

		DupExactSimilarity:  95,
		DupStrongSimilarity: 85,
		DupWeakSimilarity:   70,
		DupScoreTolerance:   0.01,

		MatchThreshold: 75,

		AgreementTolerance: 1000,
		ConfidenceStep:     0.2,
		MaxDataConfidence:  2.0,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "addr must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "max_upload_bytes must be positive")
	}
	if c.UploadQueueSize <= 0 {
		problems = append(problems, "queue_size must be positive")
	}
	if c.WorkerCount <= 0 {
		problems = append(problems, "worker_count must be positive")
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseDSN == "" {
			problems = append(problems, "database_dsn is required for the postgres store")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store_driver %q", c.StoreDriver))
	}
	if c.NameMinConfidence < 0 || c.NameMinConfidence > 1 {
		problems = append(problems, "name_min_confidence must be within [0,1]")
	}
	if c.MaxRank < 1 {
		problems = append(problems, "max_rank must be at least 1")
	}
	if c.StickyFraction <= 0 || c.StickyFraction > 1 {
		problems = append(problems, "sticky_fraction must be within (0,1]")
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"dup_exact_similarity", c.DupExactSimilarity},
		{"dup_strong_similarity", c.DupStrongSimilarity},
		{"dup_weak_similarity", c.DupWeakSimilarity},
		{"match_threshold", c.MatchThreshold},
	} {
		if p.v < 0 || p.v > 100 {
			problems = append(problems, p.name+" must be within [0,100]")
		}
	}
	if c.DupScoreTolerance < 0 {
		problems = append(problems, "dup_score_tolerance must not be negative")
	}
	if c.AgreementTolerance < 0 {
		problems = append(problems, "agreement_tolerance must not be negative")
	}
	if c.MaxDataConfidence < 1 || c.MaxDataConfidence > 2 {
		problems = append(problems, "max_data_confidence must be within [1,2]")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
