package naming

import (
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/similarity"
)

// DefaultMatchThreshold is the minimum similarity for a roster match.
const DefaultMatchThreshold = 75.0

// Result is the outcome of correcting one name.
type Result struct {
	Cleaned    string  // OCR name after bracket repair
	Corrected  string  // "[tag]nickname" when matched, otherwise Cleaned
	Tag        string  // alliance tag as detected
	PlayerID   string  // roster id or model.UnmatchedPlayerID
	Nickname   string  // matched roster nickname
	Similarity float64 // 0..100
	Matched    bool
}

// Confidence is the similarity on the 0..1 scale.
func (r Result) Confidence() float64 { return r.Similarity / 100 }

type indexEntry struct {
	entry model.RosterEntry
	bare  string // nickname with any tag removed
	full  string // tagged nickname, empty when the roster stores none
}

// Index is the roster prepared for fuzzy lookups. Build one per batch.
type Index struct {
	entries   []indexEntry
	sim       similarity.Func
	threshold float64
	cleaner   Cleaner
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithMatchThreshold sets the minimum accepted similarity (0..100).
func WithMatchThreshold(t float64) IndexOption {
	return func(ix *Index) { ix.threshold = t }
}

// WithScorer replaces the similarity function.
func WithScorer(fn similarity.Func) IndexOption {
	return func(ix *Index) {
		if fn != nil {
			ix.sim = fn
		}
	}
}

// WithCleaner sets the name cleaner applied before matching.
func WithCleaner(c Cleaner) IndexOption {
	return func(ix *Index) { ix.cleaner = c }
}

// NewIndex prepares roster for lookups.
func NewIndex(roster []model.RosterEntry, opts ...IndexOption) *Index {
	ix := &Index{sim: similarity.Ratio, threshold: DefaultMatchThreshold}
	for _, opt := range opts {
		opt(ix)
	}
	ix.entries = make([]indexEntry, 0, len(roster))
	for _, e := range roster {
		if e.PlayerID == "" || e.Nickname == "" {
			continue
		}
		ie := indexEntry{entry: e, bare: e.Nickname}
		if _, bare, ok := ParseTag(e.Nickname); ok {
			ie.bare, ie.full = bare, e.Nickname
		}
		ix.entries = append(ix.entries, ie)
	}
	return ix
}

// Len is the number of usable roster entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Correct resolves an OCR name against the roster. The name part (tag
// removed) is compared with every bare nickname, and the full cleaned name
// with every tagged nickname. The best score wins; ties keep roster order.
func (ix *Index) Correct(name string) Result {
	cleaned := ix.cleaner.Clean(name)
	tag, bare, _ := ParseTag(cleaned)

	res := Result{
		Cleaned:   cleaned,
		Corrected: cleaned,
		Tag:       tag,
		PlayerID:  model.UnmatchedPlayerID,
	}
	if bare == "" {
		return res
	}

	best, bestScore := -1, 0.0
	for i, e := range ix.entries {
		score := ix.sim(bare, e.bare)
		if e.full != "" {
			score = max(score, ix.sim(cleaned, e.full))
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < ix.threshold {
		res.Similarity = bestScore
		return res
	}

	e := ix.entries[best]
	res.Matched = true
	res.PlayerID = e.entry.PlayerID
	res.Nickname = e.bare
	res.Similarity = bestScore
	switch {
	case tag != "":
		res.Corrected = WithTag(tag, e.bare)
	case e.full != "":
		res.Corrected = e.full
	default:
		res.Corrected = e.bare
	}
	return res
}
