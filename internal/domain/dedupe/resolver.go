package dedupe

import (
	"cmp"
	"slices"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/similarity"
)

// Thresholds decide when two records describe the same player.
// Similarities are on the 0..100 scale; ScoreTolerance is relative (0.01 == 1%).
type Thresholds struct {
	Exact          float64
	Strong         float64
	Weak           float64
	ScoreTolerance float64
}

// DefaultThresholds returns 95 / 85 / 70 and a 1% score tolerance.
func DefaultThresholds() Thresholds {
	return Thresholds{Exact: 95, Strong: 85, Weak: 70, ScoreTolerance: 0.01}
}

// Stats describes what a Resolve call removed.
type Stats struct {
	Input  int
	Output int
	Exact  int // dropped by identical name
	Fuzzy  int // dropped by a fuzzy rule
	Sticky int // dropped records that were sticky cards
}

// Removed is the total number of dropped records.
func (s Stats) Removed() int { return s.Exact + s.Fuzzy }

// Resolver collapses records of the same player within one upload.
type Resolver struct {
	th  Thresholds
	sim similarity.Func
}

// NewResolver creates a Resolver with default thresholds and similarity.Ratio.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{th: DefaultThresholds(), sim: similarity.Ratio}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns one record per distinct player.
//
// Records are visited in preference order (see Prefer), so every record is
// compared against survivors that already beat it; a record that matches
// any survivor is dropped whole. Survivors are pairwise distinct, which makes
// Resolve idempotent, and the visit order depends only on record contents,
// never on input order.
func (r *Resolver) Resolve(records []model.PlayerRecord) ([]model.PlayerRecord, Stats) {
	stats := Stats{Input: len(records)}

	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, compare)

	kept := make([]model.PlayerRecord, 0, len(ordered))
	for _, rec := range ordered {
		dup, exact := false, false
		for _, s := range kept {
			if same, isExact := r.match(s, rec); same {
				dup, exact = true, isExact
				break
			}
		}
		if !dup {
			kept = append(kept, rec)
			continue
		}
		if exact {
			stats.Exact++
		} else {
			stats.Fuzzy++
		}
		if rec.Sticky {
			stats.Sticky++
		}
	}

	stats.Output = len(kept)
	return kept, stats
}

// SamePlayer reports whether a and b describe the same player.
func (r *Resolver) SamePlayer(a, b model.PlayerRecord) bool {
	same, _ := r.match(a, b)
	return same
}

func (r *Resolver) match(a, b model.PlayerRecord) (same, exact bool) {
	na, nb := a.DisplayName(), b.DisplayName()
	if na == nb {
		return true, true
	}

	sim := r.sim(na, nb)
	switch {
	case sim >= r.th.Exact:
		return true, false
	case sim >= r.th.Strong && (ranksAdjacent(a, b) || r.scoresClose(a, b)):
		return true, false
	case sim >= r.th.Weak && ranksEqual(a, b) && r.scoresClose(a, b):
		return true, false
	}
	return false, false
}

// readRank returns a rank read from the screen; inferred ranks do not count.
func readRank(p model.PlayerRecord) (int, bool) {
	if p.Rank == nil || p.RankInferred {
		return 0, false
	}
	return *p.Rank, true
}

func ranksAdjacent(a, b model.PlayerRecord) bool {
	ra, okA := readRank(a)
	rb, okB := readRank(b)
	if !okA || !okB {
		return false
	}
	d := ra - rb
	return d >= -1 && d <= 1
}

func ranksEqual(a, b model.PlayerRecord) bool {
	ra, okA := readRank(a)
	rb, okB := readRank(b)
	return okA && okB && ra == rb
}

// scoresClose is true when both scores exist and differ by less than the
// relative tolerance of the larger one.
func (r *Resolver) scoresClose(a, b model.PlayerRecord) bool {
	if a.Score == nil || b.Score == nil {
		return false
	}
	sa, sb := *a.Score, *b.Score
	if sa == sb {
		return true
	}
	hi := max(abs(sa), abs(sb))
	return float64(abs(sa-sb))/float64(hi) < r.th.ScoreTolerance
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Prefer reports whether a should survive over b: non-sticky first, then
// higher confidence, then a stable content order.
func Prefer(a, b model.PlayerRecord) bool {
	return compare(a, b) < 0
}

func compare(a, b model.PlayerRecord) int {
	if a.Sticky != b.Sticky {
		if !a.Sticky {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SourceImage, b.SourceImage); c != 0 {
		return c
	}
	if c := cmp.Compare(a.VerticalPosition, b.VerticalPosition); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DisplayName(), b.DisplayName()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RawName, b.RawName); c != 0 {
		return c
	}
	if c := cmpPtr(a.Rank, b.Rank); c != 0 {
		return c
	}
	return cmpPtr(a.Score, b.Score)
}

// cmpPtr orders present values before absent ones.
func cmpPtr[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}
