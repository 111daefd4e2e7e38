package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/rollcall/internal/domain/model"
)

// Layout holds the screen-geometry rules of one results screen design.
// Swap it to support a different screenshot layout.
type Layout interface {
	// StickyLine returns the y coordinate below which a name's bottom edge
	// marks a sticky card. names holds only the detections accepted as names.
	StickyLine(names []model.Detection) float64
	// Rank returns the rank number shown next to name, if any.
	Rank(name model.Detection, dets []model.Detection) *int
	// Score returns the score from the caption under name, if any.
	Score(name model.Detection, dets []model.Detection) *int64
	// Fragment returns the index of a detection continuing name on the same line, or -1.
	Fragment(name model.Detection, dets []model.Detection) int
}

// StandardLayout is the ranked result list: rank number on the left, tagged
// name, "Damage Points: N" caption underneath, and a sticky own-result card
// pinned to the bottom.
type StandardLayout struct {
	MaxRank           int
	RankLineTolerance float64 // max |top difference| between rank and name
	ScoreWindow       float64 // caption must start within this distance below the name
	StickyFraction    float64 // names ending below this fraction of the content height are sticky
	FragmentGap       float64 // max gap between name end and a trailing fragment
	FragmentLine      float64 // max |top difference| for a trailing fragment
}

// DefaultLayout returns the layout rules used by the live game screens.
func DefaultLayout() StandardLayout {
	return StandardLayout{
		MaxRank:           50,
		RankLineTolerance: 50,
		ScoreWindow:       100,
		StickyFraction:    0.8,
		FragmentGap:       200,
		FragmentLine:      30,
	}
}

var (
	digitsOnly = regexp.MustCompile(`^\d+$`)
	numberRun  = regexp.MustCompile(`[\d,]+`)
)

// fragmentOverlap lets a fragment start slightly left of the name's right edge.
const fragmentOverlap = 10

// StickyLine is StickyFraction of the lowest name bottom in the image.
func (l StandardLayout) StickyLine(names []model.Detection) float64 {
	maxBottom := 0.0
	for _, d := range names {
		maxBottom = max(maxBottom, d.Box.Bottom)
	}
	return maxBottom * l.StickyFraction
}

// Rank picks the first digit-only detection in 1..MaxRank on the name's line
// that ends left of the name.
func (l StandardLayout) Rank(name model.Detection, dets []model.Detection) *int {
	for _, d := range dets {
		text := strings.TrimSpace(d.Text)
		if !digitsOnly.MatchString(text) {
			continue
		}
		v, err := strconv.Atoi(text)
		if err != nil || v < 1 || v > l.MaxRank {
			continue
		}
		if math.Abs(d.Box.Top-name.Box.Top) < l.RankLineTolerance && d.Box.Right < name.Box.Left {
			return model.IntPtr(v)
		}
	}
	return nil
}

// Score reads the last number of the first damage/point caption that starts
// after the name's top and before ScoreWindow past its bottom.
func (l StandardLayout) Score(name model.Detection, dets []model.Detection) *int64 {
	for _, d := range dets {
		if !isCaption(d.Text) {
			continue
		}
		if d.Box.Top <= name.Box.Top || d.Box.Top >= name.Box.Bottom+l.ScoreWindow {
			continue
		}
		return parseScore(d.Text)
	}
	return nil
}

// Fragment finds the first non-numeric, non-caption, non-name detection that
// starts where the name ends on the same line.
func (l StandardLayout) Fragment(name model.Detection, dets []model.Detection) int {
	for i, d := range dets {
		text := strings.TrimSpace(d.Text)
		if text == "" || d == name || digitsOnly.MatchString(text) || isCaption(text) {
			continue
		}
		if strings.HasPrefix(text, "[") {
			continue
		}
		if math.Abs(d.Box.Top-name.Box.Top) >= l.FragmentLine {
			continue
		}
		if d.Box.Left >= name.Box.Right-fragmentOverlap && d.Box.Left < name.Box.Right+l.FragmentGap {
			return i
		}
	}
	return -1
}

func isCaption(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "damage") || strings.Contains(t, "point")
}

// parseScore returns the last digit/comma run of text as an integer, or nil
// when it does not parse.
func parseScore(text string) *int64 {
	runs := numberRun.FindAllString(text, -1)
	if len(runs) == 0 {
		return nil
	}
	digits := strings.ReplaceAll(runs[len(runs)-1], ",", "")
	if digits == "" {
		return nil
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return model.Int64Ptr(v)
}
