// Package similarity scores how alike two OCR strings are on a 0..100 scale.
package similarity

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Func scores two strings in [0,100]. Stages take a Func so tests can pin scores.
type Func func(a, b string) float64

// Ratio is the normalized indel similarity 100*(1 - dist/(len(a)+len(b))),
// computed through the longest common subsequence. Comparison ignores case
// and surrounding whitespace. Two empty strings are identical.
func Ratio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	if a == b {
		return 100
	}
	lcs := edlib.LCS(a, b)
	return 200 * float64(lcs) / float64(total)
}

// Round2 rounds v to two decimals, for logging and persisted confidences.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
