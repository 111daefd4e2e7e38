// Package rank fills in ranks the OCR did not read, using on-screen order.
package rank

import (
	"cmp"
	"slices"

	"github.com/okian/rollcall/internal/domain/model"
)

// Infer sorts records by (source image, vertical position) and fills each
// missing rank from its neighbours in one top-down pass: a ranked predecessor
// R gives R+1, otherwise a successor R gives R-1 when that is at least 1. A
// rank filled earlier in the pass anchors the next record, so a run of
// unread ranks below a read one is filled completely. It returns the sorted
// records and the number of ranks filled in.
func Infer(records []model.PlayerRecord) ([]model.PlayerRecord, int) {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.PlayerRecord) int {
		if c := cmp.Compare(a.SourceImage, b.SourceImage); c != 0 {
			return c
		}
		return cmp.Compare(a.VerticalPosition, b.VerticalPosition)
	})

	inferred := 0
	for i := range out {
		if out[i].Rank != nil {
			continue
		}
		var guess int
		switch {
		case i > 0 && out[i-1].Rank != nil:
			guess = *out[i-1].Rank + 1
		case i+1 < len(out) && out[i+1].Rank != nil && *out[i+1].Rank-1 >= 1:
			guess = *out[i+1].Rank - 1
		default:
			continue
		}
		out[i].Rank = model.IntPtr(guess)
		out[i].RankInferred = true
		inferred++
	}
	return out, inferred
}
