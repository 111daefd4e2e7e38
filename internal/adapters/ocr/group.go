package ocr

import (
	"cmp"
	"slices"
	"strings"

	"github.com/okian/rollcall/internal/domain/model"
)

// Word is one recognized word with its Tesseract layout position.
type Word struct {
	Text       string
	Confidence float64 // 0..100
	Box        model.Box
	Block      int
	Par        int
	Line       int
}

type lineID struct{ block, par, line int }

// Group joins words of the same text line into phrases. Two neighbouring
// words belong to one phrase when the horizontal gap between them is at
// most gapFactor times the taller word's height. A phrase's confidence is
// the lowest word confidence scaled to 0..1.
func Group(words []Word, gapFactor float64, source string) []model.Detection {
	lines := make(map[lineID][]Word)
	var order []lineID
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		id := lineID{w.Block, w.Par, w.Line}
		if _, ok := lines[id]; !ok {
			order = append(order, id)
		}
		lines[id] = append(lines[id], w)
	}

	slices.SortFunc(order, func(a, b lineID) int {
		if c := cmp.Compare(a.block, b.block); c != 0 {
			return c
		}
		if c := cmp.Compare(a.par, b.par); c != 0 {
			return c
		}
		return cmp.Compare(a.line, b.line)
	})

	var out []model.Detection
	for _, id := range order {
		ws := lines[id]
		slices.SortStableFunc(ws, func(a, b Word) int { return cmp.Compare(a.Box.Left, b.Box.Left) })

		cur := []Word{ws[0]}
		for _, w := range ws[1:] {
			prev := cur[len(cur)-1]
			limit := gapFactor * max(prev.Box.Height(), w.Box.Height())
			if w.Box.Left-prev.Box.Right <= limit {
				cur = append(cur, w)
				continue
			}
			out = append(out, phrase(cur, source))
			cur = []Word{w}
		}
		out = append(out, phrase(cur, source))
	}
	return out
}

func phrase(ws []Word, source string) model.Detection {
	texts := make([]string, len(ws))
	box := ws[0].Box
	conf := ws[0].Confidence
	for i, w := range ws {
		texts[i] = strings.TrimSpace(w.Text)
		box = box.Union(w.Box)
		conf = min(conf, w.Confidence)
	}
	return model.Detection{
		Text:        strings.Join(texts, " "),
		Confidence:  conf / 100,
		Box:         box,
		SourceImage: source,
	}
}
