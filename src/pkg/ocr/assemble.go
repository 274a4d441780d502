package ocr

import (
	"sort"
	"strings"

	"belegpilot/src/pkg/model"
)

// PageSeparator joins the assembled text of consecutive pages. Its exact
// value and length are part of the offset-monotonicity invariant: page
// k+1's first word's char_start equals page k's last word's char_end plus
// len(PageSeparator).
const PageSeparator = "\n\n--- Seite ---\n\n"

// assemblePage groups scaled words by (block, line), reconstructs the
// page's canonical text, and assigns each word its [char_start, char_end)
// interval relative to the start of this page's text. offset is added to
// every interval so multi-page assembly can shift pages forward.
func assemblePage(words []hocrWord, sx, sy float64, offset int) (text string, out []model.OCRWord) {
	type key struct{ block, line int }
	groups := map[key][]hocrWord{}
	var keys []key
	for _, w := range words {
		k := key{w.BlockID, w.LineID}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], w)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].block != keys[j].block {
			return keys[i].block < keys[j].block
		}
		return keys[i].line < keys[j].line
	})

	var b strings.Builder
	cursor := offset
	prevBlock := -1
	prevLine := -1
	firstLine := true

	for _, k := range keys {
		if !firstLine {
			if k.block != prevBlock {
				b.WriteString("\n\n") // new block: one extra newline
				cursor += 2
			} else if k.line != prevLine {
				b.WriteString("\n")
				cursor++
			}
		}
		firstLine = false
		prevBlock = k.block
		prevLine = k.line

		lineWords := groups[k]
		for i, w := range lineWords {
			if i > 0 {
				b.WriteString(" ")
				cursor++
			}
			charStart := cursor
			b.WriteString(w.Text)
			cursor += len(w.Text)
			charEnd := cursor

			out = append(out, model.OCRWord{
				Text:      w.Text,
				X:         int(float64(w.X) * sx),
				Y:         int(float64(w.Y) * sy),
				W:         int(float64(w.W) * sx),
				H:         int(float64(w.H) * sy),
				Conf:      w.Conf,
				CharStart: charStart,
				CharEnd:   charEnd,
				BlockID:   w.BlockID,
				LineID:    w.LineID,
			})
		}
	}

	return b.String(), out
}

// meanConfidence is the mean of all positive per-word confidences, rounded
// to two decimals, per §4.2.
func meanConfidence(words []model.OCRWord) float64 {
	sum := 0.0
	count := 0
	for _, w := range words {
		if w.Conf > 0 {
			sum += w.Conf
			count++
		}
	}
	if count == 0 {
		return 0
	}
	mean := sum / float64(count)
	return roundTo2(mean)
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
