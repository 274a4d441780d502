package locate

import "strings"

// fuzzy implements §4.5 tier 4: bigram-Dice sliding window search. Only
// invoked for quotes of at least minFuzzyQuoteLen characters, and only over
// text of at most maxFuzzyTextLen runes (see DESIGN.md's open-question decision
// on fuzzy-tier cost).
func fuzzy(text, quote string) (Match, bool) {
	quoteRunes := []rune(strings.ToLower(quote))
	if len(quoteRunes) < minFuzzyQuoteLen {
		return Match{}, false
	}

	textRunes := []rune(text)
	if len(textRunes) > maxFuzzyTextLen {
		return Match{}, false
	}

	quoteBigrams := bigramSet(quoteRunes)
	q := len(quoteRunes)

	windowSizes := dedupWindowSizes(q, len(textRunes))
	if len(windowSizes) == 0 {
		return Match{}, false
	}

	bestScore := 0.0
	bestStart := -1
	bestSize := 0

	lowerText := []rune(strings.ToLower(text))

	for _, size := range windowSizes {
		if size > len(lowerText) {
			continue
		}
		for start := 0; start+size <= len(lowerText); start++ {
			window := lowerText[start : start+size]
			score := diceScore(bigramSet(window), quoteBigrams)
			if score > bestScore || (score == bestScore && bestStart >= 0 && betterTieBreak(start, size, bestStart, bestSize)) {
				bestScore = score
				bestStart = start
				bestSize = size
			}
		}
	}

	if bestStart < 0 || bestScore < fuzzyDiceThreshold {
		return Match{}, false
	}

	// bestStart/bestSize are rune offsets into textRunes; convert to byte
	// offsets for the returned Match.
	startByte := runeOffsetToByte(text, bestStart)
	endByte := runeOffsetToByte(text, bestStart+bestSize)

	return Match{Start: startByte, End: endByte, Matched: text[startByte:endByte]}, true
}

// betterTieBreak prefers the earliest start, then the smaller window, per
// §4.5's tie-break rule.
func betterTieBreak(candStart, candSize, bestStart, bestSize int) bool {
	if candStart != bestStart {
		return candStart < bestStart
	}
	return candSize < bestSize
}

// dedupWindowSizes builds the de-duplicated candidate window size set
// {floor(0.8q), floor(0.9q), q, ceil(1.1q), ceil(1.2q)}, clipped to text
// length and a minimum of 3.
func dedupWindowSizes(q int, textLen int) []int {
	raw := []int{
		int(0.8 * float64(q)),
		int(0.9 * float64(q)),
		q,
		ceilDiv(11*q, 10),
		ceilDiv(12*q, 10),
	}
	seen := map[int]bool{}
	var out []int
	for _, v := range raw {
		if v < 3 {
			v = 3
		}
		if v > textLen {
			v = textLen
		}
		if v <= 0 || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func bigramSet(runes []rune) map[string]bool {
	set := map[string]bool{}
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = true
	}
	if len(runes) == 1 {
		set[string(runes)] = true
	}
	return set
}

func diceScore(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	return 2.0 * float64(intersection) / float64(len(a)+len(b))
}

// runeOffsetToByte converts a rune index into a byte offset within s.
func runeOffsetToByte(s string, runeOffset int) int {
	if runeOffset <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == runeOffset {
			return i
		}
		count++
	}
	return len(s)
}
