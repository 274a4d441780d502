package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// parseGermanNumber parses a German-formatted decimal ("1.234,56" or
// "1234,56" or "1234.56" or plain "1234") into a float64. It is lenient:
// it strips thousands separators before the last decimal separator and
// normalizes the final one to '.'.
func parseGermanNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSuffix(s, "EUR")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	var normalized string
	switch {
	case lastComma > lastDot:
		// German: '.' thousands, ',' decimal.
		normalized = strings.ReplaceAll(s[:lastComma], ".", "") + "." + s[lastComma+1:]
	case lastDot > lastComma:
		// Already dot-decimal; strip any comma thousands separators.
		normalized = strings.ReplaceAll(s[:lastDot], ",", "") + "." + s[lastDot+1:]
	default:
		normalized = strings.ReplaceAll(s, ",", "")
	}

	normalized = strings.TrimSpace(normalized)
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// germanNumberVariants produces the literal strings a German-formatted
// amount could plausibly have appeared as in OCR text, for fallback
// localization (§4.7.6): comma-decimal, dot-decimal, with and without
// thousands separators, and an integer-only form when the value has no
// fractional part.
func germanNumberVariants(v float64) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	commaDecimal := strconv.FormatFloat(v, 'f', 2, 64)
	add(strings.ReplaceAll(commaDecimal, ".", ","))
	add(commaDecimal)
	add(withThousandsSeparator(v, ','))
	add(withThousandsSeparator(v, '.'))

	if v == float64(int64(v)) {
		add(fmt.Sprintf("%d", int64(v)))
	}

	return out
}

// withThousandsSeparator formats v with a German-style grouped integer
// part (using '.') and decimalSep for the fractional part.
func withThousandsSeparator(v float64, decimalSep byte) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var grouped []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, c)
	}

	result := string(grouped)
	if neg {
		result = "-" + result
	}
	if len(parts) > 1 {
		result += string(decimalSep) + parts[1]
	}
	return result
}
