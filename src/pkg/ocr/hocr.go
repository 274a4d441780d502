package ocr

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// hocrWord is one ocrx_word span extracted from a gosseract HOCRText() dump,
// still in processed-image pixel space and carrying the block/line ids the
// Text Assembler groups by.
type hocrWord struct {
	Text       string
	X, Y, W, H int
	Conf       float64
	BlockID    int
	LineID     int
}

// hocrPageSize is the page's pixel dimensions as reported by hOCR's
// ocr_page bbox, in processed-image space.
type hocrPageSize struct {
	Width  int
	Height int
}

// These patterns mirror the teacher's own regexp-mining style in
// pkg/ocr/regex.go rather than pulling in an XML/HTML parsing dependency:
// hOCR is a fixed, predictable subset of XHTML and every value we need sits
// inside a `title` attribute (single- or double-quoted) we can extract with a
// direct pattern.
var (
	pageBlockRegexp = regexp.MustCompile(`(?s)class='ocr_page'[^>]*?bbox (\d+) (\d+) (\d+) (\d+)`)
	wordRegexp      = regexp.MustCompile(`(?s)<span class='ocrx_word'[^>]*title=['"]bbox (\d+) (\d+) (\d+) (\d+);[^'"]*x_wconf (\d+)['"][^>]*>(.*?)</span>`)
	tagStripRegexp  = regexp.MustCompile(`(?s)<[^>]+>`)
)

// parseHOCR extracts page size and word-level geometry/confidence/block-line
// ids from a single page's hOCR document produced by gosseract's HOCRText().
func parseHOCR(hocrDoc string) (size hocrPageSize, words []hocrWord) {
	if m := pageBlockRegexp.FindStringSubmatch(hocrDoc); m != nil {
		x0, _ := strconv.Atoi(m[1])
		y0, _ := strconv.Atoi(m[2])
		x1, _ := strconv.Atoi(m[3])
		y1, _ := strconv.Atoi(m[4])
		size = hocrPageSize{Width: x1 - x0, Height: y1 - y0}
	}

	careas := splitBlocks(hocrDoc)
	for blockIdx, carea := range careas {
		lines := splitLines(carea)
		for lineIdx, line := range lines {
			matches := wordRegexp.FindAllStringSubmatch(line, -1)
			for _, wm := range matches {
				x, _ := strconv.Atoi(wm[1])
				y, _ := strconv.Atoi(wm[2])
				x1, _ := strconv.Atoi(wm[3])
				y1, _ := strconv.Atoi(wm[4])
				confRaw, _ := strconv.Atoi(wm[5])
				text := cleanWordText(wm[6])
				if strings.TrimSpace(text) == "" {
					continue
				}
				words = append(words, hocrWord{
					Text:    text,
					X:       x,
					Y:       y,
					W:       x1 - x,
					H:       y1 - y,
					Conf:    float64(confRaw),
					BlockID: blockIdx,
					LineID:  lineIdx,
				})
			}
		}
	}
	return size, words
}

// splitBlocks returns the raw markup of each ocr_carea block in document
// order; each block runs from its opening tag to the next block's opening
// tag (or the end of the document).
func splitBlocks(doc string) []string {
	startRegexp := regexp.MustCompile(`<[a-z]+ class='ocr_carea'`)
	locs := startRegexp.FindAllStringIndex(doc, -1)
	if len(locs) == 0 {
		// No block markup (e.g. a PSM that skips carea) — treat the whole
		// document as a single implicit block.
		return []string{doc}
	}
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		start := loc[0]
		end := len(doc)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, doc[start:end])
	}
	return blocks
}

// splitLines returns the raw markup of each ocr_line span within a block, in
// document order.
func splitLines(block string) []string {
	startRegexp := regexp.MustCompile(`<span class='ocr_line'`)
	locs := startRegexp.FindAllStringIndex(block, -1)
	if len(locs) == 0 {
		return []string{block}
	}
	lines := make([]string, 0, len(locs))
	for i, loc := range locs {
		start := loc[0]
		end := len(block)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		lines = append(lines, block[start:end])
	}
	return lines
}

func cleanWordText(raw string) string {
	stripped := tagStripRegexp.ReplaceAllString(raw, "")
	return html.UnescapeString(strings.TrimSpace(stripped))
}
