// Package bbox implements C7, the BBox Enricher: projecting a character
// span onto the union of bounding boxes of every OCR word whose character
// interval overlaps it. This has no original-source counterpart — the
// Python system this spec was distilled from never attached pixel geometry
// to extracted fields; it is this product's differentiator (see spec.md
// §1/GLOSSARY). Implemented as small pure functions in the same style as
// the teacher's pkg/ocr/regex.go.
package bbox

import "belegpilot/src/pkg/model"

// Enrich returns the union bounding box of every word across all pages of
// geometry whose [char_start, char_end) overlaps [start, end). ok is false
// if no word overlaps, in which case the caller must leave the span
// untouched (§4.6).
func Enrich(geometry model.OCRGeometry, start, end int) (box model.BBox, ok bool) {
	minX, minY := 0, 0
	maxX, maxY := 0, 0
	page := 0
	first := true

	for _, p := range geometry.Pages {
		for _, w := range p.Words {
			if !overlaps(w.CharStart, w.CharEnd, start, end) {
				continue
			}
			wx1 := w.X + w.W
			wy1 := w.Y + w.H
			if first {
				minX, minY = w.X, w.Y
				maxX, maxY = wx1, wy1
				page = p.Page
				first = false
				continue
			}
			if w.X < minX {
				minX = w.X
			}
			if w.Y < minY {
				minY = w.Y
			}
			if wx1 > maxX {
				maxX = wx1
			}
			if wy1 > maxY {
				maxY = wy1
			}
		}
	}

	if first {
		return model.BBox{}, false
	}

	return model.BBox{
		Page: page,
		X:    minX,
		Y:    minY,
		W:    maxX - minX,
		H:    maxY - minY,
	}, true
}

// overlaps reports whether word interval [wStart, wEnd) overlaps span
// [start, end), per §4.6: w.char_start < e AND w.char_end > s.
func overlaps(wStart, wEnd, start, end int) bool {
	return wStart < end && wEnd > start
}
