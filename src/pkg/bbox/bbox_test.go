package bbox

import (
	"testing"

	"belegpilot/src/pkg/model"
)

func sampleGeometry() model.OCRGeometry {
	return model.OCRGeometry{
		Pages: []model.OCRPage{
			{
				Page: 1, Width: 1000, Height: 1400,
				Words: []model.OCRWord{
					{Text: "Brutto:", X: 10, Y: 20, W: 60, H: 20, CharStart: 0, CharEnd: 7},
					{Text: "1.877,82", X: 80, Y: 20, W: 80, H: 20, CharStart: 8, CharEnd: 16},
					{Text: "€", X: 170, Y: 20, W: 10, H: 20, CharStart: 17, CharEnd: 18},
				},
			},
		},
	}
}

func TestEnrich_UnionsOverlappingWords(t *testing.T) {
	geom := sampleGeometry()
	box, ok := Enrich(geom, 0, 16)
	if !ok {
		t.Fatalf("expected an overlap")
	}
	if box.Page != 1 {
		t.Fatalf("expected page 1, got %d", box.Page)
	}
	if box.X != 10 || box.Y != 20 {
		t.Fatalf("unexpected origin: %+v", box)
	}
	wantW := (80 + 80) - 10
	wantH := 20
	if box.W != wantW || box.H != wantH {
		t.Fatalf("unexpected size: %+v, want w=%d h=%d", box, wantW, wantH)
	}
	if box.W <= 0 || box.H <= 0 {
		t.Fatalf("bbox must have positive width/height")
	}
}

func TestEnrich_NoOverlapReturnsFalse(t *testing.T) {
	geom := sampleGeometry()
	_, ok := Enrich(geom, 1000, 1010)
	if ok {
		t.Fatalf("expected no overlap for a span far outside word ranges")
	}
}

func TestEnrich_PartialOverlapIncludesWord(t *testing.T) {
	geom := sampleGeometry()
	// span [5, 9) overlaps word 1 (0,7) and word 2 (8,16) partially.
	box, ok := Enrich(geom, 5, 9)
	if !ok {
		t.Fatalf("expected overlap")
	}
	if box.X != 10 {
		t.Fatalf("expected union to include word 1's left edge, got %+v", box)
	}
}
