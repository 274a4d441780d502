package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	path := filepath.Join(dir, "sample.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save test image: %v", err)
	}
	return path
}

func TestPreprocess_UpscalesSmallImages(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 100, 80)

	result, e := Preprocess(path)
	if e != nil {
		t.Fatalf("Preprocess returned error: %v", e)
	}

	bounds := result.Image.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 160 {
		t.Fatalf("expected 2x upscale to 200x160, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	if result.SX <= 0 || result.SY <= 0 {
		t.Fatalf("expected positive scale factors, got sx=%v sy=%v", result.SX, result.SY)
	}
}

func TestPreprocess_NoUpscaleAboveThreshold(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 1600, 1600)

	result, e := Preprocess(path)
	if e != nil {
		t.Fatalf("Preprocess returned error: %v", e)
	}

	bounds := result.Image.Bounds()
	if bounds.Dx() != 1600 || bounds.Dy() != 1600 {
		t.Fatalf("expected no upscale, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	if result.SX != 1.0 || result.SY != 1.0 {
		t.Fatalf("expected unit scale factors, got sx=%v sy=%v", result.SX, result.SY)
	}
}

func TestPreprocess_DoesNotMutateInput(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 50, 50)

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read input before: %v", err)
	}

	if _, e := Preprocess(path); e != nil {
		t.Fatalf("Preprocess returned error: %v", e)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read input after: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("Preprocess must not mutate its input file")
	}
}

func TestPreprocess_IsBinary(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 1600, 1600)

	result, e := Preprocess(path)
	if e != nil {
		t.Fatalf("Preprocess returned error: %v", e)
	}

	bounds := result.Image.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 37 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 37 {
			r, _, _, _ := result.Image.At(x, y).RGBA()
			v := uint8(r >> 8)
			if v != 0 && v != 255 {
				t.Fatalf("expected binarized pixel at (%d,%d), got %d", x, y, v)
			}
		}
	}
}
