// Package imaging implements the OCR image preprocessing pipeline: grayscale,
// auto-contrast, conditional upscale, sharpen, and binarize. It is pure: the
// input image is never mutated, and the original/processed scale factors
// needed to project OCR geometry back into original pixel space are
// returned alongside the processed image.
package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// minShortSide is the shorter-side threshold below which the image is
// upscaled 2x before OCR.
const minShortSide = 1500

// thresholdValue is the binarization cutoff.
const thresholdValue = uint8(140)

// autoContrastCutoffPercent is the histogram-tail percentage clipped at
// each end before stretching.
const autoContrastCutoffPercent = 2.0

// Result is the processed image plus the scale factors mapping
// processed-pixel coordinates back to the original image's pixel space.
type Result struct {
	Image image.Image
	SX    float64
	SY    float64
}

/*
Preprocess runs the full C1 pipeline against sourcePath and returns the
processed image plus scale factors. It does not write anything to disk;
callers that need a file on disk (for gosseract, which reads from a path)
use Save.
*/
func Preprocess(sourcePath string) (result Result, e *xerr.Error) {
	tl.Log(tl.Info1, palette.Blue, "Preprocessing image '%s' for OCR", sourcePath)

	originalImage, openErr := imaging.Open(sourcePath)
	if openErr != nil {
		e = xerr.NewError(openErr, "open source image for preprocessing", sourcePath)
		return
	}

	originalBounds := originalImage.Bounds()
	originalWidth := originalBounds.Dx()
	originalHeight := originalBounds.Dy()

	// 1. Grayscale.
	grayscaleImage := imaging.Grayscale(originalImage)

	// 2. Auto-contrast with a 2% histogram cutoff at each tail.
	contrastedImage := autoContrast(grayscaleImage, autoContrastCutoffPercent)

	// 3. Conditional 2x upscale if the shorter side is below the threshold.
	shortSide := originalWidth
	if originalHeight < shortSide {
		shortSide = originalHeight
	}

	processedImage := image.Image(contrastedImage)
	if shortSide < minShortSide {
		targetWidth := originalWidth * 2
		targetHeight := originalHeight * 2
		processedImage = imaging.Resize(contrastedImage, targetWidth, targetHeight, imaging.Lanczos)
	}

	// 4. One sharpening pass.
	sharpenedImage := imaging.Sharpen(processedImage, 1.0)

	// 5. Threshold at 140 to a clean two-tone image, kept in grayscale.
	binarizedImage := imaging.AdjustFunc(sharpenedImage, func(c color.NRGBA) color.NRGBA {
		brightness := c.R // already grayscale, red channel is a brightness proxy
		if brightness > thresholdValue {
			return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		}
		return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	})

	processedBounds := binarizedImage.Bounds()
	processedWidth := processedBounds.Dx()
	processedHeight := processedBounds.Dy()

	result = Result{
		Image: binarizedImage,
		SX:    float64(originalWidth) / float64(processedWidth),
		SY:    float64(originalHeight) / float64(processedHeight),
	}

	tl.Log(
		tl.Info1, palette.Green, "Preprocessed '%s': original %dx%d, processed %dx%d, scale (%.4f, %.4f)",
		sourcePath, originalWidth, originalHeight, processedWidth, processedHeight, result.SX, result.SY,
	)

	return result, nil
}

// Save writes a preprocessed image to destinationPath as a PNG, since
// gosseract reads OCR input from a file path rather than an in-memory image.
func Save(img image.Image, destinationPath string) (e *xerr.Error) {
	saveErr := imaging.Save(img, destinationPath)
	if saveErr != nil {
		e = xerr.NewError(saveErr, "save processed image", destinationPath)
		return
	}
	tl.Log(tl.Info1, palette.Green, "Saved processed image to '%s'", destinationPath)
	return
}

// autoContrast stretches the image histogram so that the darkest/lightest
// cutoffPercent of pixels (by count, at each tail) are clipped to pure
// black/white and the rest is linearly rescaled between them. imaging's own
// AdjustContrast takes a flat percentage rather than a histogram cutoff, so
// this is hand-rolled in the same AdjustFunc style the teacher's threshold
// step already uses.
func autoContrast(img image.Image, cutoffPercent float64) image.Image {
	bounds := img.Bounds()
	var histogram [256]int
	total := 0

	nrgba := imaging.Clone(img)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := nrgba.NRGBAAt(x, y)
			histogram[c.R]++
			total++
		}
	}

	cutoff := int(float64(total) * cutoffPercent / 100.0)

	lo := 0
	acc := 0
	for v := 0; v < 256; v++ {
		acc += histogram[v]
		if acc > cutoff {
			lo = v
			break
		}
	}

	hi := 255
	acc = 0
	for v := 255; v >= 0; v-- {
		acc += histogram[v]
		if acc > cutoff {
			hi = v
			break
		}
	}

	if hi <= lo {
		return nrgba
	}

	scale := 255.0 / float64(hi-lo)
	return imaging.AdjustFunc(nrgba, func(c color.NRGBA) color.NRGBA {
		v := float64(int(c.R) - lo) * scale
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		b := uint8(v)
		return color.NRGBA{R: b, G: b, B: b, A: c.A}
	})
}
