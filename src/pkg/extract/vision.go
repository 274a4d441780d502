package extract

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/tuumbleweed/xerr"

	"belegpilot/src/pkg/model"
	"belegpilot/src/pkg/ocr"
)

// visionKeyFieldCount reports how many of the "key" fields (kind, gross
// amount, issuer, date) are populated, the trigger metric for §4.8's
// dual-pass decision.
func visionKeyFieldCount(f fieldSet) int {
	n := 0
	if f.DocumentKind {
		n++
	}
	if f.GrossAmount {
		n++
	}
	if f.Issuer {
		n++
	}
	if f.DocumentDate {
		n++
	}
	return n
}

// fieldSet tracks which of the four key fields a pass populated, used by
// the vision trigger; the confidence scorer reads model.Fields directly.
type fieldSet struct {
	DocumentKind bool
	GrossAmount  bool
	Issuer       bool
	DocumentDate bool
}

// shouldRunVisionPass implements §4.8's trigger: low OCR confidence, or
// fewer than two key fields found by the text pass.
func shouldRunVisionPass(ocrConfidence float64, keys fieldSet, lowConfidenceThreshold float64) bool {
	if ocrConfidence < lowConfidenceThreshold {
		return true
	}
	return visionKeyFieldCount(keys) < 2
}

// buildImageDataURL reads an image from disk and returns a data URL usable
// as an inline base64 image for the vision pass, grounded on the teacher's
// pkg/llm/analyze-receipt-image.go of the same name. Per §4.8, PDF inputs
// are rasterized to their first page before encoding rather than sent as
// raw PDF bytes.
func buildImageDataURL(imagePath string) (dataURL string, e *xerr.Error) {
	sourcePath := imagePath
	if strings.ToLower(filepath.Ext(imagePath)) == ".pdf" {
		workDir, mkErr := os.MkdirTemp("", "vision-pdf-page1-*")
		if mkErr != nil {
			e = xerr.NewError(mkErr, "create work dir for vision-pass PDF rasterization", imagePath)
			return "", e
		}
		defer os.RemoveAll(workDir)

		sourcePath, e = ocr.RasterizeFirstPage(imagePath, workDir)
		if e != nil {
			return "", e
		}
	}

	raw, readErr := os.ReadFile(sourcePath)
	if readErr != nil {
		e = xerr.NewError(readErr, "read image for vision pass", sourcePath)
		return "", e
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), nil
}

// base64Only strips the data-URL header off a data URL, since the
// Ollama-style /api/generate "images" array wants raw base64, not a data
// URL (unlike OpenAI's input_image, which the teacher's helper targeted).
func base64Only(dataURL string) string {
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		return dataURL[idx+1:]
	}
	return dataURL
}

// mergeFields implements §4.8's fill-only-nulls merge rule: the vision
// pass may only populate fields the text pass left nil; it never
// overwrites a value the text pass already grounded.
func mergeFields(base, vision model.Fields) model.Fields {
	if base.DocumentKind == nil {
		base.DocumentKind = vision.DocumentKind
	}
	if base.Issuer == nil {
		base.Issuer = vision.Issuer
	}
	if base.Description == nil {
		base.Description = vision.Description
	}
	if base.InvoiceNumber == nil {
		base.InvoiceNumber = vision.InvoiceNumber
	}
	if base.DocumentDate == nil {
		base.DocumentDate = vision.DocumentDate
	}
	if base.GrossAmount == nil {
		base.GrossAmount = vision.GrossAmount
	}
	if base.NetAmount == nil {
		base.NetAmount = vision.NetAmount
	}
	if base.VATRate == nil {
		base.VATRate = vision.VATRate
	}
	if base.VATAmount == nil {
		base.VATAmount = vision.VATAmount
	}
	return base
}
