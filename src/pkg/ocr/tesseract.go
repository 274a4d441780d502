package ocr

import (
	"github.com/otiai10/gosseract/v2"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
runHOCROnImage runs gosseract over a single preprocessed page image and
returns its hOCR document, from which word-level geometry and confidence
are later recovered by parseHOCR.

This keeps the teacher's gosseract client setup (language, preserve-
interword-spaces, single-call-per-page lifecycle) but switches from plain
Text() to HOCRText(), since the Text Assembler needs per-word bounding boxes
and block/line ids, not just a text blob.
*/
func runHOCROnImage(imagePath string, language string) (hocrDoc string, e *xerr.Error) {
	tl.Log(tl.Info1, palette.Cyan, "Running OCR on processed image '%s' (lang=%s)", imagePath, language)

	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if err := client.SetLanguage(language); err != nil {
		return "", xerr.NewError(err, "unable to client.SetLanguage", imagePath)
	}

	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return "", xerr.NewError(err, "unable to client.SetVariable(preserve_interword_spaces)", imagePath)
	}

	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", xerr.NewError(err, "unable to client.SetPageSegMode(PSM_AUTO)", imagePath)
	}

	if err := client.SetImage(imagePath); err != nil {
		return "", xerr.NewError(err, "unable to client.SetImage", imagePath)
	}

	hocrDoc, hocrErr := client.HOCRText()
	if hocrErr != nil {
		return "", xerr.NewError(hocrErr, "unable to run OCR (hOCR) on image", imagePath)
	}

	tl.Log(tl.Info1, palette.Green, "OCR completed for '%s' (hOCR length: %d)", imagePath, len(hocrDoc))

	return hocrDoc, nil
}
