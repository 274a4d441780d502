// Package ocr implements C2 (OCR Engine Adapter) and C3 (Text Assembler):
// running word-level OCR over a document's pages and reconstructing a
// single canonical text with globally monotonic, byte-exact character
// offsets into the words that produced it.
package ocr

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	imagingpkg "belegpilot/src/pkg/imaging"
	"belegpilot/src/pkg/model"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// Document is the result of running OCR over every page of an uploaded
// file: the assembled text, its geometry, and the document-level mean
// confidence.
type Document struct {
	Text       string
	Geometry   model.OCRGeometry
	Confidence float64
}

// Process runs C1+C2+C3 over filePath (an image or a PDF) and returns the
// assembled multi-page document. workDir is used for intermediate
// preprocessed images and, for PDFs, extracted page rasters.
func Process(filePath string, language string, workDir string) (doc Document, e *xerr.Error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		e = xerr.NewError(err, "create OCR work directory", workDir)
		return
	}

	var pageImagePaths []string
	if ext == ".pdf" {
		count, countErr := pdfPageCount(filePath)
		if countErr != nil {
			e = countErr
			return
		}
		rasters, rasterErr := rasterizePDFPages(filePath, filepath.Join(workDir, "pdf-pages"))
		if rasterErr != nil {
			e = rasterErr
			return
		}
		for page := 1; page <= count; page++ {
			if p, ok := rasters[page]; ok {
				pageImagePaths = append(pageImagePaths, p)
			} else {
				tl.Log(tl.Warning, palette.PurpleBold, "Skipping page %d of '%s': no raster available", page, filePath)
			}
		}
	} else {
		pageImagePaths = []string{filePath}
	}

	var allWords []model.OCRWord
	var textBuilder strings.Builder
	offset := 0

	for pageIndex, pageImagePath := range pageImagePaths {
		pageNum := pageIndex + 1

		preprocessed, preErr := imagingpkg.Preprocess(pageImagePath)
		if preErr != nil {
			e = preErr
			return
		}

		processedPath := filepath.Join(workDir, "page-"+strconv.Itoa(pageNum)+"-clean.png")
		if saveErr := imagingpkg.Save(preprocessed.Image, processedPath); saveErr != nil {
			e = saveErr
			return
		}

		hocrDoc, hocrErr := runHOCROnImage(processedPath, language)
		if hocrErr != nil {
			e = hocrErr
			return
		}

		pageSize, words := parseHOCR(hocrDoc)

		if pageIndex > 0 {
			textBuilder.WriteString(PageSeparator)
			offset += len(PageSeparator)
		}

		pageText, scaledWords := assemblePage(words, preprocessed.SX, preprocessed.SY, offset)
		textBuilder.WriteString(pageText)
		offset += len(pageText)

		allWords = append(allWords, scaledWords...)

		originalWidth := int(float64(pageSize.Width) * preprocessed.SX)
		originalHeight := int(float64(pageSize.Height) * preprocessed.SY)

		doc.Geometry.Pages = append(doc.Geometry.Pages, model.OCRPage{
			Page:   pageNum,
			Width:  originalWidth,
			Height: originalHeight,
			Words:  scaledWords,
		})
	}

	doc.Text = textBuilder.String()
	doc.Confidence = meanConfidence(allWords)

	return doc, nil
}
