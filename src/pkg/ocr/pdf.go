package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// pdfPageCount returns the number of pages in a PDF, via pdfcpu's context
// inspection — the same "inspect before processing" shape pdfcpu's own
// api.PageCountFile wraps.
func pdfPageCount(pdfPath string) (count int, e *xerr.Error) {
	ctx, err := pdfapi.ReadContextFile(pdfPath)
	if err != nil {
		e = xerr.NewError(err, "read PDF context", pdfPath)
		return
	}
	return ctx.PageCount, nil
}

// rasterizePDFPages extracts, per page, the largest embedded raster image —
// gosseract only reads image files, and pdfcpu has no general PDF-to-bitmap
// renderer in its public API. For the common case this pipeline targets
// (scanned receipts: one full-page photo or scan embedded per PDF page),
// the largest embedded image on a page *is* the page rendering. Native/
// vector PDFs with no extractable full-page image yield no file for that
// page index and the caller skips OCR for it with a logged warning.
func rasterizePDFPages(pdfPath string, workDir string) (pagePaths map[int]string, e *xerr.Error) {
	pagePaths = map[int]string{}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		e = xerr.NewError(err, "create PDF extraction work dir", workDir)
		return
	}

	images, err := pdfapi.ExtractImagesFile(pdfPath, workDir, nil, &model.Configuration{})
	if err != nil {
		e = xerr.NewError(err, "extract embedded images from PDF", pdfPath)
		return
	}

	// pdfcpu names extracted files like "<basename>_<page>_<index>.<ext>";
	// group by page and keep the largest file per page (by byte size) as
	// that page's best-effort raster.
	type candidate struct {
		path string
		size int64
		page int
	}
	var candidates []candidate
	for _, img := range images {
		info, statErr := os.Stat(img)
		if statErr != nil {
			continue
		}
		page := extractPageNumberFromFilename(img)
		if page == 0 {
			continue
		}
		candidates = append(candidates, candidate{path: img, size: info.Size(), page: page})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].size > candidates[j].size })
	for _, c := range candidates {
		if _, taken := pagePaths[c.page]; !taken {
			pagePaths[c.page] = c.path
		}
	}

	if len(pagePaths) == 0 {
		tl.Log(tl.Warning, palette.PurpleBold, "No extractable page images found in PDF '%s'; it may be a native/vector document", pdfPath)
	}

	return pagePaths, nil
}

// RasterizeFirstPage returns the best-effort page-1 raster of pdfPath,
// reusing the same largest-embedded-image extraction rasterizePDFPages
// uses for OCR. Exported for C8's vision dual-pass (§4.8), which needs
// a page-1 image for PDF inputs rather than the raw PDF bytes.
func RasterizeFirstPage(pdfPath string, workDir string) (path string, e *xerr.Error) {
	pages, e := rasterizePDFPages(pdfPath, workDir)
	if e != nil {
		return "", e
	}
	p, ok := pages[1]
	if !ok {
		e = xerr.NewError(fmt.Errorf("no extractable image for page 1"), "rasterize PDF page 1 for vision pass", pdfPath)
		return "", e
	}
	return p, nil
}

// extractPageNumberFromFilename best-effort parses pdfcpu's
// "<stem>_<page>_<n>.<ext>" extraction naming convention. The page is the
// second-to-last underscore-separated field, so a stem that itself contains
// underscores is handled; any other name yields 0.
func extractPageNumberFromFilename(path string) int {
	base := filepath.Base(path)
	parts := strings.Split(strings.TrimSuffix(base, filepath.Ext(base)), "_")
	if len(parts) < 3 {
		return 0
	}
	page, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0
	}
	return page
}
