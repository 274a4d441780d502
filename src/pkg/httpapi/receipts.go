package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"belegpilot/src/pkg/model"
)

// upload implements POST /upload/{tax_year_id} (§6): save every accepted
// file under upload_dir/{client_id}/{year}/{12-hex-token}_{filename} (§5's
// shared-resource partitioning), create a receipt row per file, and
// enqueue the pipeline in the background. Files whose suffix isn't in
// the allowlist are silently dropped; a request that accepted nothing
// returns 400.
func (s *Server) upload(c echo.Context) error {
	taxYearID := c.Param("tax_year_id")
	ty, err := s.Store.GetTaxYear(taxYearID)
	if err != nil {
		return storeError(c, err)
	}
	client, err := s.Store.GetClient(ty.ClientID)
	if err != nil {
		return storeError(c, err)
	}

	maxBytes := int64(s.Config.MaxUploadSizeMB) * 1024 * 1024
	if maxBytes > 0 && c.Request().ContentLength > maxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "upload exceeds max_upload_size_mb"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "expected a multipart/form-data upload")
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}

	destDir := filepath.Join(s.Config.UploadDir, client.ID, strconv.Itoa(ty.Jahr))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not prepare upload directory"})
	}

	var created []model.Receipt
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedUploadExt[ext] {
			continue
		}

		safeName := uploadToken() + "_" + filepath.Base(fh.Filename)
		destPath := filepath.Join(destDir, safeName)

		if err := saveUploadedFile(fh, destPath); err != nil {
			tl.Log(tl.Warning, palette.Yellow, "upload: failed saving '%s': %s", fh.Filename, err)
			continue
		}

		receipt := model.Receipt{
			TaxYearID: taxYearID,
			FileName:  fh.Filename,
			FilePath:  destPath,
			FileType:  strings.TrimPrefix(ext, "."),
			FileSize:  fh.Size,
		}
		saved, createErr := s.Store.CreateReceipt(receipt)
		if createErr != nil {
			tl.Log(tl.Warning, palette.Yellow, "upload: failed creating receipt row for '%s': %s", fh.Filename, createErr)
			continue
		}

		runPipeline(s.Orchestrator, saved.ID)
		created = append(created, saved)
	}

	if len(created) == 0 {
		return badRequest(c, "no valid files in upload")
	}
	return c.JSON(http.StatusCreated, created)
}

func saveUploadedFile(fh *multipart.FileHeader, destPath string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (s *Server) listReceipts(c echo.Context) error {
	taxYearID := c.Param("id")
	if _, err := s.Store.GetTaxYear(taxYearID); err != nil {
		return storeError(c, err)
	}
	status := model.ReceiptStatus(c.QueryParam("status"))
	receipts := s.Store.ListReceiptsByTaxYear(taxYearID, status)
	return c.JSON(http.StatusOK, receipts)
}

func (s *Server) getReceipt(c echo.Context) error {
	r, err := s.Store.GetReceipt(c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// receiptUpdate is the tolerant partial-update shape PUT /receipt/{id}
// accepts: every field is optional (nil means "leave alone"), matching
// SPEC_FULL.md's "deep dict -> column mapping" design note — unknown
// JSON keys are rejected silently by simply not appearing in this struct.
type receiptUpdate struct {
	DocumentKind     *model.DocumentKind `json:"beleg_typ"`
	Issuer           *string             `json:"aussteller"`
	Description      *string             `json:"beschreibung"`
	InvoiceNumber    *string             `json:"rechnungsnummer"`
	DocumentDate     *string             `json:"datum_beleg"`
	GrossAmount      *float64            `json:"betrag_brutto"`
	NetAmount        *float64            `json:"betrag_netto"`
	VATRate          *float64            `json:"mwst_satz"`
	VATAmount        *float64            `json:"mwst_betrag"`
	Labor35a         *float64            `json:"arbeitskosten_35a"`
	MaterialCost     *float64            `json:"materialkosten"`
	TaxCategory      *string             `json:"steuer_kategorie"`
	AccountCode      *string             `json:"skr03_konto"`
	AccountName      *string             `json:"skr03_bezeichnung"`
	CounterAccount   *string             `json:"gegenkonto"`
	TaxCode          *string             `json:"bu_schluessel"`
	CostCenter       *string             `json:"kostenstelle"`
	ManuallyReviewed *bool               `json:"manuell_geprueft"`
	ReviewNote       *string             `json:"pruefnotiz"`
}

// updateReceipt implements PUT /receipt/{id}: apply every non-nil field,
// then — per §6 — setting manually_reviewed=true implicitly transitions
// the receipt to "reviewed".
func (s *Server) updateReceipt(c echo.Context) error {
	id := c.Param("id")
	receipt, err := s.Store.GetReceipt(id)
	if err != nil {
		return storeError(c, err)
	}

	var in receiptUpdate
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid receipt payload")
	}

	applyReceiptUpdate(&receipt, in)

	saved, err := s.Store.SaveReceipt(receipt)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

func applyReceiptUpdate(r *model.Receipt, in receiptUpdate) {
	if in.DocumentKind != nil {
		r.Fields.DocumentKind = in.DocumentKind
	}
	if in.Issuer != nil {
		r.Fields.Issuer = in.Issuer
	}
	if in.Description != nil {
		r.Fields.Description = in.Description
	}
	if in.InvoiceNumber != nil {
		r.Fields.InvoiceNumber = in.InvoiceNumber
	}
	if in.DocumentDate != nil {
		r.Fields.DocumentDate = in.DocumentDate
	}
	if in.GrossAmount != nil {
		r.Fields.GrossAmount = in.GrossAmount
	}
	if in.NetAmount != nil {
		r.Fields.NetAmount = in.NetAmount
	}
	if in.VATRate != nil {
		r.Fields.VATRate = in.VATRate
	}
	if in.VATAmount != nil {
		r.Fields.VATAmount = in.VATAmount
	}
	if in.Labor35a != nil {
		r.Fields.Labor35a = in.Labor35a
	}
	if in.MaterialCost != nil {
		r.Fields.MaterialCost = in.MaterialCost
	}
	if in.TaxCategory != nil {
		r.Fields.TaxCategory = in.TaxCategory
	}
	if in.AccountCode != nil {
		r.Fields.AccountCode = in.AccountCode
	}
	if in.AccountName != nil {
		r.Fields.AccountName = in.AccountName
	}
	if in.CounterAccount != nil {
		r.Fields.CounterAccount = in.CounterAccount
	}
	if in.TaxCode != nil {
		r.Fields.TaxCode = in.TaxCode
	}
	if in.CostCenter != nil {
		r.Fields.CostCenter = in.CostCenter
	}
	if in.ReviewNote != nil {
		r.ReviewNote = *in.ReviewNote
	}
	if in.ManuallyReviewed != nil {
		r.ManuallyReviewed = *in.ManuallyReviewed
		if *in.ManuallyReviewed {
			r.Status = model.StatusReviewed
		}
	}
}

// reprocessReceipt implements POST /receipt/{id}/reprocess: §4.11's
// reprocess command, run in the background so the request returns
// immediately with an acknowledgement rather than the final state.
func (s *Server) reprocessReceipt(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.Store.GetReceipt(id); err != nil {
		return storeError(c, err)
	}
	runReprocess(s.Orchestrator, id)
	return c.JSON(http.StatusAccepted, map[string]string{"ok": "true", "status": "reprocessing"})
}

// deleteReceipt implements DELETE /receipt/{id}: remove the DB row and
// the on-disk file in the same operation (§3's lifecycle rule).
func (s *Server) deleteReceipt(c echo.Context) error {
	id := c.Param("id")
	receipt, err := s.Store.GetReceipt(id)
	if err != nil {
		return storeError(c, err)
	}

	if err := s.Store.DeleteReceipt(id); err != nil {
		return storeError(c, err)
	}

	if receipt.FilePath != "" {
		if rmErr := os.Remove(receipt.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			tl.Log(tl.Warning, palette.Yellow, "delete receipt %s: could not remove file '%s': %s", id, receipt.FilePath, rmErr)
		}
	}

	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
