package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"belegpilot/src/pkg/classify"
	"belegpilot/src/pkg/model"
)

// taxYearResponse is SUPPLEMENTED FEATURE 4 (SPEC_FULL.md): every
// tax-year read carries the receipt-count/review/sync rollup and the
// C10 completeness report inline, grounded on
// original_source/.../steuerjahre.py's _enrich.
type taxYearResponse struct {
	model.TaxYear
	ReceiptCount  int             `json:"anzahl_belege"`
	ReviewedCount int             `json:"belege_geprueft"`
	SyncedCount   int             `json:"belege_synced"`
	SumGross      float64         `json:"summe_brutto"`
	Completeness  classify.Report `json:"vollstaendigkeit"`
}

func (s *Server) enrichTaxYear(ty model.TaxYear) taxYearResponse {
	receipts := s.Store.ListReceiptsByTaxYear(ty.ID, "")

	resp := taxYearResponse{TaxYear: ty}
	resp.ReceiptCount = len(receipts)

	var kinds []model.DocumentKind
	for _, r := range receipts {
		if r.ManuallyReviewed {
			resp.ReviewedCount++
		}
		if r.PushStatus == model.PushSynced {
			resp.SyncedCount++
		}
		if r.Fields.GrossAmount != nil {
			resp.SumGross += *r.Fields.GrossAmount
		}
		if r.Fields.DocumentKind != nil {
			kinds = append(kinds, *r.Fields.DocumentKind)
		}
	}
	resp.Completeness = classify.DetectMissing(kinds)

	return resp
}

func (s *Server) createTaxYear(c echo.Context) error {
	var in model.TaxYear
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid tax year payload")
	}
	if in.ClientID == "" || in.Jahr == 0 {
		return badRequest(c, "client_id and jahr are required")
	}

	for _, existing := range s.Store.ListTaxYearsByClient(in.ClientID) {
		if existing.Jahr == in.Jahr {
			return conflict(c, "tax year already exists for this client")
		}
	}

	created, err := s.Store.CreateTaxYear(in)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, s.enrichTaxYear(created))
}

func (s *Server) listTaxYearsByClient(c echo.Context) error {
	clientID := c.Param("id")
	if _, err := s.Store.GetClient(clientID); err != nil {
		return storeError(c, err)
	}

	years := s.Store.ListTaxYearsByClient(clientID)
	out := make([]taxYearResponse, 0, len(years))
	for _, ty := range years {
		out = append(out, s.enrichTaxYear(ty))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getTaxYear(c echo.Context) error {
	ty, err := s.Store.GetTaxYear(c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, s.enrichTaxYear(ty))
}

func (s *Server) updateTaxYear(c echo.Context) error {
	id := c.Param("id")
	existing, err := s.Store.GetTaxYear(id)
	if err != nil {
		return storeError(c, err)
	}

	var in model.TaxYear
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid tax year payload")
	}
	in.ID = existing.ID
	in.ClientID = existing.ClientID

	updated, err := s.Store.UpdateTaxYear(in)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, s.enrichTaxYear(updated))
}

func (s *Server) deleteTaxYear(c echo.Context) error {
	if err := s.Store.DeleteTaxYear(c.Param("id")); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
