package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"belegpilot/src/pkg/bridge"
)

// syncRequest is the body POST /sync expects: the tax year to push and the
// remote bookkeeping account to push it into, grounded on
// original_source/.../datev_sync.py's sync_to_datev payload.
type syncRequest struct {
	TaxYearID string `json:"tax_year_id"`
	AccountID string `json:"account_id"`
}

func (s *Server) bridgeSync(c echo.Context) error {
	var in syncRequest
	if err := c.Bind(&in); err != nil || in.TaxYearID == "" {
		return badRequest(c, "tax_year_id is required")
	}
	if _, err := s.Store.GetTaxYear(in.TaxYearID); err != nil {
		return storeError(c, err)
	}

	result := s.Bridge.Sync(c.Request().Context(), in.TaxYearID, in.AccountID)
	return c.JSON(http.StatusOK, result)
}

// bridgeCSV implements GET /csv/{tax_year_id}: the offline fallback export
// (C12's csv.go) for clients without a live bridge connection.
func (s *Server) bridgeCSV(c echo.Context) error {
	taxYearID := c.Param("tax_year_id")
	ty, err := s.Store.GetTaxYear(taxYearID)
	if err != nil {
		return storeError(c, err)
	}
	client, err := s.Store.GetClient(ty.ClientID)
	if err != nil {
		return storeError(c, err)
	}

	receipts := s.Store.ListReceiptsByTaxYear(taxYearID, "")
	csv := bridge.GenerateCSV(receipts, client.Name, ty.Jahr)

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="belege_`+strconv.Itoa(ty.Jahr)+`.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

func (s *Server) bridgeLog(c echo.Context) error {
	clientID := c.Param("client_id")
	if _, err := s.Store.GetClient(clientID); err != nil {
		return storeError(c, err)
	}
	entries := s.Store.ListPushLogByClient(clientID)
	return c.JSON(http.StatusOK, entries)
}

// bridgeStatus implements GET /bridge/status: connectivity probe the
// frontend uses to decide whether to offer "sync" or just "export CSV".
func (s *Server) bridgeStatus(c echo.Context) error {
	status := s.Bridge.TestConnection(c.Request().Context())
	return c.JSON(http.StatusOK, status)
}

func (s *Server) bridgeCompanies(c echo.Context) error {
	if !s.Bridge.Config.IsConfigured() {
		return c.JSON(http.StatusOK, []bridge.Account{})
	}
	accounts := s.Bridge.ListAccounts(c.Request().Context())
	return c.JSON(http.StatusOK, accounts)
}
