package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"belegpilot/src/pkg/model"
)

// dashboardResponse is SUPPLEMENTED FEATURE 1 (SPEC_FULL.md): the overview
// aggregate original_source/backend/app/main.py computes across every
// client/receipt at startup, rebuilt here on demand from the store.
type dashboardResponse struct {
	ActiveClients      int     `json:"mandanten_aktiv"`
	TotalReceipts      int     `json:"belege_gesamt"`
	OpenReceipts       int     `json:"belege_offen"`
	ReviewedReceipts   int     `json:"belege_geprueft"`
	SyncedReceipts     int     `json:"belege_synced"`
	ErrorReceipts      int     `json:"belege_fehler"`
	ExtractedReceipts  int     `json:"belege_extrahiert"`
	SumGross           float64 `json:"summe_brutto"`
	ExtractionRate     float64 `json:"extraktion_rate"`
	BridgeSyncRate     float64 `json:"datev_sync_rate"`
}

func (s *Server) dashboard(c echo.Context) error {
	clients := s.Store.ListClients()
	activeClients := 0
	for _, cl := range clients {
		if cl.Aktiv {
			activeClients++
		}
	}

	receipts := s.Store.ListAllReceipts()
	resp := dashboardResponse{ActiveClients: activeClients, TotalReceipts: len(receipts)}

	for _, r := range receipts {
		switch r.Status {
		case model.StatusUploaded, model.StatusOCRRunning, model.StatusOCRDone, model.StatusExtractionRunning:
			resp.OpenReceipts++
		case model.StatusReviewed:
			resp.ReviewedReceipts++
		case model.StatusError:
			resp.ErrorReceipts++
		}
		if r.Status == model.StatusExtracted || r.Status == model.StatusReviewed || r.Status == model.StatusPushed {
			resp.ExtractedReceipts++
		}
		if r.PushStatus == model.PushSynced {
			resp.SyncedReceipts++
		}
		if r.Fields.GrossAmount != nil {
			resp.SumGross += *r.Fields.GrossAmount
		}
	}

	if resp.TotalReceipts > 0 {
		resp.ExtractionRate = 100 * float64(resp.ExtractedReceipts) / float64(resp.TotalReceipts)
		resp.BridgeSyncRate = 100 * float64(resp.SyncedReceipts) / float64(resp.TotalReceipts)
	}

	return c.JSON(http.StatusOK, resp)
}
