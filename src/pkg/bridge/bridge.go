// Package bridge implements C12, the External Bridge: a stateful batch
// pusher to an accounting bridge with a CSV fallback. It is a sketch for
// contract only (spec.md §4.12): the HTTP shape is modeled on a generic
// document-upload + booking-proposal contract, not a specific partner
// API. Grounded on
// original_source/backend/app/datev/maesn_client.py almost line for
// line: `is_configured`/`test_connection`/`list_companies`/
// `upload_beleg_to_datev`/`sync_batch_to_datev`, generalized from the
// Maesn-specific REST shape to the generic "remote accounting bridge"
// spec.md names.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"belegpilot/src/pkg/model"
	"belegpilot/src/pkg/store"
)

// Config is the bridge connectivity configuration, matching §6's
// enumerated bridge_api_url/bridge_api_key/bridge_sandbox knobs.
type Config struct {
	APIURL  string
	APIKey  string
	Sandbox bool
}

// IsConfigured reports whether an API key is present, the same readiness
// gate test_connection/list_companies check before touching the network.
func (c Config) IsConfigured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Bridge drives push/sync operations against the remote accounting
// bridge and records every attempt in the push log.
type Bridge struct {
	Config Config
	Store  *store.Store
	Client *http.Client
}

func New(cfg Config, st *store.Store) *Bridge {
	return &Bridge{Config: cfg, Store: st, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (b *Bridge) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+b.Config.APIKey)
	h.Set("X-Sandbox", fmt.Sprintf("%t", b.Config.Sandbox))
	return h
}

// Status is the result of a connectivity probe (SUPPLEMENTED FEATURE 2,
// GET /bridge/status).
type Status struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// TestConnection probes the bridge's health endpoint, grounded on
// test_connection.
func (b *Bridge) TestConnection(ctx context.Context) Status {
	if !b.Config.IsConfigured() {
		return Status{Configured: false, Error: "bridge_api_key nicht konfiguriert"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.Config.APIURL+"/health", nil)
	if err != nil {
		return Status{Configured: true, Error: err.Error()}
	}
	req.Header = b.headers()

	resp, err := b.Client.Do(req)
	if err != nil {
		return Status{Configured: true, Error: err.Error()}
	}
	defer resp.Body.Close()

	return Status{Configured: true, Connected: resp.StatusCode == http.StatusOK, StatusCode: resp.StatusCode}
}

// Account is a remote accounting-bridge company/account, grounded on
// list_companies.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListAccounts returns the remote accounts available for sync, or an
// empty slice if the bridge isn't configured (never an error, matching
// list_companies' swallow-and-log-empty behavior).
func (b *Bridge) ListAccounts(ctx context.Context) []Account {
	if !b.Config.IsConfigured() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.Config.APIURL+"/companies", nil)
	if err != nil {
		tl.Log(tl.Warning, palette.Yellow, "bridge list accounts request build failed: %s", err)
		return nil
	}
	req.Header = b.headers()

	resp, err := b.Client.Do(req)
	if err != nil {
		tl.Log(tl.Warning, palette.Yellow, "bridge list accounts error: %s", err)
		return nil
	}
	defer resp.Body.Close()

	var parsed struct {
		Accounts []Account `json:"companies"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&parsed); decodeErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "bridge list accounts decode error: %s", decodeErr)
		return nil
	}
	return parsed.Accounts
}

// pushResult is the outcome of one document upload.
type pushResult struct {
	Success          bool
	RemoteDocumentID string
	RemoteBookingID  string
	Status           string
	Error            string
}

// uploadReceipt uploads one receipt's file plus structured booking data
// as a multipart request, grounded on upload_beleg_to_datev.
func (b *Bridge) uploadReceipt(ctx context.Context, accountID string, r model.Receipt) pushResult {
	if !b.Config.IsConfigured() {
		return pushResult{Error: "bridge nicht konfiguriert"}
	}

	payload := buildBookingPayload(accountID, r)
	payloadJSON, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return pushResult{Error: marshalErr.Error()}
	}

	file, openErr := os.Open(r.FilePath)
	if openErr != nil {
		return pushResult{Error: "Datei nicht gefunden: " + r.FilePath}
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("payload", string(payloadJSON)); err != nil {
		return pushResult{Error: err.Error()}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(r.FileName))
	if err != nil {
		return pushResult{Error: err.Error()}
	}
	if _, err := io.Copy(part, file); err != nil {
		return pushResult{Error: err.Error()}
	}
	if err := writer.Close(); err != nil {
		return pushResult{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Config.APIURL+"/documents", &body)
	if err != nil {
		return pushResult{Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+b.Config.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.Client.Do(req)
	if err != nil {
		return pushResult{Error: err.Error()}
	}
	defer resp.Body.Close()

	respBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return pushResult{Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBytes))}
	}

	var parsed struct {
		ID                string `json:"id"`
		BookingProposalID string `json:"booking_proposal_id"`
		Status            string `json:"status"`
	}
	if decodeErr := json.Unmarshal(respBytes, &parsed); decodeErr != nil {
		return pushResult{Error: decodeErr.Error()}
	}

	status := parsed.Status
	if status == "" {
		status = "uploaded"
	}
	return pushResult{Success: true, RemoteDocumentID: parsed.ID, RemoteBookingID: parsed.BookingProposalID, Status: status}
}

// bookingPayload mirrors upload_beleg_to_datev's payload shape.
type bookingPayload struct {
	AccountID string `json:"account_id"`
	Document  struct {
		FileName string `json:"filename"`
		Category string `json:"category"`
	} `json:"document"`
	BookingProposal *bookingProposal `json:"booking_proposal,omitempty"`
	Metadata        *bookingMetadata `json:"metadata,omitempty"`
}

type bookingProposal struct {
	AmountGross    *float64 `json:"amount,omitempty"`
	AmountNet      *float64 `json:"amount_net,omitempty"`
	TaxRate        *float64 `json:"tax_rate,omitempty"`
	TaxAmount      *float64 `json:"tax_amount,omitempty"`
	Date           string   `json:"date,omitempty"`
	Description    string   `json:"description,omitempty"`
	Vendor         string   `json:"vendor,omitempty"`
	InvoiceNumber  string   `json:"invoice_number,omitempty"`
	Account        string   `json:"account,omitempty"`
	CounterAccount string   `json:"counter_account,omitempty"`
	TaxCode        string   `json:"bu_code,omitempty"`
	CostCenter     string   `json:"cost_center,omitempty"`
	TaxCategory    string   `json:"tax_category,omitempty"`
}

type bookingMetadata struct {
	SourceGrounding      []model.ProvenanceSpan `json:"source_grounding,omitempty"`
	ExtractionMethod     model.ExtractionMethod `json:"extraction_method,omitempty"`
	ExtractionConfidence model.ConfidenceTier   `json:"extraction_confidence,omitempty"`
}

func buildBookingPayload(accountID string, r model.Receipt) bookingPayload {
	var p bookingPayload
	p.AccountID = accountID
	p.Document.FileName = r.FileName

	kind := model.KindOther
	if r.Fields.DocumentKind != nil {
		kind = *r.Fields.DocumentKind
	}
	p.Document.Category = mapDocumentKindToBridgeCategory(kind)

	counterAccount := "1200"
	if r.Fields.CounterAccount != nil {
		counterAccount = *r.Fields.CounterAccount
	}

	proposal := &bookingProposal{
		AmountGross:    r.Fields.GrossAmount,
		AmountNet:      r.Fields.NetAmount,
		TaxRate:        r.Fields.VATRate,
		TaxAmount:      r.Fields.VATAmount,
		CounterAccount: counterAccount,
	}
	if r.Fields.DocumentDate != nil {
		proposal.Date = formatDateISO(*r.Fields.DocumentDate)
	}
	if r.Fields.Description != nil {
		proposal.Description = *r.Fields.Description
	}
	if r.Fields.Issuer != nil {
		proposal.Vendor = *r.Fields.Issuer
	}
	if r.Fields.InvoiceNumber != nil {
		proposal.InvoiceNumber = *r.Fields.InvoiceNumber
	}
	if r.Fields.AccountCode != nil {
		proposal.Account = *r.Fields.AccountCode
	}
	if r.Fields.TaxCode != nil {
		proposal.TaxCode = *r.Fields.TaxCode
	}
	if r.Fields.CostCenter != nil {
		proposal.CostCenter = *r.Fields.CostCenter
	}
	if r.Fields.TaxCategory != nil {
		proposal.TaxCategory = *r.Fields.TaxCategory
	}
	p.BookingProposal = proposal

	if len(r.ProvenanceSpans) > 0 {
		p.Metadata = &bookingMetadata{
			SourceGrounding:      r.ProvenanceSpans,
			ExtractionMethod:     r.ExtractionMethod,
			ExtractionConfidence: r.ExtractionConfidence,
		}
	}

	return p
}

var documentKindToBridgeCategory = map[model.DocumentKind]string{
	model.KindInvoice:            "incoming_invoice",
	model.KindTradesmanInvoice:   "incoming_invoice",
	model.KindPayrollCertificate: "payroll",
	model.KindDonationReceipt:    "donation_receipt",
	model.KindInsuranceCert:      "insurance",
	model.KindBankStatement:      "bank_statement",
	model.KindUtilityBill:        "utility_bill",
	model.KindMedicalInvoice:     "incoming_invoice",
	model.KindTravelExpense:      "travel_expense",
	model.KindEntertainmentBill:  "entertainment",
}

func mapDocumentKindToBridgeCategory(kind model.DocumentKind) string {
	if category, ok := documentKindToBridgeCategory[kind]; ok {
		return category
	}
	return "other"
}

// formatDateISO converts TT.MM.JJJJ (or TT-MM-JJJJ) to YYYY-MM-DD, best
// effort; an unparseable date is returned unchanged.
func formatDateISO(datum string) string {
	datum = strings.ReplaceAll(datum, "-", ".")
	parts := strings.Split(datum, ".")
	if len(parts) != 3 {
		return datum
	}
	day, month, year := parts[0], parts[1], parts[2]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month + "-" + day
}

// SyncResult summarizes one batch sync call.
type SyncResult struct {
	Total   int
	Success int
	Errors  int
}

// Sync pushes every unsynced, reviewed-or-extracted receipt in a tax year
// to accountID, writing a push log row for every attempt regardless of
// outcome (§4.12's "every attempt writes to the push log"). On success a
// receipt's push status becomes synced and its status transitions to
// pushed; on failure its state is left alone (§7: bridge errors never
// transition a receipt out of reviewed).
func (b *Bridge) Sync(ctx context.Context, taxYearID, accountID string) SyncResult {
	extracted := b.Store.ListReceiptsByTaxYear(taxYearID, model.StatusExtracted)
	reviewed := b.Store.ListReceiptsByTaxYear(taxYearID, model.StatusReviewed)
	candidates := append(extracted, reviewed...)

	result := SyncResult{}
	clientID := ""
	if ty, err := b.Store.GetTaxYear(taxYearID); err == nil {
		clientID = ty.ClientID
	}
	for _, r := range candidates {
		if r.PushStatus == model.PushSynced {
			continue
		}
		result.Total++

		pushResult := b.uploadReceipt(ctx, accountID, r)

		logEntry := model.PushLog{
			ReceiptID: r.ID,
			ClientID:  clientID,
			Action:    "sync",
		}

		if pushResult.Success {
			result.Success++
			r.PushStatus = model.PushSynced
			r.Status = model.StatusPushed
			now := time.Now()
			r.PushedAt = &now
			r.RemoteDocumentID = pushResult.RemoteDocumentID
			r.RemoteBookingID = pushResult.RemoteBookingID
			logEntry.Status = "success"
			logEntry.ResponseSummary = fmt.Sprintf("document=%s booking=%s status=%s", pushResult.RemoteDocumentID, pushResult.RemoteBookingID, pushResult.Status)
		} else {
			result.Errors++
			r.PushStatus = model.PushError
			logEntry.Status = "error"
			logEntry.ErrorNote = pushResult.Error
		}

		if _, err := b.Store.SaveReceipt(r); err != nil {
			tl.Log(tl.Warning, palette.Yellow, "bridge sync: failed to save receipt %s after push attempt: %s", r.ID, err)
		}
		b.Store.AppendPushLog(logEntry)
	}

	return result
}
