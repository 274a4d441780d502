package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"belegpilot/src/pkg/model"
	"belegpilot/src/pkg/store"
)

func TestIsConfigured(t *testing.T) {
	if (Config{}).IsConfigured() {
		t.Fatalf("expected an empty config to be unconfigured")
	}
	if !(Config{APIKey: "secret"}).IsConfigured() {
		t.Fatalf("expected a config with an API key to be configured")
	}
}

func TestTestConnection_ReportsUnconfigured(t *testing.T) {
	b := New(Config{}, store.New())
	status := b.TestConnection(context.Background())
	if status.Configured {
		t.Fatalf("expected Configured=false for an empty API key")
	}
}

func TestTestConnection_ReflectsRemoteStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := New(Config{APIURL: srv.URL, APIKey: "secret"}, store.New())
	status := b.TestConnection(context.Background())
	if !status.Connected {
		t.Fatalf("expected Connected=true for a 200 response")
	}
}

func TestSync_RecordsPushLogOnUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"doc-1","booking_proposal_id":"book-1","status":"uploaded"}`))
	}))
	defer srv.Close()

	st := store.New()
	c := st.CreateClient(model.Client{Name: "Mandant"})
	ty, _ := st.CreateTaxYear(model.TaxYear{ClientID: c.ID, Jahr: 2024})

	gross := 119.0
	r, _ := st.CreateReceipt(model.Receipt{TaxYearID: ty.ID, FileName: "beleg.png", FilePath: "/tmp/does-not-exist-bridge-test.png", Status: model.StatusExtracted, Fields: model.Fields{GrossAmount: &gross}})

	b := New(Config{APIURL: srv.URL, APIKey: "secret"}, st)
	result := b.Sync(context.Background(), ty.ID, c.ID)

	if result.Total != 1 {
		t.Fatalf("expected 1 candidate, got %d", result.Total)
	}
	if result.Success != 0 || result.Errors != 1 {
		t.Fatalf("expected the missing file to fail upload, got success=%d errors=%d", result.Success, result.Errors)
	}

	logs := st.ListPushLogByClient(c.ID)
	if len(logs) != 1 {
		t.Fatalf("expected exactly one push log entry regardless of outcome, got %d", len(logs))
	}
	if logs[0].Status != "error" {
		t.Fatalf("expected push log status 'error', got %q", logs[0].Status)
	}

	reloaded, _ := st.GetReceipt(r.ID)
	if reloaded.PushStatus != model.PushError {
		t.Fatalf("expected receipt push status 'error', got %q", reloaded.PushStatus)
	}
	if reloaded.Status != model.StatusExtracted {
		t.Fatalf("a failed bridge push must never change the receipt's pipeline status, got %q", reloaded.Status)
	}
}

func TestSync_SkipsAlreadySyncedReceipts(t *testing.T) {
	st := store.New()
	c := st.CreateClient(model.Client{Name: "Mandant"})
	ty, _ := st.CreateTaxYear(model.TaxYear{ClientID: c.ID, Jahr: 2024})

	gross := 50.0
	r, _ := st.CreateReceipt(model.Receipt{TaxYearID: ty.ID, FileName: "beleg.png", FilePath: "/tmp/x.png", Status: model.StatusExtracted, Fields: model.Fields{GrossAmount: &gross}})
	r.PushStatus = model.PushSynced
	st.SaveReceipt(r)

	b := New(Config{APIURL: "http://127.0.0.1:0", APIKey: "secret"}, st)
	result := b.Sync(context.Background(), ty.ID, c.ID)

	if result.Total != 0 {
		t.Fatalf("expected already-synced receipts to be skipped, got %d candidates", result.Total)
	}
}

func TestFormatDateISO(t *testing.T) {
	got := formatDateISO("03.07.2024")
	want := "2024-07-03"
	if got != want {
		t.Fatalf("formatDateISO(%q) = %q, want %q", "03.07.2024", got, want)
	}
}

func TestDDMM(t *testing.T) {
	if got := ddmm("3.7.2024"); got != "0307" {
		t.Fatalf("ddmm = %q, want 0307", got)
	}
}

func TestFormatGermanAmount(t *testing.T) {
	if got := formatGermanAmount(1234.5); got != "1234,50" {
		t.Fatalf("formatGermanAmount = %q, want 1234,50", got)
	}
}

func TestGenerateCSV_SkipsReceiptsWithoutGrossAmount(t *testing.T) {
	issuer := "Handwerker Mueller"
	date := "05.03.2024"
	withAmount := 238.0
	withGross := model.Receipt{
		Fields: model.Fields{
			GrossAmount:  &withAmount,
			Issuer:       &issuer,
			DocumentDate: &date,
		},
	}
	withoutGross := model.Receipt{Fields: model.Fields{Issuer: &issuer}}

	csv := GenerateCSV([]model.Receipt{withGross, withoutGross}, "Mandant GmbH", 2024)

	lines := strings.Split(strings.TrimRight(csv, "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("expected metadata + header + 1 data row, got %d lines:\n%s", len(lines), csv)
	}
	if !strings.Contains(lines[2], `"238,00"`) {
		t.Fatalf("expected the data row to contain the formatted gross amount, got %q", lines[2])
	}
	if !strings.Contains(lines[2], `"0503"`) {
		t.Fatalf("expected the data row to contain the truncated DDMM date, got %q", lines[2])
	}
}

func TestGenerateCSV_DefaultsAccountsWhenUnclassified(t *testing.T) {
	amount := 10.0
	r := model.Receipt{Fields: model.Fields{GrossAmount: &amount}}

	csv := GenerateCSV([]model.Receipt{r}, "Mandant", 2024)
	lines := strings.Split(strings.TrimRight(csv, "\r\n"), "\r\n")
	row := lines[len(lines)-1]

	if !strings.Contains(row, `"4900"`) || !strings.Contains(row, `"1200"`) {
		t.Fatalf("expected default account/counter-account placeholders, got %q", row)
	}
}

func TestGenerateCSV_NarrativeTruncatedTo60Chars(t *testing.T) {
	amount := 10.0
	longDescription := strings.Repeat("x", 120)
	r := model.Receipt{Fields: model.Fields{GrossAmount: &amount, Description: &longDescription}}

	csv := GenerateCSV([]model.Receipt{r}, "Mandant", 2024)
	if strings.Contains(csv, strings.Repeat("x", 61)) {
		t.Fatalf("expected narrative to be truncated to 60 characters")
	}
	if !strings.Contains(csv, strings.Repeat("x", 60)) {
		t.Fatalf("expected a 60-character narrative to survive untruncated")
	}
}
