package classify

import (
	"testing"

	"belegpilot/src/pkg/model"
)

func TestClassify_TradesmanInvoice_S1(t *testing.T) {
	account := Classify(model.KindTradesmanInvoice, nil)
	if account.Code != "4946" || account.Name != "Fremdleistungen" || account.DefaultCode != "3" {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestClassify_UnknownKindFallsThrough(t *testing.T) {
	account := Classify(model.DocumentKind("does-not-exist"), nil)
	if account != fallbackAccount {
		t.Fatalf("expected fallback account, got %+v", account)
	}
}

func TestClassify_DerivesTaxCodeFromVATRate(t *testing.T) {
	high := 19.0
	mid := 7.0
	low := 0.0

	if got := Classify(model.KindTravelExpense, &high).DefaultCode; got != "3" {
		t.Fatalf("expected tax code 3 for 19%% VAT, got %q", got)
	}
	if got := Classify(model.KindTravelExpense, &mid).DefaultCode; got != "2" {
		t.Fatalf("expected tax code 2 for 7%% VAT, got %q", got)
	}
	if got := Classify(model.KindTravelExpense, &low).DefaultCode; got != "" {
		t.Fatalf("expected empty tax code for 0%% VAT, got %q", got)
	}
}

func TestClassify_IsDeterministic(t *testing.T) {
	a := Classify(model.KindTradesmanInvoice, nil)
	b := Classify(model.KindTradesmanInvoice, nil)
	if a != b {
		t.Fatalf("expected deterministic classification")
	}
}

func TestDetectMissing_AllAbsent(t *testing.T) {
	report := DetectMissing(nil)
	if len(report.Missing) != len(catalog) {
		t.Fatalf("expected all %d catalog kinds missing, got %d", len(catalog), len(report.Missing))
	}
	if report.Recommendations[0].Tier != TierMandatory {
		t.Fatalf("expected mandatory tier first, got %+v", report.Recommendations[0])
	}
}

func TestDetectMissing_PresenceIsSetBased(t *testing.T) {
	kinds := []model.DocumentKind{
		model.KindPayrollCertificate,
		model.KindPayrollCertificate, // duplicate must not matter
	}
	report := DetectMissing(kinds)
	for _, m := range report.Missing {
		if m == model.KindPayrollCertificate {
			t.Fatalf("payroll certificate should not be reported missing")
		}
	}
}
