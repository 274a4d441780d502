package store

import (
	"testing"

	"belegpilot/src/pkg/model"
)

func TestCreateClient_AssignsIDAndTimestamps(t *testing.T) {
	s := New()
	c := s.CreateClient(model.Client{Name: "Mandant A"})
	if c.ID == "" {
		t.Fatalf("expected an assigned id")
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
}

func TestDeleteClient_CascadesTaxYearsAndReceipts(t *testing.T) {
	s := New()
	c := s.CreateClient(model.Client{Name: "Mandant B"})
	ty, err := s.CreateTaxYear(model.TaxYear{ClientID: c.ID, Jahr: 2024})
	if err != nil {
		t.Fatalf("unexpected error creating tax year: %v", err)
	}
	r, err := s.CreateReceipt(model.Receipt{TaxYearID: ty.ID, FileName: "beleg.pdf"})
	if err != nil {
		t.Fatalf("unexpected error creating receipt: %v", err)
	}

	if err := s.DeleteClient(c.ID); err != nil {
		t.Fatalf("unexpected error deleting client: %v", err)
	}

	if _, err := s.GetTaxYear(ty.ID); err == nil {
		t.Fatalf("expected tax year to be cascaded away")
	}
	if _, err := s.GetReceipt(r.ID); err == nil {
		t.Fatalf("expected receipt to be cascaded away")
	}
}

func TestCreateReceipt_RejectsUnknownTaxYear(t *testing.T) {
	s := New()
	if _, err := s.CreateReceipt(model.Receipt{TaxYearID: "does-not-exist"}); err == nil {
		t.Fatalf("expected an error for an unknown tax year")
	}
}

func TestSaveReceipt_OverwritesFullRowAtomically(t *testing.T) {
	s := New()
	c := s.CreateClient(model.Client{Name: "Mandant C"})
	ty, _ := s.CreateTaxYear(model.TaxYear{ClientID: c.ID, Jahr: 2024})
	r, _ := s.CreateReceipt(model.Receipt{TaxYearID: ty.ID, FileName: "beleg.pdf"})

	r.Status = model.StatusOCRDone
	r.OCRText = "Rechnung ..."
	saved, err := s.SaveReceipt(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Status != model.StatusOCRDone || saved.OCRText != "Rechnung ..." {
		t.Fatalf("expected the full row to be overwritten, got %+v", saved)
	}

	reloaded, err := s.GetReceipt(r.ID)
	if err != nil {
		t.Fatalf("unexpected error reloading: %v", err)
	}
	if reloaded.Status != model.StatusOCRDone {
		t.Fatalf("expected reloaded receipt to reflect the save")
	}
}

func TestListReceiptsByTaxYear_FiltersByStatus(t *testing.T) {
	s := New()
	c := s.CreateClient(model.Client{Name: "Mandant D"})
	ty, _ := s.CreateTaxYear(model.TaxYear{ClientID: c.ID, Jahr: 2024})
	r1, _ := s.CreateReceipt(model.Receipt{TaxYearID: ty.ID, FileName: "a.pdf"})
	_, _ = s.CreateReceipt(model.Receipt{TaxYearID: ty.ID, FileName: "b.pdf"})

	r1.Status = model.StatusExtracted
	_, _ = s.SaveReceipt(r1)

	filtered := s.ListReceiptsByTaxYear(ty.ID, model.StatusExtracted)
	if len(filtered) != 1 || filtered[0].ID != r1.ID {
		t.Fatalf("expected exactly the extracted receipt, got %+v", filtered)
	}

	all := s.ListReceiptsByTaxYear(ty.ID, "")
	if len(all) != 2 {
		t.Fatalf("expected both receipts with no status filter, got %d", len(all))
	}
}
