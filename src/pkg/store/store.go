// Package store implements the persistence contract spec.md declares
// out of scope as "an ORM-backed relational store" and SPEC_FULL.md
// models instead as an in-memory, mutex-guarded repository: the same
// row-scoped-update discipline a real database would give the
// orchestrator, without pulling in gorm (left unwired; see DESIGN.md).
// Grounded on the teacher's general shape of package-level state guarded
// by a single mutex (src/pkg/echo-middleware's rate limiter keeps a
// map[string]*rate.Limiter behind a sync.Mutex in the same style).
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"belegpilot/src/pkg/model"
)

// ErrNotFound is returned when a lookup by id finds nothing.
type ErrNotFound struct{ Kind, ID string }

func (e *ErrNotFound) Error() string {
	return e.Kind + " " + e.ID + " not found"
}

// Store is a single in-process repository for every entity this system
// owns. All methods are safe for concurrent use.
type Store struct {
	mu sync.Mutex

	clients  map[string]model.Client
	taxYears map[string]model.TaxYear
	receipts map[string]model.Receipt
	pushLogs []model.PushLog
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		clients:  map[string]model.Client{},
		taxYears: map[string]model.TaxYear{},
		receipts: map[string]model.Receipt{},
	}
}

func newID() string {
	return uuid.NewString()
}

// --- Clients ---

func (s *Store) CreateClient(c model.Client) model.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c.ID = newID()
	c.Aktiv = true
	c.CreatedAt = now
	c.UpdatedAt = now
	s.clients[c.ID] = c
	return c
}

func (s *Store) GetClient(id string) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[id]
	if !ok {
		return model.Client{}, &ErrNotFound{Kind: "client", ID: id}
	}
	return c, nil
}

func (s *Store) ListClients() []model.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) UpdateClient(c model.Client) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.clients[c.ID]
	if !ok {
		return model.Client{}, &ErrNotFound{Kind: "client", ID: c.ID}
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now()
	s.clients[c.ID] = c
	return c, nil
}

// DeleteClient cascades: every TaxYear owned by this client, and every
// Receipt owned by those TaxYears, is removed too (§3's lifecycle rule).
func (s *Store) DeleteClient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return &ErrNotFound{Kind: "client", ID: id}
	}

	var taxYearIDs []string
	for tyID, ty := range s.taxYears {
		if ty.ClientID == id {
			taxYearIDs = append(taxYearIDs, tyID)
		}
	}
	for _, tyID := range taxYearIDs {
		s.deleteTaxYearLocked(tyID)
	}
	delete(s.clients, id)
	return nil
}

// --- TaxYears ---

func (s *Store) CreateTaxYear(ty model.TaxYear) (model.TaxYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[ty.ClientID]; !ok {
		return model.TaxYear{}, &ErrNotFound{Kind: "client", ID: ty.ClientID}
	}
	ty.ID = newID()
	if ty.Status == "" {
		ty.Status = model.TaxYearOpen
	}
	ty.CreatedAt = time.Now()
	s.taxYears[ty.ID] = ty
	return ty, nil
}

func (s *Store) GetTaxYear(id string) (model.TaxYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ty, ok := s.taxYears[id]
	if !ok {
		return model.TaxYear{}, &ErrNotFound{Kind: "tax_year", ID: id}
	}
	return ty, nil
}

func (s *Store) ListTaxYearsByClient(clientID string) []model.TaxYear {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.TaxYear, 0)
	for _, ty := range s.taxYears {
		if ty.ClientID == clientID {
			out = append(out, ty)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Jahr < out[j].Jahr })
	return out
}

func (s *Store) UpdateTaxYear(ty model.TaxYear) (model.TaxYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.taxYears[ty.ID]
	if !ok {
		return model.TaxYear{}, &ErrNotFound{Kind: "tax_year", ID: ty.ID}
	}
	ty.ClientID = existing.ClientID
	ty.CreatedAt = existing.CreatedAt
	s.taxYears[ty.ID] = ty
	return ty, nil
}

func (s *Store) DeleteTaxYear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.taxYears[id]; !ok {
		return &ErrNotFound{Kind: "tax_year", ID: id}
	}
	s.deleteTaxYearLocked(id)
	return nil
}

func (s *Store) deleteTaxYearLocked(id string) {
	var receiptIDs []string
	for rID, r := range s.receipts {
		if r.TaxYearID == id {
			receiptIDs = append(receiptIDs, rID)
		}
	}
	for _, rID := range receiptIDs {
		delete(s.receipts, rID)
	}
	delete(s.taxYears, id)
}

// --- Receipts ---

func (s *Store) CreateReceipt(r model.Receipt) (model.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.taxYears[r.TaxYearID]; !ok {
		return model.Receipt{}, &ErrNotFound{Kind: "tax_year", ID: r.TaxYearID}
	}
	r.ID = newID()
	if r.Status == "" {
		r.Status = model.StatusUploaded
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.receipts[r.ID] = r
	return r, nil
}

func (s *Store) GetReceipt(id string) (model.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.receipts[id]
	if !ok {
		return model.Receipt{}, &ErrNotFound{Kind: "receipt", ID: id}
	}
	return r, nil
}

func (s *Store) ListReceiptsByTaxYear(taxYearID string, status model.ReceiptStatus) []model.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Receipt, 0)
	for _, r := range s.receipts {
		if r.TaxYearID != taxYearID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ListAllReceipts returns every receipt across every tax year, used by the
// dashboard aggregate (SUPPLEMENTED FEATURE 1, SPEC_FULL.md).
func (s *Store) ListAllReceipts() []model.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// SaveReceipt overwrites a receipt's full row, the atomic per-phase commit
// boundary §3's lifecycle rule and §4.11 require: a caller builds the next
// full state and calls SaveReceipt once, so a reader never observes a
// half-written phase.
func (s *Store) SaveReceipt(r model.Receipt) (model.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.receipts[r.ID]
	if !ok {
		return model.Receipt{}, &ErrNotFound{Kind: "receipt", ID: r.ID}
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now()
	s.receipts[r.ID] = r
	return r, nil
}

func (s *Store) DeleteReceipt(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.receipts[id]; !ok {
		return &ErrNotFound{Kind: "receipt", ID: id}
	}
	delete(s.receipts, id)
	return nil
}

// --- Push log ---

func (s *Store) AppendPushLog(entry model.PushLog) model.PushLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = newID()
	entry.Timestamp = time.Now()
	s.pushLogs = append(s.pushLogs, entry)
	return entry
}

func (s *Store) ListPushLogByClient(clientID string) []model.PushLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.PushLog, 0)
	for _, e := range s.pushLogs {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
