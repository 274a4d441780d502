// Package model defines the core entities of the receipt pipeline: clients,
// tax years, receipts, OCR geometry, provenance spans, and push log rows.
package model

import "time"

// TaxYearStatus is the lifecycle state of a TaxYear.
type TaxYearStatus string

const (
	TaxYearOpen       TaxYearStatus = "offen"
	TaxYearInProgress TaxYearStatus = "in_bearbeitung"
	TaxYearClosed     TaxYearStatus = "geschlossen"
)

// ReceiptStatus is the pipeline state of a Receipt. See src/pkg/pipeline for
// the allowed transitions between these values.
type ReceiptStatus string

const (
	StatusUploaded          ReceiptStatus = "hochgeladen"
	StatusOCRRunning        ReceiptStatus = "ocr_laeuft"
	StatusOCRDone           ReceiptStatus = "ocr_fertig"
	StatusExtractionRunning ReceiptStatus = "extraktion_laeuft"
	StatusExtracted         ReceiptStatus = "extrahiert"
	StatusReviewed          ReceiptStatus = "geprueft"
	StatusPushed            ReceiptStatus = "an_buchhaltung"
	StatusError             ReceiptStatus = "fehler"
)

// ConfidenceTier is the extractor's self-assessed reliability of a Receipt's
// structured fields.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "hoch"
	ConfidenceMedium ConfidenceTier = "mittel"
	ConfidenceLow    ConfidenceTier = "niedrig"
)

// ExtractionMethod tags how a Receipt's structured fields were produced.
type ExtractionMethod string

const (
	ExtractionMethodDirect       ExtractionMethod = "llm_direkt"
	ExtractionMethodVisionMerged ExtractionMethod = "vision_merged"
)

// DocumentKind is the closed vocabulary the Classifier and Completeness
// Detector operate over.
type DocumentKind string

const (
	KindInvoice             DocumentKind = "rechnung"
	KindTradesmanInvoice    DocumentKind = "handwerkerrechnung"
	KindPayrollCertificate  DocumentKind = "lohnsteuerbescheinigung"
	KindDonationReceipt     DocumentKind = "spendenbescheinigung"
	KindInsuranceCert       DocumentKind = "versicherungsnachweis"
	KindBankStatement       DocumentKind = "kontoauszug"
	KindUtilityBill         DocumentKind = "nebenkostenabrechnung"
	KindMedicalInvoice      DocumentKind = "arztrechnung"
	KindTravelExpense       DocumentKind = "fahrtkosten"
	KindEntertainmentBill   DocumentKind = "bewirtungsbeleg"
	KindCashRegisterSlip    DocumentKind = "kassenbon"
	KindOther               DocumentKind = "sonstiges"
)

// PushStatus is the bridge sync state carried on a Receipt.
type PushStatus string

const (
	PushNone    PushStatus = ""
	PushPending PushStatus = "pending"
	PushSynced  PushStatus = "synced"
	PushError   PushStatus = "error"
)

// Client owns zero or more TaxYears. Identity plus optional external
// bookkeeping identifiers used by the bridge.
type Client struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Firma            string    `json:"firma,omitempty"`
	Steuernummer     string    `json:"steuernummer,omitempty"`
	SteuerID         string    `json:"steuer_id,omitempty"`
	Email            string    `json:"email,omitempty"`
	Telefon          string    `json:"telefon,omitempty"`
	Adresse          string    `json:"adresse,omitempty"`
	Notizen          string    `json:"notizen,omitempty"`
	Aktiv            bool      `json:"aktiv"`
	BridgeAccountID  string    `json:"bridge_account_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TaxYear is unique per (client, year). Owns zero or more Receipts.
type TaxYear struct {
	ID        string        `json:"id"`
	ClientID  string        `json:"client_id"`
	Jahr      int           `json:"jahr"`
	Status    TaxYearStatus `json:"status"`
	Notizen   string        `json:"notizen,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// OCRWord is a single OCR token with its geometry in original-image pixel
// space and its character interval in the assembled text.
type OCRWord struct {
	Text       string  `json:"text"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	W          int     `json:"w"`
	H          int     `json:"h"`
	Conf       float64 `json:"conf"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	BlockID    int     `json:"-"`
	LineID     int     `json:"-"`
}

// OCRPage holds the words recognized on one page, plus the page's original
// pixel dimensions.
type OCRPage struct {
	Page   int       `json:"page"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Words  []OCRWord `json:"words"`
}

// OCRGeometry is the full per-document OCR result, serialized as JSON on the
// Receipt.
type OCRGeometry struct {
	Pages []OCRPage `json:"pages"`
}

// BBox is a pixel-space bounding box in original-image coordinates.
type BBox struct {
	Page int `json:"page"`
	X    int `json:"x"`
	Y    int `json:"y"`
	W    int `json:"w"`
	H    int `json:"h"`
}

// ProvenanceSpan ties one structured field to the verbatim OCR text interval
// it was read from, and optionally the pixel region that interval occupies.
type ProvenanceSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
	Feld  string `json:"feld"`
	BBox  *BBox  `json:"bbox,omitempty"`
}

// Fields are the structured, nullable fields the Extractor populates on a
// Receipt. Pointer types carry explicit absence.
type Fields struct {
	DocumentKind     *DocumentKind `json:"beleg_typ,omitempty"`
	Issuer           *string       `json:"aussteller,omitempty"`
	Description      *string       `json:"beschreibung,omitempty"`
	InvoiceNumber    *string       `json:"rechnungsnummer,omitempty"`
	DocumentDate     *string       `json:"datum_beleg,omitempty"` // DD.MM.YYYY
	GrossAmount      *float64      `json:"betrag_brutto,omitempty"`
	NetAmount        *float64      `json:"betrag_netto,omitempty"`
	VATRate          *float64      `json:"mwst_satz,omitempty"`
	VATAmount        *float64      `json:"mwst_betrag,omitempty"`
	Labor35a         *float64      `json:"arbeitskosten_35a,omitempty"`
	MaterialCost     *float64      `json:"materialkosten,omitempty"`
	TaxCategory      *string       `json:"steuer_kategorie,omitempty"`
	AccountCode      *string       `json:"skr03_konto,omitempty"`
	AccountName      *string       `json:"skr03_bezeichnung,omitempty"`
	CounterAccount   *string       `json:"gegenkonto,omitempty"`
	TaxCode          *string       `json:"bu_schluessel,omitempty"`
	CostCenter       *string       `json:"kostenstelle,omitempty"`
}

// Receipt is the central entity: one uploaded document and everything
// derived from it.
type Receipt struct {
	ID         string `json:"id"`
	TaxYearID  string `json:"tax_year_id"`
	FileName   string `json:"dateiname"`
	FilePath   string `json:"dateipfad"`
	FileType   string `json:"dateityp"`
	FileSize   int64  `json:"dateigroesse"`

	OCRText       string       `json:"ocr_text,omitempty"`
	OCRConfidence float64      `json:"ocr_konfidenz"`
	OCRGeometry   *OCRGeometry `json:"ocr_geometrie,omitempty"`

	Status    ReceiptStatus `json:"status"`
	ErrorNote string        `json:"fehlernotiz,omitempty"`

	Fields                Fields           `json:"felder"`
	ProvenanceSpans       []ProvenanceSpan `json:"quellreferenzen,omitempty"`
	ExtractionMethod      ExtractionMethod `json:"extraktion_methode,omitempty"`
	ExtractionConfidence  ConfidenceTier   `json:"extraktion_konfidenz,omitempty"`

	PushStatus       PushStatus `json:"push_status,omitempty"`
	PushedAt         *time.Time `json:"pushed_at,omitempty"`
	RemoteDocumentID string     `json:"remote_document_id,omitempty"`
	RemoteBookingID  string     `json:"remote_booking_id,omitempty"`

	ManuallyReviewed bool   `json:"manuell_geprueft"`
	ReviewNote       string `json:"pruefnotiz,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PushLog is an immutable audit row for one bridge-push attempt.
type PushLog struct {
	ID              string    `json:"id"`
	ReceiptID       string    `json:"receipt_id"`
	ClientID        string    `json:"client_id"`
	Action          string    `json:"aktion"`
	Status          string    `json:"status"` // success | error
	RequestSummary  string    `json:"request_summary,omitempty"`
	ResponseSummary string    `json:"response_summary,omitempty"`
	ErrorNote       string    `json:"fehlernotiz,omitempty"`
	Timestamp       time.Time `json:"zeitpunkt"`
}
