// Package extract implements C8, the Extractor: it drives the LLM Generate
// Client (C4) with a contract prompt, parses output via the JSON Recovery
// Parser (C5), normalizes values, localizes quotes via the Quote Locator
// (C6), optionally runs a vision dual-pass, enriches via the BBox Enricher
// (C7), classifies the document (C9), and scores confidence.
//
// Grounded on the teacher's pkg/llm/analyze-receipt*.go (the two-pass
// text+vision shape and prompt/schema-as-literal style) and
// original_source/backend/app/services/extraction_service.py almost
// line for line: the field vocabulary, sentinel cleaning, fallback
// localization variants, and confidence thresholds.
package extract

// Field name constants, matching the JSON keys the LLM is asked to emit
// and model.Fields' german column names.
const (
	FieldDocumentKind  = "beleg_typ"
	FieldIssuer        = "aussteller"
	FieldDescription   = "beschreibung"
	FieldInvoiceNumber = "rechnungsnummer"
	FieldDocumentDate  = "datum_beleg"
	FieldGrossAmount   = "betrag_brutto"
	FieldNetAmount     = "betrag_netto"
	FieldVATRate       = "mwst_satz"
	FieldVATAmount     = "mwst_betrag"
	FieldLabor35a      = "arbeitskosten_35a"
	FieldMaterialCost  = "materialkosten"
	FieldTaxCategory   = "steuer_kategorie"
)

// optionalMoneyFields is the set the Clean step treats zero-as-unknown for,
// per §4.7.3.
var optionalMoneyFields = map[string]bool{
	FieldNetAmount: true,
	FieldVATAmount: true,
	FieldVATRate:   true,
	FieldLabor35a:  true,
	FieldMaterialCost: true,
}

// numericFields is the full set of fields coerced to float64, the
// "explicit list of recognized numeric fields" §9's design note calls for.
var numericFields = map[string]bool{
	FieldGrossAmount: true,
	FieldNetAmount:   true,
	FieldVATRate:     true,
	FieldVATAmount:   true,
	FieldLabor35a:    true,
	FieldMaterialCost: true,
}

// TextPrompt builds the system+user prompt for the text extraction pass.
// It enumerates the exact field set and value constraints per §4.7's
// prompt contract: document-kind vocabulary, German-number normalization,
// TT.MM.JJJJ date format, explicit null for unknowns, the labor/material
// split rule, cash-register-slip handling, and the source-quote
// requirement.
func TextPrompt(ocrText string) string {
	return `Du bist ein Experte fuer die Digitalisierung deutscher Steuerbelege.

Lies den folgenden OCR-Text eines Belegs und extrahiere die folgenden Felder als JSON-Objekt.
Jeder Feldwert ist entweder ein einfacher Skalar ODER ein Objekt der Form
{"wert": <Wert>, "quelle": "<woertliches Zitat aus dem OCR-Text>"}.
Fuer abgeleitete/klassifizierende Felder (beleg_typ, steuer_kategorie) darf "quelle" null sein.
Wenn ein Feld im Text nicht vorkommt, setze "wert" explizit auf null (nicht "" oder 0).

Felder:
- beleg_typ: einer von rechnung, handwerkerrechnung, lohnsteuerbescheinigung, spendenbescheinigung,
  versicherungsnachweis, kontoauszug, nebenkostenabrechnung, arztrechnung, fahrtkosten,
  bewirtungsbeleg, kassenbon, sonstiges
- aussteller: Name der ausstellenden Firma/Person
- beschreibung: Kurzbeschreibung der Leistung
- rechnungsnummer: Rechnungs- oder Belegnummer
- datum_beleg: Belegdatum im Format TT.MM.JJJJ
- betrag_brutto: Bruttobetrag als Dezimalzahl (deutsches Zahlenformat wie "1.234,56" wird zu 1234.56)
- betrag_netto: Nettobetrag als Dezimalzahl
- mwst_satz: Mehrwertsteuersatz in Prozent als Zahl
- mwst_betrag: Mehrwertsteuerbetrag als Dezimalzahl
- arbeitskosten_35a: bei Handwerker-/Haushaltsnahen Rechnungen der Arbeitskostenanteil (netto), getrennt vom Materialanteil
- materialkosten: Materialkostenanteil (netto), getrennt von den Arbeitskosten
- steuer_kategorie: grobe steuerliche Kategorie der Ausgabe

Besonderheit Kassenbon: ein Kassenbon listet oft keinen Aussteller-Namensrahmen und kein Rechnungsdatum im
klassischen Format; extrahiere trotzdem so viel wie moeglich aus Kopf-/Fusszeile.

Antworte ausschliesslich mit dem JSON-Objekt, ohne weiteren Text.

OCR-Text:
` + ocrText
}

// VisionPrompt is the stricter, shorter field list for the dual-pass image
// re-read, with no source-grounding requirement (§4.8).
func VisionPrompt() string {
	return `Du siehst das Bild eines deutschen Steuerbelegs. Extrahiere, soweit erkennbar, ein JSON-Objekt mit
den Feldern: beleg_typ, aussteller, beschreibung, rechnungsnummer, datum_beleg (TT.MM.JJJJ), betrag_brutto,
betrag_netto, mwst_satz, mwst_betrag. Setze nicht erkennbare Felder auf null. Antworte ausschliesslich mit
dem JSON-Objekt, ohne weiteren Text.`
}
