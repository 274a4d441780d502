package extract

import (
	"belegpilot/src/pkg/locate"
	"belegpilot/src/pkg/model"
)

// bindFields converts cleaned, unwrapped values into a model.Fields struct
// and a provenance span per field that could be localized in ocrText,
// implementing §4.7.4 (localize via the LLM-supplied quote) and §4.7.5/6
// (fallback localization when the quote is absent, wrong, or unmatched).
func bindFields(values map[string]unwrapped, ocrText string) (model.Fields, []model.ProvenanceSpan) {
	var fields model.Fields
	var spans []model.ProvenanceSpan

	assignSpan := func(key string, m locate.Match) {
		spans = append(spans, model.ProvenanceSpan{
			Start: m.Start,
			End:   m.End,
			Text:  m.Matched,
			Feld:  key,
		})
	}

	localizeOne := func(key string, uv unwrapped, fallbackCandidates []string) {
		if uv.quote != "" {
			if m, ok := locate.Locate(ocrText, uv.quote); ok {
				assignSpan(key, m)
				return
			}
		}
		for _, candidate := range fallbackCandidates {
			if candidate == "" {
				continue
			}
			if m, ok := locate.Locate(ocrText, candidate); ok {
				assignSpan(key, m)
				return
			}
		}
	}

	for key, uv := range values {
		switch key {
		case FieldDocumentKind:
			if s, ok := coerceString(uv.value); ok {
				kind := model.DocumentKind(s)
				fields.DocumentKind = &kind
			}
			// derived/classifying field: no source grounding required.
		case FieldIssuer:
			if s, ok := coerceString(uv.value); ok {
				fields.Issuer = &s
				localizeOne(key, uv, []string{s})
			}
		case FieldDescription:
			if s, ok := coerceString(uv.value); ok {
				fields.Description = &s
				localizeOne(key, uv, []string{s})
			}
		case FieldInvoiceNumber:
			if s, ok := coerceString(uv.value); ok {
				fields.InvoiceNumber = &s
				localizeOne(key, uv, []string{s})
			}
		case FieldDocumentDate:
			if s, ok := coerceString(uv.value); ok {
				fields.DocumentDate = &s
				localizeOne(key, uv, []string{s})
			}
		case FieldTaxCategory:
			if s, ok := coerceString(uv.value); ok {
				fields.TaxCategory = &s
			}
			// derived/classifying field: no source grounding required.
		case FieldGrossAmount:
			if n, ok := coerceNumeric(key, uv.value); ok {
				fields.GrossAmount = &n
				localizeOne(key, uv, germanNumberVariants(n))
			}
		case FieldNetAmount:
			if n, ok := coerceNumeric(key, uv.value); ok {
				fields.NetAmount = &n
				localizeOne(key, uv, germanNumberVariants(n))
			}
		case FieldVATRate:
			if n, ok := coerceNumeric(key, uv.value); ok {
				fields.VATRate = &n
				localizeOne(key, uv, germanNumberVariants(n))
			}
		case FieldVATAmount:
			if n, ok := coerceNumeric(key, uv.value); ok {
				fields.VATAmount = &n
				localizeOne(key, uv, germanNumberVariants(n))
			}
		case FieldLabor35a:
			if n, ok := coerceNumeric(key, uv.value); ok {
				fields.Labor35a = &n
				localizeOne(key, uv, germanNumberVariants(n))
			}
		case FieldMaterialCost:
			if n, ok := coerceNumeric(key, uv.value); ok {
				fields.MaterialCost = &n
				localizeOne(key, uv, germanNumberVariants(n))
			}
		}
	}

	return fields, spans
}
