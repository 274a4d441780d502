package extract

import "belegpilot/src/pkg/model"

// scoreConfidence implements §4.7.9's tiering rule. K counts how many of
// the four key fields (kind, gross amount, issuer, date) are populated; G
// counts how many of the three groundable key fields (gross amount,
// issuer, date) carry a provenance span. Cash-register slips get a looser
// threshold since they routinely lack a clean issuer/date line.
func scoreConfidence(kind model.DocumentKind, fields model.Fields, spans []model.ProvenanceSpan) model.ConfidenceTier {
	grounded := map[string]bool{}
	for _, s := range spans {
		grounded[s.Feld] = true
	}

	k := 0
	if fields.DocumentKind != nil {
		k++
	}
	if fields.GrossAmount != nil {
		k++
	}
	if fields.Issuer != nil {
		k++
	}
	if fields.DocumentDate != nil {
		k++
	}

	g := 0
	if fields.GrossAmount != nil && grounded[FieldGrossAmount] {
		g++
	}
	if fields.Issuer != nil && grounded[FieldIssuer] {
		g++
	}
	if fields.DocumentDate != nil && grounded[FieldDocumentDate] {
		g++
	}

	if kind == model.KindCashRegisterSlip {
		switch {
		case k >= 3 && g >= 1:
			return model.ConfidenceHigh
		case k >= 2:
			return model.ConfidenceMedium
		default:
			return model.ConfidenceLow
		}
	}

	switch {
	case k >= 4 && g >= 2:
		return model.ConfidenceHigh
	case k >= 2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
