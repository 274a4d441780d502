// Package classify implements C9 (Classifier) and C10 (Completeness
// Detector): a fixed document-kind -> chart-of-accounts mapping and a
// tiered catalog of expected document kinds per tax year. Both tables are
// carried over field-for-field from
// original_source/backend/app/services/extraction_service.py's
// KONTIERUNG_MAP and ERWARTETE_BELEGE.
package classify

import "belegpilot/src/pkg/model"

// Account is the result of classifying a document kind: a chart-of-accounts
// code, its description, and a default tax code (may be empty, in which
// case the caller derives one from the VAT rate).
type Account struct {
	Code        string
	Name        string
	DefaultCode string // "bu_schluessel"
}

// accountTable mirrors KONTIERUNG_MAP exactly.
var accountTable = map[model.DocumentKind]Account{
	model.KindTradesmanInvoice:   {Code: "4946", Name: "Fremdleistungen", DefaultCode: "3"},
	model.KindInvoice:            {Code: "4900", Name: "Sonst. betriebl. Aufwendungen", DefaultCode: "3"},
	model.KindDonationReceipt:    {Code: "6300", Name: "Sonst. betriebl. Aufwendungen", DefaultCode: ""},
	model.KindEntertainmentBill:  {Code: "4650", Name: "Bewirtungskosten", DefaultCode: "3"},
	model.KindTravelExpense:      {Code: "4500", Name: "Fahrzeugkosten", DefaultCode: ""},
	model.KindMedicalInvoice:     {Code: "4900", Name: "Sonst. betriebl. Aufwendungen", DefaultCode: ""},
	model.KindInsuranceCert:      {Code: "4300", Name: "Versicherungen", DefaultCode: ""},
	model.KindUtilityBill:        {Code: "4210", Name: "Miete", DefaultCode: ""},
	model.KindPayrollCertificate: {Code: "4120", Name: "Gehälter", DefaultCode: ""},
}

// fallbackAccount is what an unrecognized or unset document kind falls
// through to: a generic "other operating expense" account.
var fallbackAccount = Account{Code: "4900", Name: "Sonst. betriebl. Aufwendungen", DefaultCode: ""}

// Classify returns the chart-of-accounts mapping for kind. If the table's
// default tax code is empty and vatRate is non-nil, it is derived from the
// VAT rate: >=15 -> "3", >=5 -> "2", else "". Classify is total and
// deterministic: same inputs always produce the same output.
func Classify(kind model.DocumentKind, vatRate *float64) Account {
	account, ok := accountTable[kind]
	if !ok {
		account = fallbackAccount
	}

	if account.DefaultCode == "" && vatRate != nil {
		account.DefaultCode = deriveTaxCode(*vatRate)
	}

	return account
}

func deriveTaxCode(vatRate float64) string {
	switch {
	case vatRate >= 15:
		return "3"
	case vatRate >= 5:
		return "2"
	default:
		return ""
	}
}
