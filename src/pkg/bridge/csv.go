package bridge

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"belegpilot/src/pkg/model"
)

// csvHeader is the 14-column DATEV Buchungsstapel header row, grounded
// verbatim on generate_datev_csv's HEADER list.
var csvHeader = []string{
	"Umsatz (ohne Soll/Haben-Kz)",
	"Soll/Haben-Kennzeichen",
	"WKZ Umsatz",
	"Kurs",
	"Basis-Umsatz",
	"WKZ Basis-Umsatz",
	"Konto",
	"Gegenkonto (ohne BU-Schluessel)",
	"BU-Schluessel",
	"Belegdatum",
	"Belegfeld 1",
	"Belegfeld 2",
	"Skonto",
	"Buchungstext",
}

// GenerateCSV renders receipts as a DATEV Buchungsstapel-format CSV
// export (spec.md §4.12/§6), grounded directly on
// original_source/backend/app/datev/maesn_client.py's
// generate_datev_csv: a semicolon-delimited, fully-quoted CSV preceded
// by an EXTF metadata line, one row per receipt with a gross amount
// (receipts without one are skipped — nothing to book), amounts
// rendered with a German decimal comma, dates truncated to DDMM, and
// narratives truncated to 60 characters.
func GenerateCSV(receipts []model.Receipt, mandantName string, jahr int) string {
	var b strings.Builder

	b.WriteString(metadataLine(mandantName, jahr))
	b.WriteString("\r\n")
	b.WriteString(csvRow(csvHeader))
	b.WriteString("\r\n")

	for _, r := range receipts {
		if r.Fields.GrossAmount == nil {
			continue
		}
		b.WriteString(csvRow(receiptRow(r, jahr)))
		b.WriteString("\r\n")
	}

	return b.String()
}

// metadataLine mirrors generate_datev_csv's "EXTF";700;21;"Buchungsstapel";...
// header line: format version 700, category 21 (Buchungsstapel), the
// export timestamp, a fixed currency/consultant/client placeholder
// block, the fiscal year's first/last booking dates, and the client's
// display name.
func metadataLine(mandantName string, jahr int) string {
	now := time.Now().Format("20060102150405") + "000"
	fields := []string{
		quoteCSV("EXTF"),
		"700",
		"21",
		quoteCSV("Buchungsstapel"),
		"12",
		now,
		"",
		quoteCSV("belegpilot"),
		quoteCSV(""),
		quoteCSV(""),
		quoteCSV(""),
		fmt.Sprintf("%d0101", jahr),
		"4",
		fmt.Sprintf("%d1231", jahr),
		quoteCSV(mandantName),
		quoteCSV(""),
		"1",
		"",
		quoteCSV(""),
		quoteCSV(""),
	}
	return strings.Join(fields, ";")
}

// receiptRow builds one data row, defaulting account/counter-account to
// the teacher's "4900"/"1200" placeholders when the Classifier didn't
// assign SKR03 codes. Kurs/Basis-Umsatz/WKZ Basis-Umsatz stay empty (no
// foreign-currency support, per generate_datev_csv, which only ever
// wrote "" there for its single-currency EUR receipts); Skonto stays
// empty since discount terms aren't modeled anywhere upstream.
func receiptRow(r model.Receipt, jahr int) []string {
	amount := *r.Fields.GrossAmount
	sollHaben := "S"
	if amount < 0 {
		sollHaben = "H"
		amount = -amount
	}

	account := "4900"
	if r.Fields.AccountCode != nil && *r.Fields.AccountCode != "" {
		account = *r.Fields.AccountCode
	}
	counterAccount := "1200"
	if r.Fields.CounterAccount != nil && *r.Fields.CounterAccount != "" {
		counterAccount = *r.Fields.CounterAccount
	}
	buSchluessel := ""
	if r.Fields.TaxCode != nil {
		buSchluessel = *r.Fields.TaxCode
	}

	belegdatum := ""
	if r.Fields.DocumentDate != nil {
		belegdatum = ddmm(*r.Fields.DocumentDate)
	}

	belegfeld1 := truncateNarrative(r.FileName, 36)

	narrative := ""
	if r.Fields.Description != nil {
		narrative = *r.Fields.Description
	} else if r.Fields.Issuer != nil {
		narrative = *r.Fields.Issuer
	} else {
		narrative = r.FileName
	}
	narrative = truncateNarrative(narrative, 60)

	return []string{
		formatGermanAmount(amount),
		sollHaben,
		"EUR",
		"",
		"",
		"",
		account,
		counterAccount,
		buSchluessel,
		belegdatum,
		belegfeld1,
		r.ID,
		"",
		narrative,
	}
}

// csvRow renders a record with DATEV's QUOTE_ALL convention: every field
// quoted, embedded quotes doubled, delimited with a semicolon.
func csvRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteCSV(f)
	}
	return strings.Join(quoted, ";")
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// formatGermanAmount renders an absolute amount with a comma decimal
// separator and two fraction digits, e.g. 1234.5 -> "1234,50".
func formatGermanAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	return strings.ReplaceAll(s, ".", ",")
}

// ddmm truncates a DD.MM.YYYY (or DD-MM-YYYY) date to DDMM, the short
// form DATEV's Belegdatum column expects for the current fiscal year.
func ddmm(datum string) string {
	datum = strings.ReplaceAll(datum, "-", ".")
	parts := strings.Split(datum, ".")
	if len(parts) != 3 {
		return ""
	}
	day, month := parts[0], parts[1]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return day + month
}

func truncateNarrative(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
