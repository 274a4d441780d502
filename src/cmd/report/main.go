package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"belegpilot/src/pkg/classify"
	"belegpilot/src/pkg/model"
)

/*
reportOptions controls which receipts are included and where output is written.
*/
type reportOptions struct {
	OutDir      string
	Jahr        int
	OutputPath  string
	MaxRows     int
	ReportTitle string
}

/*
kindAgg accumulates gross spend and a hit count for one document kind.
*/
type kindAgg struct {
	Kind        model.DocumentKind
	DisplayName string
	Amount      float64
	HitCount    int
}

/*
kindRow is a rendered row in the final report.
*/
type kindRow struct {
	DisplayName string
	Amount      float64
	Percent     float64
	Color       string
	BarPercent  int
}

/*
confidenceBreakdown counts receipts per extraction confidence tier.
*/
type confidenceBreakdown struct {
	High   int
	Medium int
	Low    int
}

/*
taxYearReport is the computed summary for the HTML report.
*/
type taxYearReport struct {
	Title                string
	Jahr                 int
	GeneratedAt           time.Time
	ReceiptCount          int
	TotalGross            float64
	Rows                  []kindRow
	Confidence            confidenceBreakdown
	Completeness          classify.Report
	ManuallyReviewedCount int
	PendingReviewCount    int
	Notes                 []string
}

/*
main is the CLI entry point.

Example:

	report -out ./exports/2024 -jahr 2024 -o ./tmp/report-2024.html
*/
func main() {
	options := parseFlags()

	tl.Log(tl.Notice, palette.BlueBold, "Generating tax-year summary report for %d from '%s'", options.Jahr, options.OutDir)

	report, reportErr := buildTaxYearReport(options)
	if reportErr != nil {
		reportErr.QuitIf(xerr.ErrorTypeError)
	}

	htmlText := renderHTML(report)

	writeErr := os.WriteFile(options.OutputPath, []byte(htmlText), 0o644)
	xerr.QuitIfError(writeErr, "write HTML report file")

	tl.Log(tl.Info1, palette.Green, "Saved report to '%s'", options.OutputPath)
}

/*
parseFlags parses CLI flags and returns validated reportOptions.
*/
func parseFlags() reportOptions {
	outDirFlag := flag.String("out", "./exports", "Directory to scan recursively for exported receipt JSON files")
	jahrFlag := flag.Int("jahr", 0, "Tax year to report (default: current year)")
	outputFlag := flag.String("o", "", "Output HTML path (default: ./tmp/report-JAHR.html)")
	maxRowsFlag := flag.Int("max-rows", 10, "Maximum document-kind rows before grouping the remainder into 'Sonstiges'")
	titleFlag := flag.String("title", "", "Report title (default: Belegübersicht JAHR)")

	flag.Parse()

	jahrValue := *jahrFlag
	if jahrValue == 0 {
		jahrValue = time.Now().Year()
	}

	outputPath := *outputFlag
	if outputPath == "" {
		outputPath = fmt.Sprintf("./tmp/report-%d.html", jahrValue)
	}

	reportTitle := *titleFlag
	if reportTitle == "" {
		reportTitle = fmt.Sprintf("Belegübersicht %d", jahrValue)
	}

	return reportOptions{
		OutDir:      *outDirFlag,
		Jahr:        jahrValue,
		OutputPath:  outputPath,
		MaxRows:     *maxRowsFlag,
		ReportTitle: reportTitle,
	}
}

/*
buildTaxYearReport scans exported receipt JSON files, aggregates gross
amounts by document kind, and folds in the Completeness Detector's
missing-document recommendations for the same tax year.
*/
func buildTaxYearReport(options reportOptions) (report taxYearReport, e *xerr.Error) {
	jsonPaths, scanErr := collectJSONFiles(options.OutDir)
	if scanErr != nil {
		e = scanErr
		return report, e
	}

	tl.Log(tl.Info1, palette.Cyan, "Found %s exported receipts under '%s'", formatIntHuman(int64(len(jsonPaths))), options.OutDir)

	kindAggByKind := make(map[model.DocumentKind]*kindAgg)
	var kindsPresent []model.DocumentKind
	var totalGross float64
	var confidence confidenceBreakdown
	receiptCount := 0
	manuallyReviewed := 0
	pendingReview := 0
	skipped := 0

	for _, jsonPath := range jsonPaths {
		receipt, loadErr := loadReceipt(jsonPath)
		if loadErr != nil {
			tl.Log(tl.Warning, palette.PurpleBright, "Skipping unreadable receipt export '%s': %s", jsonPath, loadErr)
			skipped++
			continue
		}

		receiptCount++

		if receipt.Fields.GrossAmount != nil {
			totalGross += *receipt.Fields.GrossAmount
		}

		if receipt.ManuallyReviewed {
			manuallyReviewed++
		} else {
			pendingReview++
		}

		switch receipt.ExtractionConfidence {
		case model.ConfidenceHigh:
			confidence.High++
		case model.ConfidenceMedium:
			confidence.Medium++
		case model.ConfidenceLow:
			confidence.Low++
		}

		kind := model.KindOther
		if receipt.Fields.DocumentKind != nil {
			kind = *receipt.Fields.DocumentKind
		}

		agg, exists := kindAggByKind[kind]
		if !exists {
			agg = &kindAgg{Kind: kind, DisplayName: displayKindName(kind)}
			kindAggByKind[kind] = agg
			kindsPresent = append(kindsPresent, kind)
		}
		agg.HitCount++
		if receipt.Fields.GrossAmount != nil {
			agg.Amount += *receipt.Fields.GrossAmount
		}
	}

	rows := buildKindRows(kindAggByKind, totalGross, options.MaxRows)
	completeness := classify.DetectMissing(kindsPresent)

	notes := []string{
		"Summen basieren auf betrag_brutto; Belege ohne erkannten Bruttobetrag fließen nur in die Anzahl ein.",
	}
	if skipped > 0 {
		notes = append(notes, fmt.Sprintf("%d Datei(en) konnten nicht gelesen werden und wurden übersprungen.", skipped))
	}

	report = taxYearReport{
		Title:                 options.ReportTitle,
		Jahr:                  options.Jahr,
		GeneratedAt:           time.Now(),
		ReceiptCount:          receiptCount,
		TotalGross:            totalGross,
		Rows:                  rows,
		Confidence:            confidence,
		Completeness:          completeness,
		ManuallyReviewedCount: manuallyReviewed,
		PendingReviewCount:    pendingReview,
		Notes:                 notes,
	}

	tl.Log(tl.Info1, palette.Green, "Included %s receipts for %d", formatIntHuman(int64(receiptCount)), options.Jahr)

	return report, e
}

/*
collectJSONFiles recursively walks outDir and returns every *.json file path.
*/
func collectJSONFiles(outDir string) (paths []string, e *xerr.Error) {
	paths = make([]string, 0)

	walkErr := filepath.WalkDir(outDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		e = xerr.NewErrorEC(walkErr, "walk export directory", "outDir", outDir, false)
		return paths, e
	}

	return paths, e
}

/*
loadReceipt reads and unmarshals a model.Receipt from its exported JSON form.
*/
func loadReceipt(jsonPath string) (receipt model.Receipt, e *xerr.Error) {
	bytesRead, readErr := os.ReadFile(jsonPath)
	if readErr != nil {
		e = xerr.NewErrorEC(readErr, "read receipt export", "path", jsonPath, false)
		return receipt, e
	}

	if unmarshalErr := json.Unmarshal(bytesRead, &receipt); unmarshalErr != nil {
		e = xerr.NewErrorEC(unmarshalErr, "unmarshal receipt export", "path", jsonPath, false)
		return receipt, e
	}

	return receipt, e
}

/*
buildKindRows converts aggregations into sorted rows, assigns colors, and
groups overflow into a "Sonstiges" row once maxRows is exceeded.
*/
func buildKindRows(kindAggByKind map[model.DocumentKind]*kindAgg, totalGross float64, maxRows int) []kindRow {
	rows := make([]kindRow, 0, len(kindAggByKind))

	for _, agg := range kindAggByKind {
		percent := 0.0
		if totalGross > 0 {
			percent = (agg.Amount / totalGross) * 100.0
		}
		rows = append(rows, kindRow{
			DisplayName: agg.DisplayName,
			Amount:      agg.Amount,
			Percent:     percent,
			BarPercent:  clampBarPercent(percent, agg.Amount),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Amount > rows[j].Amount })

	if maxRows < 3 {
		maxRows = 3
	}

	if len(rows) > maxRows {
		keep := rows[:maxRows-1]
		rest := rows[maxRows-1:]

		var otherAmount float64
		for _, row := range rest {
			otherAmount += row.Amount
		}
		otherPercent := 0.0
		if totalGross > 0 {
			otherPercent = (otherAmount / totalGross) * 100.0
		}

		rows = append(keep, kindRow{
			DisplayName: "Sonstiges",
			Amount:      otherAmount,
			Percent:     otherPercent,
			BarPercent:  clampBarPercent(otherPercent, otherAmount),
		})
	}

	paletteColors := []string{
		"#2563EB", "#7C3AED", "#059669", "#DB2777", "#D97706",
		"#0EA5E9", "#65A30D", "#9333EA", "#F43F5E", "#14B8A6",
		"#4F46E5", "#B45309",
	}
	for i := range rows {
		rows[i].Color = paletteColors[i%len(paletteColors)]
	}

	return rows
}

func clampBarPercent(percent float64, amount float64) int {
	barPercent := int(math.Round(percent))
	if amount > 0 && barPercent == 0 {
		barPercent = 1
	}
	if barPercent > 100 {
		barPercent = 100
	}
	return barPercent
}

/*
displayKindName renders a DocumentKind as a human-facing German label.
*/
func displayKindName(kind model.DocumentKind) string {
	known := map[model.DocumentKind]string{
		model.KindInvoice:            "Rechnung",
		model.KindTradesmanInvoice:   "Handwerkerrechnung",
		model.KindPayrollCertificate: "Lohnsteuerbescheinigung",
		model.KindDonationReceipt:    "Spendenbescheinigung",
		model.KindInsuranceCert:      "Versicherungsnachweis",
		model.KindBankStatement:      "Kontoauszug",
		model.KindUtilityBill:        "Nebenkostenabrechnung",
		model.KindMedicalInvoice:     "Arztrechnung",
		model.KindTravelExpense:      "Fahrtkosten",
		model.KindEntertainmentBill:  "Bewirtungsbeleg",
		model.KindCashRegisterSlip:   "Kassenbon",
		model.KindOther:              "Sonstiges",
	}
	if name, ok := known[kind]; ok {
		return name
	}
	return string(kind)
}

/*
renderHTML converts a taxYearReport into a single HTML string using inline
CSS only, in the same email-safe table layout the teacher's report builder
used.
*/
func renderHTML(report taxYearReport) string {
	var buffer bytes.Buffer

	totalFormatted := formatEUR(report.TotalGross)

	buffer.WriteString("<!doctype html>")
	buffer.WriteString("<html>")
	buffer.WriteString("<head>")
	buffer.WriteString(`<meta charset="utf-8">`)
	buffer.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buffer.WriteString("</head>")

	bodyStyle := "margin:0;padding:0;background-color:#F3F4F6;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Inter,Arial,sans-serif;color:#111827;"
	buffer.WriteString(`<body style="` + bodyStyle + `">`)

	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;background-color:#F3F4F6;">`)
	buffer.WriteString(`<tr><td align="center" style="padding:24px;">`)
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="680" style="border-collapse:separate;background-color:#F3F4F6;width:680px;max-width:680px;">`)
	buffer.WriteString(`<tr><td style="padding:0;">`)

	buffer.WriteString(`<div style="padding:8px 4px 18px 4px;">`)
	buffer.WriteString(`<div style="font-size:24px;font-weight:800;line-height:1.2;color:#111827;">` + html.EscapeString(report.Title) + `</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`Belege: <span style="font-weight:700;color:#111827;">` + formatIntHuman(int64(report.ReceiptCount)) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Geprüft: <span style="font-weight:700;color:#111827;">` + strconv.Itoa(report.ManuallyReviewedCount) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; Ausstehend: <span style="font-weight:700;color:#111827;">` + strconv.Itoa(report.PendingReviewCount) + `</span>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</div>`)

	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:18px 18px 6px 18px;">`)
	buffer.WriteString(`<div style="font-size:12px;letter-spacing:0.10em;text-transform:uppercase;color:#6B7280;">Gesamtbetrag brutto</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:34px;font-weight:900;line-height:1.1;color:#111827;">` + html.EscapeString(totalFormatted) + `</div>`)
	buffer.WriteString(`<div style="margin-top:8px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(fmt.Sprintf("Konfidenz: <span style=\"font-weight:700;color:#111827;\">%d hoch</span> / %d mittel / %d niedrig", report.Confidence.High, report.Confidence.Medium, report.Confidence.Low))
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</div>`)

	buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
	buffer.WriteString(`<div style="height:1px;background-color:#E5E7EB;width:100%;"></div>`)
	buffer.WriteString(`<div style="margin-top:14px;font-size:14px;font-weight:800;color:#111827;">Belegarten</div>`)
	buffer.WriteString(`<div style="margin-top:4px;font-size:12px;line-height:1.5;color:#6B7280;">Anteil der Bruttobeträge je Belegart.</div>`)
	buffer.WriteString(`</div>`)

	buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
	if report.ReceiptCount == 0 || len(report.Rows) == 0 {
		buffer.WriteString(`<div style="padding:14px;border:1px dashed #D1D5DB;border-radius:12px;background-color:#FAFAFA;color:#6B7280;font-size:13px;line-height:1.6;">`)
		buffer.WriteString(`Keine Belege im gewählten Verzeichnis gefunden.`)
		buffer.WriteString(`</div>`)
	} else {
		buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:separate;border-spacing:0 10px;">`)
		for _, row := range report.Rows {
			buffer.WriteString(`<tr><td style="padding:12px;background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:12px;">`)
			buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;"><tr>`)
			buffer.WriteString(`<td style="vertical-align:top;padding-right:10px;">`)
			buffer.WriteString(`<div style="display:inline-block;width:10px;height:10px;border-radius:999px;background-color:` + row.Color + `;margin-right:8px;position:relative;top:1px;"></div>`)
			buffer.WriteString(`<span style="font-size:14px;font-weight:800;color:#111827;">` + html.EscapeString(row.DisplayName) + `</span>`)
			buffer.WriteString(`</td>`)
			buffer.WriteString(`<td align="right" style="vertical-align:top;">`)
			buffer.WriteString(`<div style="font-size:14px;font-weight:900;color:#111827;">` + html.EscapeString(formatEUR(row.Amount)) + `</div>`)
			buffer.WriteString(`<div style="margin-top:2px;font-size:12px;font-weight:800;color:#6B7280;">` + fmt.Sprintf("%.1f%%", row.Percent) + `</div>`)
			buffer.WriteString(`</td></tr>`)
			buffer.WriteString(`<tr><td colspan="2" style="padding-top:10px;">`)
			buffer.WriteString(`<div style="width:100%;height:10px;border-radius:999px;background-color:#EEF2FF;overflow:hidden;border:1px solid #E5E7EB;">`)
			buffer.WriteString(`<div style="height:10px;width:` + strconv.Itoa(row.BarPercent) + `%;background-color:` + row.Color + `;border-radius:999px;"></div>`)
			buffer.WriteString(`</div></td></tr></table></td></tr>`)
		}
		buffer.WriteString(`</table>`)
	}
	buffer.WriteString(`</div>`)

	buffer.WriteString(`<div style="padding:0 0 18px 0;">`)
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:16px 18px 16px 18px;">`)
	buffer.WriteString(`<div style="font-size:13px;font-weight:900;color:#111827;">Fehlende Belegarten</div>`)
	buffer.WriteString(`<div style="margin-top:10px;font-size:12px;line-height:1.7;color:#6B7280;">`)
	if len(report.Completeness.Recommendations) == 0 {
		buffer.WriteString(`Alle erwarteten Belegarten sind vorhanden.`)
	} else {
		for _, rec := range report.Completeness.Recommendations {
			buffer.WriteString(rec.Icon + " " + html.EscapeString(displayKindName(rec.Kind)) + " (" + string(rec.Tier) + ")<br>")
		}
	}
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(cardClose())
	buffer.WriteString(`</div>`)

	buffer.WriteString(`<div style="padding:0 0 18px 0;">`)
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:16px 18px 16px 18px;">`)
	buffer.WriteString(`<div style="font-size:13px;font-weight:900;color:#111827;">Hinweise</div>`)
	buffer.WriteString(`<div style="margin-top:10px;font-size:12px;line-height:1.7;color:#6B7280;">`)
	for _, note := range report.Notes {
		buffer.WriteString(`• ` + html.EscapeString(note) + `<br>`)
	}
	buffer.WriteString(`</div>`)
	buffer.WriteString(`<div style="margin-top:12px;font-size:11px;color:#9CA3AF;">Erstellt ` + html.EscapeString(report.GeneratedAt.Format("2006-01-02 15:04:05")) + `</div>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(cardClose())
	buffer.WriteString(`</div>`)

	buffer.WriteString(`</td></tr></table></td></tr></table>`)
	buffer.WriteString(`</body></html>`)

	return buffer.String()
}

func cardOpen() string {
	return `<div style="background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:16px;box-shadow:0 8px 24px rgba(17,24,39,0.06);overflow:hidden;">`
}

func cardClose() string {
	return `</div>`
}

/*
formatEUR formats an amount with a German decimal comma and dot thousands
separators, e.g. 1234.5 -> "1.234,50 €".
*/
func formatEUR(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	whole := int64(amount)
	cents := int64(math.Round((amount-float64(whole))*100))
	if cents == 100 {
		whole++
		cents = 0
	}

	grouped := groupThousands(strconv.FormatInt(whole, 10), ".")
	return fmt.Sprintf("%s%s,%02d €", sign, grouped, cents)
}

/*
groupThousands groups digits in a base-10 string using the provided separator.
*/
func groupThousands(raw string, sep string) string {
	if len(raw) <= 3 {
		return raw
	}

	var builder strings.Builder
	firstGroupLen := len(raw) % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}

	builder.WriteString(raw[:firstGroupLen])
	for index := firstGroupLen; index < len(raw); index += 3 {
		builder.WriteString(sep)
		builder.WriteString(raw[index : index+3])
	}

	return builder.String()
}

/*
formatIntHuman formats a count with comma separators for readability.
*/
func formatIntHuman(value int64) string {
	return groupThousands(strconv.FormatInt(value, 10), ",")
}
