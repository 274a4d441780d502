package classify

import "belegpilot/src/pkg/model"

// Tier is a completeness priority level, carried over from
// original_source/'s ERWARTETE_BELEGE three-way partition.
type Tier string

const (
	TierMandatory          Tier = "Pflicht"
	TierFrequentlyRelevant Tier = "Haeufig relevant"
	TierConsider           Tier = "Pruefen"
)

var tierIcon = map[Tier]string{
	TierMandatory:          "\U0001F534", // 🔴
	TierFrequentlyRelevant: "\U0001F7E1", // 🟡
	TierConsider:           "\U0001F535", // 🔵
}

type expectedKind struct {
	kind model.DocumentKind
	tier Tier
}

// catalog mirrors ERWARTETE_BELEGE exactly.
var catalog = []expectedKind{
	{model.KindPayrollCertificate, TierMandatory},
	{model.KindInsuranceCert, TierFrequentlyRelevant},
	{model.KindDonationReceipt, TierFrequentlyRelevant},
	{model.KindTradesmanInvoice, TierFrequentlyRelevant},
	{model.KindUtilityBill, TierFrequentlyRelevant},
	{model.KindMedicalInvoice, TierConsider},
	{model.KindTravelExpense, TierConsider},
	{model.KindEntertainmentBill, TierConsider},
}

// Recommendation is one missing-kind entry, ready for display.
type Recommendation struct {
	Kind model.DocumentKind
	Tier Tier
	Icon string
}

// Report is the result of DetectMissing: which catalog kinds are present,
// which are missing, and a prioritized recommendation list.
type Report struct {
	Present         []model.DocumentKind
	Missing         []model.DocumentKind
	Recommendations []Recommendation
}

// DetectMissing implements C10: given the set of document kinds present in
// a tax year (duplicates don't matter — presence is set-based), return the
// catalog members missing, partitioned by tier, mandatory first.
func DetectMissing(kindsPresent []model.DocumentKind) Report {
	present := map[model.DocumentKind]bool{}
	for _, k := range kindsPresent {
		present[k] = true
	}

	var report Report
	for k := range present {
		report.Present = append(report.Present, k)
	}

	order := []Tier{TierMandatory, TierFrequentlyRelevant, TierConsider}
	for _, tier := range order {
		for _, entry := range catalog {
			if entry.tier != tier {
				continue
			}
			if present[entry.kind] {
				continue
			}
			report.Missing = append(report.Missing, entry.kind)
			report.Recommendations = append(report.Recommendations, Recommendation{
				Kind: entry.kind,
				Tier: tier,
				Icon: tierIcon[tier],
			})
		}
	}

	return report
}
