package justification

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Forecast assumptions
const (
	retirementAge = 67
	interestRate  = 0.03
)

// Row texts
const (
	recommendKeep    = "להשאיר"
	recommendCancel  = "לבטל"
	recommendJoin    = "להצטרף"
	notRelevant      = "לא רלוונטי"
	noYieldData      = "אין נתון"
	noCoverage       = "אין כיסויים במוצר זה"
	guaranteeNone    = "לא"
	considerationsTx = "שיקולים לבחירת הקופה: 1. רמת שירות גבוהה של הגוף המוסדי. 2. רמת תפעול גבוהה של הגוף המוסדי. 3. רמת ניהול השקעות גבוהה של הגוף המוסדי."
)

var amountPrinter = message.NewPrinter(language.English)

// AdviceRow is one line of a product comparison table
type AdviceRow struct {
	Considerations   bool
	Recommendation   string
	ProductType      string
	CompanyName      string
	FundName         string
	TrackName        string
	GuaranteedReturn string
	Yield1           string
	Yield3           string
	FeeContributions string
	FeeBalance       string
	Balance          string
	Forecast         string
	Cost             string
}

// CoverageRow is one line of an insurance coverage table
type CoverageRow struct {
	Recommendation    string
	ProductName       string
	CompanyName       string
	CoverageType      string
	CoverageAmount    string
	MonthlyCost       string
	IncludedInPension string
}

type marketAlternative struct {
	row    AdviceRow
	feePct float64
}

// marketAlternatives are offered next to every גמל replacement
var marketAlternatives = []marketAlternative{
	{
		row: AdviceRow{
			Recommendation:   "חלופה 1",
			ProductType:      "קרן פנסיה",
			CompanyName:      "אלטשולר שחם גמל ופנסיה בעמ",
			FundName:         "אלטשולר שחם פנסיה מקיפה 1328",
			TrackName:        "מודל השקעה תלוי גיל, אלטשולר שחם, פנסיה מקיפה, מסלול לבני 50 עד 60, מ.ה 9758",
			GuaranteedReturn: "כן, קיימת הבטחת תשואה שנתית של 5.15% (צמודה למדד) על 30% מהנכסים",
			Yield1:           "אלטשולר שחם פנסיה מקיפה מסלול לבני 50-60 תאריך תחילת פעילות 12/11/2015",
			Yield3:           noYieldData,
			FeeContributions: "1% הטבה למשך תקופה של 10 שנים לאחר מכן ד.נ. מצבירה 6%",
			FeeBalance:       "0.22% הטבה למשך תקופה של 10 שנים לאחר מכן ד.נ. מצבירה 0.5%",
		},
		feePct: 0.0022,
	},
	{
		row: AdviceRow{
			Recommendation:   "חלופה 2",
			ProductType:      "קרן פנסיה",
			CompanyName:      "אלטשולר שחם גמל ופנסיה בעמ",
			FundName:         "אלטשולר שחם פנסיה כללית 1329",
			TrackName:        "מודל השקעה תלוי גיל, אלטשולר שחם, פנסיה מקיפה, מסלול לבני 50 עד 60, מ.ה 9762",
			GuaranteedReturn: guaranteeNone,
			Yield1:           "אלטשולר שחם פנסיה כללית מסלול לבני 50-60 תאריך תחילת פעילות 12/11/2015",
			Yield3:           noYieldData,
			FeeContributions: "1% הטבה למשך תקופה של 10 שנים לאחר מכן ד.נ. מצבירה 4%",
			FeeBalance:       "0.22% הטבה למשך תקופה של 10 שנים לאחר מכן ד.נ. מצבירה 1.05%",
		},
		feePct: 0.0022,
	},
	{
		row: AdviceRow{
			Recommendation:   "חלופה 3",
			ProductType:      "פוליסה",
			CompanyName:      "מגדל",
			FundName:         "מגדל מסלול לבני 50-60 מ.ה-9604 פוליסה",
			TrackName:        "מודל השקעה תלוי גיל, מגדל מסלול לבני 50 עד 60, מ.ה 9604",
			GuaranteedReturn: guaranteeNone,
			Yield1:           "מגדל מסלול לבני 50-60 תאריך תחילת פעילות : פוליסות שהונפקו משנת 2004 ואילך",
			Yield3:           noYieldData,
			FeeContributions: "0% קבוע לכל חיי המוצר",
			FeeBalance:       "דמי ניהול יורדים לפי צבירה",
		},
		feePct: 0.0044,
	},
}

// YearsTo67 is the number of calendar years until retirement age
func YearsTo67(birth, today time.Time) int {
	return max(0, retirementAge-(today.Year()-birth.Year()))
}

// FutureValue compounds balance at 3% a year, rounded to agorot
func FutureValue(balance *float64, years int) float64 {
	if balance == nil || years <= 0 {
		return 0
	}
	return round2(*balance * math.Pow(1+interestRate, float64(years)))
}

// FeeCost is the management fee paid on balance over the given years
func FeeCost(balance *float64, feePct float64, years int) float64 {
	if balance == nil || feePct == 0 || years <= 0 {
		return 0
	}
	return round2(*balance * feePct * float64(years))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// BuildAdviceTables lays out the comparison tables of the advice document:
// one per standalone new product first, then one per existing product with
// its same-type replacements.
func BuildAdviceTables(birth, today time.Time, existing []justification.ExistingProduct, proposed []justification.NewProduct) [][]AdviceRow {
	years := YearsTo67(birth, today)
	proposed = sortedByID(proposed)

	tables := make([][]AdviceRow, 0, len(existing)+len(proposed))
	for i := range proposed {
		np := &proposed[i]
		if np.ExistingProductID != nil {
			continue
		}
		table := []AdviceRow{newRow(np, nil, years)}
		if np.FundType == justification.FundTypeGemel {
			table = append(table, alternativeRows(np.AccumulatedAmount, years)...)
		}
		tables = append(tables, append(table, considerationsRow()))
	}

	for i := range existing {
		ex := &existing[i]
		replacements := replacementsOf(ex, proposed)

		table := []AdviceRow{existingRow(ex, len(replacements) > 0, years)}
		if len(replacements) == 0 {
			tables = append(tables, table)
			continue
		}

		var share *float64
		if ex.AccumulatedAmount != nil && len(replacements) > 1 {
			v := *ex.AccumulatedAmount / float64(len(replacements))
			share = &v
		}
		for _, np := range replacements {
			table = append(table, newRow(np, share, years))
		}
		if ex.FundType == justification.FundTypeGemel {
			table = append(table, alternativeRows(ex.AccumulatedAmount, years)...)
		}
		tables = append(tables, append(table, considerationsRow()))
	}
	return tables
}

// BuildCoverageTables lists the coverages of each existing product with its
// first replacement, then of each standalone new product. The market
// alternatives are shown once, under the first גמל table.
func BuildCoverageTables(existing []justification.ExistingProduct, proposed []justification.NewProduct) [][]CoverageRow {
	proposed = sortedByID(proposed)
	alternativesAdded := false
	withAlternatives := func(rows []CoverageRow, fundType string) []CoverageRow {
		if fundType != justification.FundTypeGemel || alternativesAdded {
			return rows
		}
		alternativesAdded = true
		for _, alt := range marketAlternatives {
			rows = append(rows, coverageRow(alt.row.Recommendation, alt.row.FundName, alt.row.CompanyName))
		}
		return rows
	}

	tables := make([][]CoverageRow, 0, len(existing)+len(proposed))
	for i := range existing {
		ex := &existing[i]
		replacements := replacementsOf(ex, proposed)

		rec := recommendKeep
		if len(replacements) > 0 {
			rec = recommendJoin
		}
		rows := []CoverageRow{coverageRow(rec, withPersonalNumber(ex.FundName, ex.PersonalNumber), ex.CompanyName)}
		if len(replacements) > 0 {
			np := replacements[0]
			rows = append(rows, coverageRow(recommendJoin, withPersonalNumber(np.FundName, np.PersonalNumberOrEmpty()), np.CompanyName))
		}
		tables = append(tables, withAlternatives(rows, ex.FundType))
	}

	for i := range proposed {
		np := &proposed[i]
		if np.ExistingProductID != nil {
			continue
		}
		rows := []CoverageRow{coverageRow(recommendJoin, withPersonalNumber(np.FundName, np.PersonalNumberOrEmpty()), np.CompanyName)}
		tables = append(tables, withAlternatives(rows, np.FundType))
	}
	return tables
}

// replacementsOf returns the new products linked to ex with the same fund type
func replacementsOf(ex *justification.ExistingProduct, proposed []justification.NewProduct) []*justification.NewProduct {
	var out []*justification.NewProduct
	for i := range proposed {
		np := &proposed[i]
		if np.ExistingProductID != nil && *np.ExistingProductID == ex.ID && np.FundType == ex.FundType {
			out = append(out, np)
		}
	}
	return out
}

func existingRow(ex *justification.ExistingProduct, replaced bool, years int) AdviceRow {
	rec := recommendKeep
	if replaced && justification.IsKitSupported(ex.FundType) {
		rec = recommendCancel
	}
	accumulated := valueOrZero(ex.AccumulatedAmount)
	fv := FutureValue(&accumulated, years)
	fee := FeeCost(&accumulated, percentOf(ex.ManagementFeeBalance), years)

	row := productRow(rec, ex.FundInfo, ex.PersonalNumber, ex.Holding, accumulated)
	row.Forecast = amountPrinter.Sprintf("גיל פרישה 67 הון צפוי ללא הפקדות %.0f₪ דמי ניהול של %.0f₪", fv, fee)
	return row
}

func newRow(np *justification.NewProduct, accumulatedOverride *float64, years int) AdviceRow {
	accumulated := valueOrZero(np.AccumulatedAmount)
	if accumulatedOverride != nil {
		accumulated = *accumulatedOverride
	}
	fv := FutureValue(&accumulated, years)
	fee := FeeCost(&accumulated, percentOf(np.ManagementFeeBalance), years)

	row := productRow(recommendJoin, np.FundInfo, np.PersonalNumberOrEmpty(), np.Holding, accumulated)
	row.Forecast = amountPrinter.Sprintf("גיל פרישה 67 הון צפוי ללא הפקדות %.0f דמי ניהול של %.0f", fv, fee)
	return row
}

func productRow(rec string, info justification.FundInfo, personalNumber string, h justification.Holding, accumulated float64) AdviceRow {
	fundName := info.FundName
	if justification.IsKitSupported(info.FundType) {
		fundName = withPersonalNumber(fundName, personalNumber)
	}
	return AdviceRow{
		Recommendation:   rec,
		ProductType:      "קופת " + info.FundType,
		CompanyName:      info.CompanyName,
		FundName:         fundName,
		TrackName:        fundName + " (" + info.FundCode + ")",
		GuaranteedReturn: guaranteeNone,
		Yield1:           formatYield(info.Yield1Yr),
		Yield3:           formatYield(info.Yield3Yr),
		FeeContributions: formatNumber(h.ManagementFeeContributions),
		FeeBalance:       formatNumber(h.ManagementFeeBalance),
		Balance:          formatBalance(accumulated),
	}
}

func alternativeRows(accumulated *float64, years int) []AdviceRow {
	acc := valueOrZero(accumulated)
	fv := FutureValue(&acc, years)

	rows := make([]AdviceRow, 0, len(marketAlternatives))
	for _, alt := range marketAlternatives {
		row := alt.row
		row.Balance = formatBalance(acc)
		row.Forecast = amountPrinter.Sprintf("גיל פרישה 67 הון צפוי ללא הפקדות %.0f דמי ניהול של %.0f",
			fv, FeeCost(&acc, alt.feePct, years))
		rows = append(rows, row)
	}
	return rows
}

func considerationsRow() AdviceRow {
	return AdviceRow{Considerations: true, Recommendation: considerationsTx}
}

func coverageRow(rec, productName, company string) CoverageRow {
	return CoverageRow{
		Recommendation: rec,
		ProductName:    productName,
		CompanyName:    company,
		CoverageType:   noCoverage,
		CoverageAmount: noCoverage,
		MonthlyCost:    noCoverage,
	}
}

func withPersonalNumber(name, personalNumber string) string {
	if personalNumber == "" {
		return name
	}
	return name + " (מס' קופה: " + personalNumber + ")"
}

func sortedByID(products []justification.NewProduct) []justification.NewProduct {
	out := make([]justification.NewProduct, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func percentOf(fee *float64) float64 {
	if fee == nil {
		return 0
	}
	return *fee / 100
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func formatBalance(v float64) string {
	if v == 0 {
		return notRelevant
	}
	return amountPrinter.Sprintf("%.0f", v)
}

func formatYield(v *float64) string {
	if v == nil {
		return noYieldData
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "%"
}

func formatNumber(v *float64) string {
	if v == nil || *v == 0 {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
