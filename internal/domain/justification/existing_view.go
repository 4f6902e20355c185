package justification

import (
	"fmt"
	"strings"

	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/shopspring/decimal"
)

// ExistingProductView is a row of the merged existing-products list. Virtual
// rows are derived from CRM snapshots and carry negative IDs.
type ExistingProductView struct {
	ID       int64
	ClientID uint
	FundInfo
	PersonalNumber string
	Holding
	IsVirtual bool
}

// ToExistingProduct converts a view row into a persistable product
func (v ExistingProductView) ToExistingProduct() *ExistingProduct {
	return &ExistingProduct{
		ClientID:       v.ClientID,
		FundInfo:       v.FundInfo,
		PersonalNumber: v.PersonalNumber,
		Holding:        v.Holding,
	}
}

func viewFromExisting(p ExistingProduct) ExistingProductView {
	return ExistingProductView{
		ID:             int64(p.ID),
		ClientID:       p.ClientID,
		FundInfo:       p.FundInfo,
		PersonalNumber: p.PersonalNumber,
		Holding:        p.Holding,
	}
}

type snapshotKey struct {
	code   string
	number string
}

// BuildExistingProductsView merges the client's persisted products with
// products inferred from the latest active CRM snapshot of each fund, then
// collapses tracks sharing one personal number into a single row.
func BuildExistingProductsView(clientID uint, real []ExistingProduct, snapshots []crm.Snapshot, saving []SavingProduct) []ExistingProductView {
	items := make([]ExistingProductView, 0, len(real))
	seen := make(map[[3]string]bool, len(real))
	for _, p := range real {
		seen[[3]string{
			strings.TrimSpace(p.FundCode),
			strings.TrimSpace(p.FundName),
			strings.TrimSpace(p.FundType),
		}] = true
		items = append(items, viewFromExisting(p))
	}

	// latest snapshot per (code, number), in first-seen order
	var order []snapshotKey
	latest := make(map[snapshotKey]crm.Snapshot)
	for _, s := range snapshots {
		if !s.IsActive {
			continue
		}
		k := snapshotKey{code: strings.TrimSpace(s.FundCode), number: s.FundNumberOrEmpty()}
		if k.code == "" && k.number == "" {
			continue
		}
		cur, ok := latest[k]
		if !ok {
			order = append(order, k)
		}
		if !ok || s.SnapshotDate > cur.SnapshotDate {
			latest[k] = s
		}
	}
	if len(order) == 0 {
		return items
	}

	byCode := savingByCode(saving)

	virtualID := int64(-1)
	for _, k := range order {
		snap := latest[k]
		fundName := strings.TrimSpace(deref(snap.FundName))
		fundType := strings.TrimSpace(deref(snap.FundType))
		if seen[[3]string{k.code, fundName, fundType}] {
			continue
		}

		sp := matchSavingProduct(snap, saving, byCode, k.code)

		if fundType == "" && sp != nil {
			fundType = sp.FundType
		}
		if fundName == "" && sp != nil {
			fundName = sp.FundName
		}
		company := crm.SourceDisplayName(snap.SourceOrEmpty())
		if sp != nil {
			company = sp.CompanyName
		}
		if fundName == "" && company == "" && fundType == "" {
			continue
		}

		personal := k.number
		if personal == "" {
			personal = k.code
		}
		if personal == "" {
			personal = fmt.Sprintf("CRM-%d-%d", clientID, -virtualID)
		}

		code := k.code
		if code == "" {
			code = k.number
		}
		var y1, y3 *float64
		if sp != nil {
			if sp.FundCode != "" {
				code = sp.FundCode
			}
			y1, y3 = sp.Yield1Yr, sp.Yield3Yr
		}

		amount := snap.Amount.InexactFloat64()
		items = append(items, ExistingProductView{
			ID:       virtualID,
			ClientID: clientID,
			FundInfo: FundInfo{
				FundType:    fundType,
				CompanyName: company,
				FundName:    fundName,
				FundCode:    code,
				Yield1Yr:    y1,
				Yield3Yr:    y3,
			},
			PersonalNumber: personal,
			Holding: Holding{
				ManagementFeeBalance: floatPtr(amount),
				AccumulatedAmount:    floatPtr(amount),
			},
			IsVirtual: true,
		})
		virtualID--
	}

	return groupByPersonalNumber(items, byCode)
}

// CanonicalPersonalNumber returns the text inside the first pair of
// parentheses when present, otherwise the trimmed value.
func CanonicalPersonalNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "(")
	if start == -1 {
		return raw
	}
	end := strings.Index(raw[start+1:], ")")
	if end <= 0 {
		return raw
	}
	if inner := strings.TrimSpace(raw[start+1 : start+1+end]); inner != "" {
		return inner
	}
	return raw
}

func groupByPersonalNumber(items []ExistingProductView, byCode map[string]*SavingProduct) []ExistingProductView {
	var standalone []ExistingProductView
	var order []string
	buckets := make(map[string][]ExistingProductView)
	for _, it := range items {
		if strings.TrimSpace(it.PersonalNumber) == "" {
			standalone = append(standalone, it)
			continue
		}
		key := CanonicalPersonalNumber(it.PersonalNumber)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], it)
	}

	grouped := make([]ExistingProductView, 0, len(items))
	grouped = append(grouped, standalone...)
	for _, key := range order {
		bucket := buckets[key]
		if len(bucket) == 1 {
			grouped = append(grouped, bucket[0])
			continue
		}

		total := decimal.Zero
		best := 0
		bestAmount := decimal.NewFromInt(-1)
		for i, it := range bucket {
			amount := decimal.Zero
			if it.AccumulatedAmount != nil {
				amount = decimal.NewFromFloat(*it.AccumulatedAmount)
			}
			total = total.Add(amount)
			if amount.GreaterThan(bestAmount) {
				best, bestAmount = i, amount
			}
		}

		rep := bucket[best]
		sum := total.InexactFloat64()
		rep.AccumulatedAmount = floatPtr(sum)
		rep.ManagementFeeBalance = floatPtr(sum)
		for _, it := range bucket {
			code := strings.TrimSpace(it.FundCode)
			if code == "" {
				continue
			}
			if sp, ok := byCode[code]; ok {
				rep.CompanyName = sp.CompanyName
				rep.FundName = sp.FundName
				rep.FundType = sp.FundType
				rep.FundCode = sp.FundCode
				break
			}
		}
		grouped = append(grouped, rep)
	}
	return grouped
}

func savingByCode(saving []SavingProduct) map[string]*SavingProduct {
	byCode := make(map[string]*SavingProduct, len(saving))
	for i := range saving {
		code := strings.TrimSpace(saving[i].FundCode)
		if code == "" {
			continue
		}
		if _, ok := byCode[code]; !ok {
			byCode[code] = &saving[i]
		}
	}
	return byCode
}

// matchSavingProduct resolves a snapshot to a market row, first by exact fund
// name with a compatible company, then by fund code.
func matchSavingProduct(snap crm.Snapshot, saving []SavingProduct, byCode map[string]*SavingProduct, code string) *SavingProduct {
	name := strings.TrimSpace(deref(snap.FundName))
	if name != "" && snap.SourceOrEmpty() != "" {
		expected := normalizeCompany(crm.SourceDisplayName(snap.SourceOrEmpty()))
		for i := range saving {
			if strings.TrimSpace(saving[i].FundName) != name {
				continue
			}
			candidate := normalizeCompany(saving[i].CompanyName)
			if candidate == "" || expected == "" {
				continue
			}
			if strings.HasPrefix(candidate, expected) || strings.HasPrefix(expected, candidate) {
				return &saving[i]
			}
		}
	}
	if code != "" {
		if sp, ok := byCode[code]; ok {
			return sp
		}
	}
	return nil
}

func normalizeCompany(v string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(v)) {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '\'', '"':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatPtr(v float64) *float64 {
	return &v
}
