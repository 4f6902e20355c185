// Package justification models the pension advice workflow: the market fund
// table, the products a client holds today, the products proposed to replace
// them, and the documents generated around them.
package justification

import (
	"strings"
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
)

// Fund types for which enrollment kits can be generated
const (
	FundTypeGemel           = "גמל"
	FundTypeGemelInvestment = "גמל להשקעה"
	FundTypeHishtalmut      = "השתלמות"
)

// SupportedKitFundTypes lists the fund types with kit templates
var SupportedKitFundTypes = []string{FundTypeGemel, FundTypeGemelInvestment, FundTypeHishtalmut}

// IsKitSupported reports whether a fund type has kit templates
func IsKitSupported(fundType string) bool {
	fundType = strings.TrimSpace(fundType)
	for _, t := range SupportedKitFundTypes {
		if t == fundType {
			return true
		}
	}
	return false
}

// FundInfo is the market identity of a fund track
type FundInfo struct {
	FundType    string
	CompanyName string
	FundName    string
	FundCode    string
	Yield1Yr    *float64
	Yield3Yr    *float64
}

// Key returns the (type, company, name, code) tuple used to dedupe market rows
func (f FundInfo) Key() [4]string {
	return [4]string{
		strings.TrimSpace(f.FundType),
		strings.TrimSpace(f.CompanyName),
		strings.TrimSpace(f.FundName),
		strings.TrimSpace(f.FundCode),
	}
}

func (f FundInfo) validate() error {
	if strings.TrimSpace(f.FundType) == "" || strings.TrimSpace(f.CompanyName) == "" ||
		strings.TrimSpace(f.FundName) == "" || strings.TrimSpace(f.FundCode) == "" {
		return shared.NewDomainError("INVALID_INPUT", "fund type, company, name and code are required")
	}
	return nil
}

// Holding is the client-specific part shared by existing and new products
type Holding struct {
	ManagementFeeBalance       *float64
	ManagementFeeContributions *float64
	AccumulatedAmount          *float64
	EmploymentStatus           *string
	HasRegularContributions    *bool
}

// SavingProduct is a row of the market fund table.
type SavingProduct struct {
	ID uint
	FundInfo
	RiskLevel        *int
	GuaranteedReturn *string
}

// ExistingProduct is a fund the client currently holds.
type ExistingProduct struct {
	ID       uint
	ClientID uint
	FundInfo
	PersonalNumber string
	Holding
}

// Validate checks required fields
func (p *ExistingProduct) Validate() error {
	if err := p.FundInfo.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.PersonalNumber) == "" {
		return shared.NewDomainError("INVALID_INPUT", "personal number is required")
	}
	return nil
}

// NewProduct is a fund proposed for the client, optionally replacing an existing one.
type NewProduct struct {
	ID                uint
	ClientID          uint
	ExistingProductID *uint
	FundInfo
	PersonalNumber *string
	Holding
	CreatedAt time.Time
}

// Validate checks required fields
func (p *NewProduct) Validate() error {
	return p.FundInfo.validate()
}

// PersonalNumberOrEmpty returns the personal number or ""
func (p *NewProduct) PersonalNumberOrEmpty() string {
	if p.PersonalNumber == nil {
		return ""
	}
	return *p.PersonalNumber
}

// ReplaceMarketData overwrites the yields, risk level and guaranteed return
// with src's and reports whether any of them changed
func (p *SavingProduct) ReplaceMarketData(src *SavingProduct) bool {
	changed := !equalPtr(p.Yield1Yr, src.Yield1Yr) || !equalPtr(p.Yield3Yr, src.Yield3Yr) ||
		!equalPtr(p.RiskLevel, src.RiskLevel) || !equalPtr(p.GuaranteedReturn, src.GuaranteedReturn)
	p.Yield1Yr = src.Yield1Yr
	p.Yield3Yr = src.Yield3Yr
	p.RiskLevel = src.RiskLevel
	p.GuaranteedReturn = src.GuaranteedReturn
	return changed
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
