// Package crm holds the balance-tracking side of the back office: dated
// per-fund snapshots imported from provider spreadsheets.
package crm

import (
	"strings"
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DateLayout is the storage format of snapshot dates
const DateLayout = "2006-01-02"

// Snapshot is a dated balance for one of a client's funds.
type Snapshot struct {
	ID           uint
	ClientID     uint
	FundCode     string
	FundType     *string
	FundName     *string
	FundNumber   *string
	Source       *string
	Amount       decimal.Decimal
	SnapshotDate string
	IsActive     bool
}

// NewSnapshot validates and builds an active snapshot
func NewSnapshot(clientID uint, fundCode string, amount decimal.Decimal, date string) (*Snapshot, error) {
	fundCode = strings.TrimSpace(fundCode)
	if fundCode == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "fund code is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "snapshot date must be YYYY-MM-DD")
	}
	return &Snapshot{
		ClientID:     clientID,
		FundCode:     fundCode,
		Amount:       amount,
		SnapshotDate: date,
		IsActive:     true,
	}, nil
}

// Month returns the YYYY-MM part of the snapshot date
func (s *Snapshot) Month() string {
	return MonthOf(s.SnapshotDate)
}

// FundNumberOrEmpty returns the trimmed fund number
func (s *Snapshot) FundNumberOrEmpty() string {
	if s.FundNumber == nil {
		return ""
	}
	return strings.TrimSpace(*s.FundNumber)
}

// SourceOrEmpty returns the source code or ""
func (s *Snapshot) SourceOrEmpty() string {
	if s.Source == nil {
		return ""
	}
	return *s.Source
}

// MonthOf returns YYYY-MM for a YYYY-MM-DD date
func MonthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// FirstOfMonth turns "YYYY-MM" or "YYYY-MM-DD" into the first day of that month
func FirstOfMonth(month string) (string, error) {
	month = strings.TrimSpace(month)
	if len(month) >= 7 {
		if t, err := time.Parse("2006-01", month[:7]); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", shared.NewDomainError("INVALID_INPUT", "month must be YYYY-MM")
}
