package models

import (
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/shopspring/decimal"
)

// SnapshotModel is the persistence model for a dated fund balance.
type SnapshotModel struct {
	BaseModel
	ClientID     uint            `gorm:"not null;index"`
	FundCode     string          `gorm:"type:varchar(50);not null"`
	FundType     *string         `gorm:"type:varchar(100)"`
	FundName     *string         `gorm:"type:varchar(200)"`
	FundNumber   *string         `gorm:"type:varchar(50);index"`
	Source       *string         `gorm:"type:varchar(50)"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	SnapshotDate string          `gorm:"type:varchar(10);not null;index"`
	IsActive     bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SnapshotModel) TableName() string {
	return "snapshot"
}

// ToDomain converts the persistence model to a domain Snapshot.
func (m *SnapshotModel) ToDomain() *crm.Snapshot {
	return &crm.Snapshot{
		ID:           m.ID,
		ClientID:     m.ClientID,
		FundCode:     m.FundCode,
		FundType:     m.FundType,
		FundName:     m.FundName,
		FundNumber:   m.FundNumber,
		Source:       m.Source,
		Amount:       m.Amount,
		SnapshotDate: m.SnapshotDate,
		IsActive:     m.IsActive,
	}
}

// SnapshotModelFromDomain creates a new persistence model from a domain Snapshot.
func SnapshotModelFromDomain(s *crm.Snapshot) *SnapshotModel {
	return &SnapshotModel{
		BaseModel:    BaseModel{ID: s.ID},
		ClientID:     s.ClientID,
		FundCode:     s.FundCode,
		FundType:     s.FundType,
		FundName:     s.FundName,
		FundNumber:   s.FundNumber,
		Source:       s.Source,
		Amount:       s.Amount.Round(2),
		SnapshotDate: s.SnapshotDate,
		IsActive:     s.IsActive,
	}
}
