package models

import (
	"time"
)

// BaseModel provides the integer primary key used by every table
type BaseModel struct {
	ID uint `gorm:"primaryKey;autoIncrement"`
}

// TimestampedModel adds creation and update times
type TimestampedModel struct {
	BaseModel
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// All lists every model in dependency order, for AutoMigrate and table truncation
func All() []any {
	return []any{
		&ClientModel{},
		&ClientNoteModel{},
		&ClientBeneficiaryModel{},
		&SnapshotModel{},
		&SavingProductModel{},
		&ExistingProductModel{},
		&NewProductModel{},
		&FormInstanceModel{},
		&ClientSignatureRequestModel{},
	}
}
