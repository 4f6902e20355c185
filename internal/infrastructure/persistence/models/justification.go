package models

import (
	"encoding/json"
	"time"

	"github.com/advisory/backoffice/internal/domain/justification"
)

// FundColumns holds the market identity columns shared by the product tables
type FundColumns struct {
	FundType    string   `gorm:"type:varchar(100);not null"`
	CompanyName string   `gorm:"type:varchar(200);not null"`
	FundName    string   `gorm:"type:varchar(200);not null"`
	FundCode    string   `gorm:"type:varchar(50);not null"`
	Yield1Yr    *float64 `gorm:"column:yield_1yr"`
	Yield3Yr    *float64 `gorm:"column:yield_3yr"`
}

func (f FundColumns) toDomain() justification.FundInfo {
	return justification.FundInfo{
		FundType:    f.FundType,
		CompanyName: f.CompanyName,
		FundName:    f.FundName,
		FundCode:    f.FundCode,
		Yield1Yr:    f.Yield1Yr,
		Yield3Yr:    f.Yield3Yr,
	}
}

func fundColumnsFromDomain(f justification.FundInfo) FundColumns {
	return FundColumns{
		FundType:    f.FundType,
		CompanyName: f.CompanyName,
		FundName:    f.FundName,
		FundCode:    f.FundCode,
		Yield1Yr:    f.Yield1Yr,
		Yield3Yr:    f.Yield3Yr,
	}
}

// HoldingColumns holds the client-specific columns shared by existing and new products
type HoldingColumns struct {
	ManagementFeeBalance       *float64
	ManagementFeeContributions *float64
	AccumulatedAmount          *float64
	EmploymentStatus           *string `gorm:"type:varchar(100)"`
	HasRegularContributions    *bool
}

func (h HoldingColumns) toDomain() justification.Holding {
	return justification.Holding{
		ManagementFeeBalance:       h.ManagementFeeBalance,
		ManagementFeeContributions: h.ManagementFeeContributions,
		AccumulatedAmount:          h.AccumulatedAmount,
		EmploymentStatus:           h.EmploymentStatus,
		HasRegularContributions:    h.HasRegularContributions,
	}
}

func holdingColumnsFromDomain(h justification.Holding) HoldingColumns {
	return HoldingColumns{
		ManagementFeeBalance:       h.ManagementFeeBalance,
		ManagementFeeContributions: h.ManagementFeeContributions,
		AccumulatedAmount:          h.AccumulatedAmount,
		EmploymentStatus:           h.EmploymentStatus,
		HasRegularContributions:    h.HasRegularContributions,
	}
}

// SavingProductModel is the persistence model for the market fund table.
type SavingProductModel struct {
	BaseModel
	FundColumns      `gorm:"embedded"`
	RiskLevel        *int
	GuaranteedReturn *string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (SavingProductModel) TableName() string {
	return "saving_product"
}

// ToDomain converts the persistence model to a domain SavingProduct.
func (m *SavingProductModel) ToDomain() *justification.SavingProduct {
	return &justification.SavingProduct{
		ID:               m.ID,
		FundInfo:         m.FundColumns.toDomain(),
		RiskLevel:        m.RiskLevel,
		GuaranteedReturn: m.GuaranteedReturn,
	}
}

// SavingProductModelFromDomain creates a new persistence model from a domain SavingProduct.
func SavingProductModelFromDomain(p *justification.SavingProduct) *SavingProductModel {
	return &SavingProductModel{
		BaseModel:        BaseModel{ID: p.ID},
		FundColumns:      fundColumnsFromDomain(p.FundInfo),
		RiskLevel:        p.RiskLevel,
		GuaranteedReturn: p.GuaranteedReturn,
	}
}

// ExistingProductModel is the persistence model for a fund the client holds.
type ExistingProductModel struct {
	BaseModel
	ClientID       uint `gorm:"not null;index"`
	FundColumns    `gorm:"embedded"`
	PersonalNumber string `gorm:"type:varchar(50);not null;uniqueIndex"`
	HoldingColumns `gorm:"embedded"`
}

// TableName returns the table name for GORM
func (ExistingProductModel) TableName() string {
	return "existing_product"
}

// ToDomain converts the persistence model to a domain ExistingProduct.
func (m *ExistingProductModel) ToDomain() *justification.ExistingProduct {
	return &justification.ExistingProduct{
		ID:             m.ID,
		ClientID:       m.ClientID,
		FundInfo:       m.FundColumns.toDomain(),
		PersonalNumber: m.PersonalNumber,
		Holding:        m.HoldingColumns.toDomain(),
	}
}

// ExistingProductModelFromDomain creates a new persistence model from a domain ExistingProduct.
func ExistingProductModelFromDomain(p *justification.ExistingProduct) *ExistingProductModel {
	return &ExistingProductModel{
		BaseModel:      BaseModel{ID: p.ID},
		ClientID:       p.ClientID,
		FundColumns:    fundColumnsFromDomain(p.FundInfo),
		PersonalNumber: p.PersonalNumber,
		HoldingColumns: holdingColumnsFromDomain(p.Holding),
	}
}

// NewProductModel is the persistence model for a proposed fund.
type NewProductModel struct {
	BaseModel
	ClientID          uint  `gorm:"not null;index"`
	ExistingProductID *uint `gorm:"index"`
	FundColumns       `gorm:"embedded"`
	PersonalNumber    *string `gorm:"type:varchar(50);uniqueIndex"`
	HoldingColumns    `gorm:"embedded"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NewProductModel) TableName() string {
	return "new_product"
}

// ToDomain converts the persistence model to a domain NewProduct.
func (m *NewProductModel) ToDomain() *justification.NewProduct {
	return &justification.NewProduct{
		ID:                m.ID,
		ClientID:          m.ClientID,
		ExistingProductID: m.ExistingProductID,
		FundInfo:          m.FundColumns.toDomain(),
		PersonalNumber:    m.PersonalNumber,
		Holding:           m.HoldingColumns.toDomain(),
		CreatedAt:         m.CreatedAt,
	}
}

// NewProductModelFromDomain creates a new persistence model from a domain NewProduct.
func NewProductModelFromDomain(p *justification.NewProduct) *NewProductModel {
	return &NewProductModel{
		BaseModel:         BaseModel{ID: p.ID},
		ClientID:          p.ClientID,
		ExistingProductID: p.ExistingProductID,
		FundColumns:       fundColumnsFromDomain(p.FundInfo),
		PersonalNumber:    p.PersonalNumber,
		HoldingColumns:    holdingColumnsFromDomain(p.Holding),
		CreatedAt:         p.CreatedAt,
	}
}

// FormInstanceModel is the persistence model for a filled PDF form.
type FormInstanceModel struct {
	BaseModel
	NewProductID     uint      `gorm:"not null;index"`
	TemplateFilename string    `gorm:"type:varchar(255);not null"`
	GeneratedAt      time.Time `gorm:"not null"`
	Status           string    `gorm:"type:varchar(255);not null"`
	FilledData       *string   `gorm:"type:text"`
	FileOutputPath   *string   `gorm:"type:varchar(512)"`
}

// TableName returns the table name for GORM
func (FormInstanceModel) TableName() string {
	return "form_instance"
}

// ToDomain converts the persistence model to a domain FormInstance.
// Undecodable filled data is surfaced as nil.
func (m *FormInstanceModel) ToDomain() *justification.FormInstance {
	f := &justification.FormInstance{
		ID:               m.ID,
		NewProductID:     m.NewProductID,
		TemplateFilename: m.TemplateFilename,
		GeneratedAt:      m.GeneratedAt,
		Status:           m.Status,
		FileOutputPath:   m.FileOutputPath,
	}
	if m.FilledData != nil && *m.FilledData != "" {
		var data map[string]any
		if err := json.Unmarshal([]byte(*m.FilledData), &data); err == nil {
			f.FilledData = data
		}
	}
	return f
}

// FormInstanceModelFromDomain creates a new persistence model from a domain FormInstance.
func FormInstanceModelFromDomain(f *justification.FormInstance) *FormInstanceModel {
	m := &FormInstanceModel{
		BaseModel:        BaseModel{ID: f.ID},
		NewProductID:     f.NewProductID,
		TemplateFilename: f.TemplateFilename,
		GeneratedAt:      f.GeneratedAt,
		Status:           f.Status,
		FileOutputPath:   f.FileOutputPath,
	}
	if f.FilledData != nil {
		if jsonBytes, err := json.Marshal(f.FilledData); err == nil {
			s := string(jsonBytes)
			m.FilledData = &s
		}
	}
	return m
}

// ClientSignatureRequestModel is the persistence model for a signing link.
type ClientSignatureRequestModel struct {
	BaseModel
	ClientID             uint       `gorm:"not null;index"`
	Token                string     `gorm:"type:varchar(128);not null;uniqueIndex"`
	PacketFilename       string     `gorm:"type:varchar(255);not null"`
	SignedPacketFilename *string    `gorm:"type:varchar(255)"`
	Status               string     `gorm:"type:varchar(32);not null;default:'pending'"`
	CreatedAt            time.Time  `gorm:"not null"`
	SignedAt             *time.Time
}

// TableName returns the table name for GORM
func (ClientSignatureRequestModel) TableName() string {
	return "client_signature_request"
}

// ToDomain converts the persistence model to a domain ClientSignatureRequest.
func (m *ClientSignatureRequestModel) ToDomain() *justification.ClientSignatureRequest {
	return &justification.ClientSignatureRequest{
		ID:                   m.ID,
		ClientID:             m.ClientID,
		Token:                m.Token,
		PacketFilename:       m.PacketFilename,
		SignedPacketFilename: m.SignedPacketFilename,
		Status:               m.Status,
		CreatedAt:            m.CreatedAt,
		SignedAt:             m.SignedAt,
	}
}

// ClientSignatureRequestModelFromDomain creates a new persistence model from a domain request.
func ClientSignatureRequestModelFromDomain(r *justification.ClientSignatureRequest) *ClientSignatureRequestModel {
	return &ClientSignatureRequestModel{
		BaseModel:            BaseModel{ID: r.ID},
		ClientID:             r.ClientID,
		Token:                r.Token,
		PacketFilename:       r.PacketFilename,
		SignedPacketFilename: r.SignedPacketFilename,
		Status:               r.Status,
		CreatedAt:            r.CreatedAt,
		SignedAt:             r.SignedAt,
	}
}
