package models

import (
	"time"

	"github.com/advisory/backoffice/internal/domain/client"
)

// ClientModel is the persistence model for the Client domain entity.
type ClientModel struct {
	TimestampedModel
	IDNumberRaw string  `gorm:"type:varchar(20);not null"`
	IDNumber    string  `gorm:"type:varchar(9);not null;uniqueIndex"`
	FullName    string  `gorm:"type:varchar(100);not null;index"`
	FirstName   *string `gorm:"type:varchar(50)"`
	LastName    *string `gorm:"type:varchar(50)"`

	BirthDate     time.Time `gorm:"type:date;not null"`
	Gender        *string   `gorm:"type:varchar(10)"`
	MaritalStatus *string   `gorm:"type:varchar(20)"`
	BirthCountry  *string   `gorm:"type:varchar(50)"`

	SelfEmployed           *bool
	CurrentEmployerExists  *bool
	PlannedTerminationDate *time.Time `gorm:"type:date"`
	EmployerName           *string    `gorm:"type:varchar(100)"`
	EmployerHP             *string    `gorm:"column:employer_hp;type:varchar(20)"`
	EmployerAddress        *string    `gorm:"type:varchar(200)"`
	EmployerPhone          *string    `gorm:"type:varchar(20)"`

	Email              *string `gorm:"type:varchar(100)"`
	Phone              *string `gorm:"type:varchar(20)"`
	AddressStreet      *string `gorm:"type:varchar(100)"`
	AddressCity        *string `gorm:"type:varchar(50)"`
	AddressHouseNumber *string `gorm:"type:varchar(10)"`
	AddressApartment   *string `gorm:"type:varchar(10)"`
	AddressPostalCode  *string `gorm:"type:varchar(10)"`

	RetirementTargetDate *time.Time `gorm:"type:date"`
	NumChildren          *int
	IsNewImmigrant       *bool
	IsVeteran            *bool
	IsDisabled           *bool
	DisabilityPercentage *float64
	IsStudent            *bool
	ReserveDutyDays      *int

	AnnualSalary           *float64
	PensionContributions   *float64
	StudyFundContributions *float64
	InsurancePremiums      *float64
	CharitableDonations    *float64
	TaxCreditPoints        *float64
	PensionStartDate       *time.Time `gorm:"type:date"`
	SpouseIncome           *float64
	ImmigrationDate        *time.Time `gorm:"type:date"`
	MilitaryDischargeDate  *time.Time `gorm:"type:date"`

	IsActive bool    `gorm:"not null;default:true;index"`
	Notes    *string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "client"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *client.Client {
	raw, idNumber := m.IDNumberRaw, m.IDNumber
	return &client.Client{
		ID:                     m.ID,
		IDNumberRaw:            &raw,
		IDNumber:               &idNumber,
		FullName:               m.FullName,
		FirstName:              m.FirstName,
		LastName:               m.LastName,
		BirthDate:              m.BirthDate,
		Gender:                 m.Gender,
		MaritalStatus:          m.MaritalStatus,
		BirthCountry:           m.BirthCountry,
		SelfEmployed:           m.SelfEmployed,
		CurrentEmployerExists:  m.CurrentEmployerExists,
		PlannedTerminationDate: m.PlannedTerminationDate,
		EmployerName:           m.EmployerName,
		EmployerHP:             m.EmployerHP,
		EmployerAddress:        m.EmployerAddress,
		EmployerPhone:          m.EmployerPhone,
		Email:                  m.Email,
		Phone:                  m.Phone,
		AddressStreet:          m.AddressStreet,
		AddressCity:            m.AddressCity,
		AddressHouseNumber:     m.AddressHouseNumber,
		AddressApartment:       m.AddressApartment,
		AddressPostalCode:      m.AddressPostalCode,
		RetirementTargetDate:   m.RetirementTargetDate,
		NumChildren:            m.NumChildren,
		IsNewImmigrant:         m.IsNewImmigrant,
		IsVeteran:              m.IsVeteran,
		IsDisabled:             m.IsDisabled,
		DisabilityPercentage:   m.DisabilityPercentage,
		IsStudent:              m.IsStudent,
		ReserveDutyDays:        m.ReserveDutyDays,
		AnnualSalary:           m.AnnualSalary,
		PensionContributions:   m.PensionContributions,
		StudyFundContributions: m.StudyFundContributions,
		InsurancePremiums:      m.InsurancePremiums,
		CharitableDonations:    m.CharitableDonations,
		TaxCreditPoints:        m.TaxCreditPoints,
		PensionStartDate:       m.PensionStartDate,
		SpouseIncome:           m.SpouseIncome,
		ImmigrationDate:        m.ImmigrationDate,
		MilitaryDischargeDate:  m.MilitaryDischargeDate,
		IsActive:               m.IsActive,
		Notes:                  m.Notes,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a prepared domain Client.
func (m *ClientModel) FromDomain(c *client.Client) {
	m.ID = c.ID
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
	m.IDNumberRaw = client.Deref(c.IDNumberRaw)
	m.IDNumber = client.Deref(c.IDNumber)
	m.FullName = c.FullName
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.BirthDate = c.BirthDate
	m.Gender = c.Gender
	m.MaritalStatus = c.MaritalStatus
	m.BirthCountry = c.BirthCountry
	m.SelfEmployed = c.SelfEmployed
	m.CurrentEmployerExists = c.CurrentEmployerExists
	m.PlannedTerminationDate = c.PlannedTerminationDate
	m.EmployerName = c.EmployerName
	m.EmployerHP = c.EmployerHP
	m.EmployerAddress = c.EmployerAddress
	m.EmployerPhone = c.EmployerPhone
	m.Email = c.Email
	m.Phone = c.Phone
	m.AddressStreet = c.AddressStreet
	m.AddressCity = c.AddressCity
	m.AddressHouseNumber = c.AddressHouseNumber
	m.AddressApartment = c.AddressApartment
	m.AddressPostalCode = c.AddressPostalCode
	m.RetirementTargetDate = c.RetirementTargetDate
	m.NumChildren = c.NumChildren
	m.IsNewImmigrant = c.IsNewImmigrant
	m.IsVeteran = c.IsVeteran
	m.IsDisabled = c.IsDisabled
	m.DisabilityPercentage = c.DisabilityPercentage
	m.IsStudent = c.IsStudent
	m.ReserveDutyDays = c.ReserveDutyDays
	m.AnnualSalary = c.AnnualSalary
	m.PensionContributions = c.PensionContributions
	m.StudyFundContributions = c.StudyFundContributions
	m.InsurancePremiums = c.InsurancePremiums
	m.CharitableDonations = c.CharitableDonations
	m.TaxCreditPoints = c.TaxCreditPoints
	m.PensionStartDate = c.PensionStartDate
	m.SpouseIncome = c.SpouseIncome
	m.ImmigrationDate = c.ImmigrationDate
	m.MilitaryDischargeDate = c.MilitaryDischargeDate
	m.IsActive = c.IsActive
	m.Notes = c.Notes
}

// ClientModelFromDomain creates a new persistence model from a domain Client.
func ClientModelFromDomain(c *client.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// ClientNoteModel is the persistence model for client notes. Timestamps are
// kept as text, matching the legacy CRM.
type ClientNoteModel struct {
	BaseModel
	ClientID    uint    `gorm:"not null;index"`
	Note        string  `gorm:"type:text;not null"`
	CreatedAt   string  `gorm:"type:varchar(19);not null"`
	ReminderAt  *string `gorm:"type:varchar(10)"`
	DismissedAt *string `gorm:"type:varchar(19)"`
}

// TableName returns the table name for GORM
func (ClientNoteModel) TableName() string {
	return "client_note"
}

// ToDomain converts the persistence model to a domain ClientNote.
func (m *ClientNoteModel) ToDomain() *client.ClientNote {
	return &client.ClientNote{
		ID:          m.ID,
		ClientID:    m.ClientID,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
		ReminderAt:  m.ReminderAt,
		DismissedAt: m.DismissedAt,
	}
}

// ClientNoteModelFromDomain creates a new persistence model from a domain ClientNote.
func ClientNoteModelFromDomain(n *client.ClientNote) *ClientNoteModel {
	return &ClientNoteModel{
		BaseModel:   BaseModel{ID: n.ID},
		ClientID:    n.ClientID,
		Note:        n.Note,
		CreatedAt:   n.CreatedAt,
		ReminderAt:  n.ReminderAt,
		DismissedAt: n.DismissedAt,
	}
}

// ClientBeneficiaryModel is the persistence model for client beneficiaries.
type ClientBeneficiaryModel struct {
	BaseModel
	ClientID   uint     `gorm:"not null;index"`
	Index      int      `gorm:"column:index;not null"`
	FirstName  *string  `gorm:"type:varchar(50)"`
	LastName   *string  `gorm:"type:varchar(50)"`
	IDNumber   *string  `gorm:"type:varchar(20)"`
	BirthDate  *string  `gorm:"type:varchar(10)"`
	Address    *string  `gorm:"type:varchar(200)"`
	Relation   *string  `gorm:"type:varchar(100)"`
	Percentage *float64
}

// TableName returns the table name for GORM
func (ClientBeneficiaryModel) TableName() string {
	return "client_beneficiary"
}

// ToDomain converts the persistence model to a domain ClientBeneficiary.
func (m *ClientBeneficiaryModel) ToDomain() *client.ClientBeneficiary {
	return &client.ClientBeneficiary{
		ID:         m.ID,
		ClientID:   m.ClientID,
		Index:      m.Index,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		IDNumber:   m.IDNumber,
		BirthDate:  m.BirthDate,
		Address:    m.Address,
		Relation:   m.Relation,
		Percentage: m.Percentage,
	}
}

// ClientBeneficiaryModelFromDomain creates a new persistence model from a domain ClientBeneficiary.
func ClientBeneficiaryModelFromDomain(b *client.ClientBeneficiary) *ClientBeneficiaryModel {
	return &ClientBeneficiaryModel{
		BaseModel:  BaseModel{ID: b.ID},
		ClientID:   b.ClientID,
		Index:      b.Index,
		FirstName:  b.FirstName,
		LastName:   b.LastName,
		IDNumber:   b.IDNumber,
		BirthDate:  b.BirthDate,
		Address:    b.Address,
		Relation:   b.Relation,
		Percentage: b.Percentage,
	}
}
