// Package legacy migrates the two retired systems (the mini CRM and the
// justification tool) into the unified schema.
package legacy

import (
	"context"
	"time"
)

// MiniCRMClient is a client row of the mini CRM
type MiniCRMClient struct {
	ID      int64
	IDCanon string
	Name    string
}

// MiniCRMSnapshot is a snapshot row of the mini CRM
type MiniCRMSnapshot struct {
	ID           int64
	ClientID     int64
	FundCode     string
	FundType     *string
	FundName     *string
	FundNumber   *string
	Source       *string
	Amount       float64
	SnapshotDate string
	IsActive     *bool
}

// MiniCRMData is the full content of a mini CRM database
type MiniCRMData struct {
	Clients []MiniCRMClient
	// Snapshots are grouped by legacy client ID
	Snapshots map[int64][]MiniCRMSnapshot
}

// JustificationClient is a client row of the justification tool
type JustificationClient struct {
	ID              int64
	FirstName       string
	LastName        string
	NationalID      string
	Gender          *string
	MaritalStatus   *string
	DateOfBirth     *time.Time
	Email           *string
	Phone           *string
	City            *string
	Street          *string
	HouseNumber     *string
	ApartmentNumber *string
	ZipCode         *string
	EmployerName    *string
	EmployerHP      *string
	EmployerAddress *string
	EmployerPhone   *string
}

// JustificationFund holds the market identity columns shared by the legacy product tables
type JustificationFund struct {
	FundType    string
	CompanyName string
	FundName    string
	FundCode    string
	Yield1Yr    *float64
	Yield3Yr    *float64
}

// JustificationHolding holds the client-specific legacy product columns
type JustificationHolding struct {
	ManagementFeeBalance       *float64
	ManagementFeeContributions *float64
	AccumulatedAmount          *float64
	EmploymentStatus           *string
	HasRegularContributions    *bool
}

// JustificationSavingProduct is a market fund row of the justification tool
type JustificationSavingProduct struct {
	ID int64
	JustificationFund
	RiskLevel        *int
	GuaranteedReturn *string
}

// JustificationExistingProduct is an existing product row of the justification tool
type JustificationExistingProduct struct {
	ID       int64
	ClientID int64
	JustificationFund
	PersonalNumber *string
	JustificationHolding
}

// JustificationNewProduct is a new product row of the justification tool
type JustificationNewProduct struct {
	ID                int64
	ClientID          int64
	ExistingProductID *int64
	JustificationFund
	PersonalNumber *string
	JustificationHolding
	CreatedAt *time.Time
}

// JustificationFormInstance is a form instance row of the justification tool
type JustificationFormInstance struct {
	ID               int64
	NewProductID     int64
	TemplateFilename string
	GeneratedAt      *time.Time
	Status           string
	FilledData       map[string]any
	FileOutputPath   *string
}

// JustificationData is the full content of a justification database
type JustificationData struct {
	Clients          []JustificationClient
	SavingProducts   []JustificationSavingProduct
	ExistingProducts []JustificationExistingProduct
	NewProducts      []JustificationNewProduct
	FormInstances    []JustificationFormInstance
}

// MiniCRMSource loads the mini CRM database
type MiniCRMSource interface {
	LoadMiniCRM(ctx context.Context) (*MiniCRMData, error)
}

// JustificationSource loads the justification database
type JustificationSource interface {
	LoadJustification(ctx context.Context) (*JustificationData, error)
	LoadJustificationClients(ctx context.Context) ([]JustificationClient, error)
}
