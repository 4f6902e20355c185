package legacydb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/advisory/backoffice/internal/application/legacy"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type justClientRow struct {
	ID                int64
	FirstName         string
	LastName          string
	NationalID        string
	Gender            *string
	MaritalStatus     *string
	DateOfBirth       *string
	Email             *string
	Phone             *string
	City              *string
	Street            *string
	HouseNumber       *string
	ApartmentNumber   *string
	ZipCode           *string
	EmployerName      *string
	EmployerCompanyID *string
	EmployerAddress   *string
	EmployerPhone     *string
}

func (justClientRow) TableName() string { return "client" }

// JustFundColumns maps the legacy market identity columns
type JustFundColumns struct {
	FundType    string
	CompanyName string
	FundName    string
	FundCode    string
	Yield1Yr    *float64 `gorm:"column:yield_1yr"`
	Yield3Yr    *float64 `gorm:"column:yield_3yr"`
}

func (f JustFundColumns) toLegacy() legacy.JustificationFund {
	return legacy.JustificationFund{
		FundType:    f.FundType,
		CompanyName: f.CompanyName,
		FundName:    f.FundName,
		FundCode:    f.FundCode,
		Yield1Yr:    f.Yield1Yr,
		Yield3Yr:    f.Yield3Yr,
	}
}

// JustHoldingColumns maps the legacy client-specific product columns
type JustHoldingColumns struct {
	ManagementFeeBalance       *float64
	ManagementFeeContributions *float64
	AccumulatedAmount          *float64
	EmploymentStatus           *string
	HasRegularContributions    *bool
}

func (h JustHoldingColumns) toLegacy() legacy.JustificationHolding {
	return legacy.JustificationHolding{
		ManagementFeeBalance:       h.ManagementFeeBalance,
		ManagementFeeContributions: h.ManagementFeeContributions,
		AccumulatedAmount:          h.AccumulatedAmount,
		EmploymentStatus:           h.EmploymentStatus,
		HasRegularContributions:    h.HasRegularContributions,
	}
}

type justSavingProductRow struct {
	ID               int64
	JustFundColumns  `gorm:"embedded"`
	RiskLevel        *int
	GuaranteedReturn *string
}

func (justSavingProductRow) TableName() string { return "saving_product" }

type justExistingProductRow struct {
	ID                 int64
	ClientID           int64
	JustFundColumns    `gorm:"embedded"`
	PersonalNumber     *string
	JustHoldingColumns `gorm:"embedded"`
}

func (justExistingProductRow) TableName() string { return "existing_product" }

type justNewProductRow struct {
	ID                 int64
	ClientID           int64
	ExistingProductID  *int64
	JustFundColumns    `gorm:"embedded"`
	PersonalNumber     *string
	JustHoldingColumns `gorm:"embedded"`
	CreatedAt          *string
}

func (justNewProductRow) TableName() string { return "new_product" }

type justFormInstanceRow struct {
	ID               int64
	NewProductID     int64
	TemplateFilename string
	GeneratedAt      *string
	Status           string
	FilledData       *string
	FileOutputPath   *string
}

func (justFormInstanceRow) TableName() string { return "form_instance" }

// JustificationReader loads the justification sqlite file
type JustificationReader struct {
	path string
	log  gormlogger.Interface
}

// NewJustificationReader creates a reader for the file at path
func NewJustificationReader(path string, log gormlogger.Interface) *JustificationReader {
	return &JustificationReader{path: path, log: log}
}

// LoadJustificationClients reads only the client table
func (r *JustificationReader) LoadJustificationClients(ctx context.Context) ([]legacy.JustificationClient, error) {
	db, err := Open(r.path, r.log)
	if err != nil {
		return nil, err
	}
	defer closeDB(db)
	return readJustClients(ctx, db)
}

// LoadJustification reads every table the migration copies
func (r *JustificationReader) LoadJustification(ctx context.Context) (*legacy.JustificationData, error) {
	db, err := Open(r.path, r.log)
	if err != nil {
		return nil, err
	}
	defer closeDB(db)

	clients, err := readJustClients(ctx, db)
	if err != nil {
		return nil, err
	}
	data := &legacy.JustificationData{Clients: clients}

	var savingRows []justSavingProductRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&savingRows).Error; err != nil {
		return nil, fmt.Errorf("read saving products: %w", err)
	}
	for _, row := range savingRows {
		data.SavingProducts = append(data.SavingProducts, legacy.JustificationSavingProduct{
			ID:                row.ID,
			JustificationFund: row.JustFundColumns.toLegacy(),
			RiskLevel:         row.RiskLevel,
			GuaranteedReturn:  row.GuaranteedReturn,
		})
	}

	var existingRows []justExistingProductRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&existingRows).Error; err != nil {
		return nil, fmt.Errorf("read existing products: %w", err)
	}
	for _, row := range existingRows {
		data.ExistingProducts = append(data.ExistingProducts, legacy.JustificationExistingProduct{
			ID:                   row.ID,
			ClientID:             row.ClientID,
			JustificationFund:    row.JustFundColumns.toLegacy(),
			PersonalNumber:       row.PersonalNumber,
			JustificationHolding: row.JustHoldingColumns.toLegacy(),
		})
	}

	var newRows []justNewProductRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&newRows).Error; err != nil {
		return nil, fmt.Errorf("read new products: %w", err)
	}
	for _, row := range newRows {
		data.NewProducts = append(data.NewProducts, legacy.JustificationNewProduct{
			ID:                   row.ID,
			ClientID:             row.ClientID,
			ExistingProductID:    row.ExistingProductID,
			JustificationFund:    row.JustFundColumns.toLegacy(),
			PersonalNumber:       row.PersonalNumber,
			JustificationHolding: row.JustHoldingColumns.toLegacy(),
			CreatedAt:            parseTime(row.CreatedAt),
		})
	}

	var formRows []justFormInstanceRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&formRows).Error; err != nil {
		return nil, fmt.Errorf("read form instances: %w", err)
	}
	for _, row := range formRows {
		form := legacy.JustificationFormInstance{
			ID:               row.ID,
			NewProductID:     row.NewProductID,
			TemplateFilename: row.TemplateFilename,
			GeneratedAt:      parseTime(row.GeneratedAt),
			Status:           row.Status,
			FileOutputPath:   row.FileOutputPath,
		}
		if row.FilledData != nil && *row.FilledData != "" {
			var filled map[string]any
			if err := json.Unmarshal([]byte(*row.FilledData), &filled); err == nil {
				form.FilledData = filled
			}
		}
		data.FormInstances = append(data.FormInstances, form)
	}

	return data, nil
}

func readJustClients(ctx context.Context, db *gorm.DB) ([]legacy.JustificationClient, error) {
	var rows []justClientRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read justification clients: %w", err)
	}
	clients := make([]legacy.JustificationClient, len(rows))
	for i, row := range rows {
		clients[i] = legacy.JustificationClient{
			ID:              row.ID,
			FirstName:       row.FirstName,
			LastName:        row.LastName,
			NationalID:      row.NationalID,
			Gender:          row.Gender,
			MaritalStatus:   row.MaritalStatus,
			DateOfBirth:     parseTime(row.DateOfBirth),
			Email:           row.Email,
			Phone:           row.Phone,
			City:            row.City,
			Street:          row.Street,
			HouseNumber:     row.HouseNumber,
			ApartmentNumber: row.ApartmentNumber,
			ZipCode:         row.ZipCode,
			EmployerName:    row.EmployerName,
			EmployerHP:      row.EmployerCompanyID,
			EmployerAddress: row.EmployerAddress,
			EmployerPhone:   row.EmployerPhone,
		}
	}
	return clients, nil
}

var _ legacy.JustificationSource = (*JustificationReader)(nil)
