package justification

import (
	"time"

	"github.com/advisory/backoffice/internal/domain/justification"
)

// =============================================================================
// Saving Products
// =============================================================================

// SavingProductResponse represents a market fund row in API responses
type SavingProductResponse struct {
	ID               uint     `json:"id"`
	FundType         string   `json:"fundType"`
	CompanyName      string   `json:"companyName"`
	FundName         string   `json:"fundName"`
	FundCode         string   `json:"fundCode"`
	Yield1Yr         *float64 `json:"yield1yr"`
	Yield3Yr         *float64 `json:"yield3yr"`
	RiskLevel        *int     `json:"riskLevel"`
	GuaranteedReturn *string  `json:"guaranteedReturn"`
}

// ToSavingProductResponse converts a domain saving product to a response DTO
func ToSavingProductResponse(p *justification.SavingProduct) SavingProductResponse {
	return SavingProductResponse{
		ID:               p.ID,
		FundType:         p.FundType,
		CompanyName:      p.CompanyName,
		FundName:         p.FundName,
		FundCode:         p.FundCode,
		Yield1Yr:         p.Yield1Yr,
		Yield3Yr:         p.Yield3Yr,
		RiskLevel:        p.RiskLevel,
		GuaranteedReturn: p.GuaranteedReturn,
	}
}

// =============================================================================
// Existing Products
// =============================================================================

// HoldingFields are the client-specific product fields shared by requests
type HoldingFields struct {
	Yield1Yr                   *float64 `json:"yield1yr"`
	Yield3Yr                   *float64 `json:"yield3yr"`
	ManagementFeeBalance       *float64 `json:"managementFeeBalance"`
	ManagementFeeContributions *float64 `json:"managementFeeContributions"`
	AccumulatedAmount          *float64 `json:"accumulatedAmount"`
	EmploymentStatus           *string  `json:"employmentStatus"`
	HasRegularContributions    *bool    `json:"hasRegularContributions"`
}

func (h HoldingFields) holding() justification.Holding {
	return justification.Holding{
		ManagementFeeBalance:       h.ManagementFeeBalance,
		ManagementFeeContributions: h.ManagementFeeContributions,
		AccumulatedAmount:          h.AccumulatedAmount,
		EmploymentStatus:           h.EmploymentStatus,
		HasRegularContributions:    h.HasRegularContributions,
	}
}

// CreateExistingProductRequest represents a manually entered existing product
type CreateExistingProductRequest struct {
	FundType       string `json:"fundType" binding:"required"`
	CompanyName    string `json:"companyName" binding:"required"`
	FundName       string `json:"fundName" binding:"required"`
	FundCode       string `json:"fundCode" binding:"required"`
	PersonalNumber string `json:"personalNumber" binding:"required"`
	HoldingFields
}

// UpdateExistingProductRequest is a partial update; nil fields are untouched
type UpdateExistingProductRequest struct {
	FundType       *string `json:"fundType"`
	CompanyName    *string `json:"companyName"`
	FundName       *string `json:"fundName"`
	FundCode       *string `json:"fundCode"`
	PersonalNumber *string `json:"personalNumber"`
	HoldingFields
}

// ExistingProductResponse is a row of the merged existing-products list
type ExistingProductResponse struct {
	ID                         int64    `json:"id"`
	ClientID                   uint     `json:"clientId"`
	FundType                   string   `json:"fundType"`
	CompanyName                string   `json:"companyName"`
	FundName                   string   `json:"fundName"`
	FundCode                   string   `json:"fundCode"`
	Yield1Yr                   *float64 `json:"yield1yr"`
	Yield3Yr                   *float64 `json:"yield3yr"`
	PersonalNumber             string   `json:"personalNumber"`
	ManagementFeeBalance       *float64 `json:"managementFeeBalance"`
	ManagementFeeContributions *float64 `json:"managementFeeContributions"`
	AccumulatedAmount          *float64 `json:"accumulatedAmount"`
	EmploymentStatus           *string  `json:"employmentStatus"`
	HasRegularContributions    *bool    `json:"hasRegularContributions"`
	IsVirtual                  bool     `json:"isVirtual"`
}

// ToExistingProductViewResponse converts a view row to a response DTO
func ToExistingProductViewResponse(v justification.ExistingProductView) ExistingProductResponse {
	return ExistingProductResponse{
		ID:                         v.ID,
		ClientID:                   v.ClientID,
		FundType:                   v.FundType,
		CompanyName:                v.CompanyName,
		FundName:                   v.FundName,
		FundCode:                   v.FundCode,
		Yield1Yr:                   v.Yield1Yr,
		Yield3Yr:                   v.Yield3Yr,
		PersonalNumber:             v.PersonalNumber,
		ManagementFeeBalance:       v.ManagementFeeBalance,
		ManagementFeeContributions: v.ManagementFeeContributions,
		AccumulatedAmount:          v.AccumulatedAmount,
		EmploymentStatus:           v.EmploymentStatus,
		HasRegularContributions:    v.HasRegularContributions,
		IsVirtual:                  v.IsVirtual,
	}
}

// ToExistingProductResponse converts a persisted product to a response DTO
func ToExistingProductResponse(p *justification.ExistingProduct) ExistingProductResponse {
	return ToExistingProductViewResponse(justification.ExistingProductView{
		ID:             int64(p.ID),
		ClientID:       p.ClientID,
		FundInfo:       p.FundInfo,
		PersonalNumber: p.PersonalNumber,
		Holding:        p.Holding,
	})
}

// =============================================================================
// New Products
// =============================================================================

// CreateNewProductRequest represents a proposed product. A negative
// ExistingProductID refers to a virtual row of the existing-products list.
type CreateNewProductRequest struct {
	FundType          string  `json:"fundType" binding:"required"`
	CompanyName       string  `json:"companyName" binding:"required"`
	FundName          string  `json:"fundName" binding:"required"`
	FundCode          string  `json:"fundCode" binding:"required"`
	PersonalNumber    *string `json:"personalNumber"`
	ExistingProductID *int64  `json:"existingProductId"`
	HoldingFields
}

// NewProductResponse represents a new product in API responses
type NewProductResponse struct {
	ID                         uint     `json:"id"`
	ClientID                   uint     `json:"clientId"`
	ExistingProductID          *uint    `json:"existingProductId"`
	FundType                   string   `json:"fundType"`
	CompanyName                string   `json:"companyName"`
	FundName                   string   `json:"fundName"`
	FundCode                   string   `json:"fundCode"`
	Yield1Yr                   *float64 `json:"yield1yr"`
	Yield3Yr                   *float64 `json:"yield3yr"`
	PersonalNumber             *string  `json:"personalNumber"`
	ManagementFeeBalance       *float64 `json:"managementFeeBalance"`
	ManagementFeeContributions *float64 `json:"managementFeeContributions"`
	AccumulatedAmount          *float64 `json:"accumulatedAmount"`
	EmploymentStatus           *string  `json:"employmentStatus"`
	HasRegularContributions    *bool    `json:"hasRegularContributions"`
	CreatedAt                  string   `json:"createdAt"`
}

// ToNewProductResponse converts a domain new product to a response DTO
func ToNewProductResponse(p *justification.NewProduct) NewProductResponse {
	return NewProductResponse{
		ID:                         p.ID,
		ClientID:                   p.ClientID,
		ExistingProductID:          p.ExistingProductID,
		FundType:                   p.FundType,
		CompanyName:                p.CompanyName,
		FundName:                   p.FundName,
		FundCode:                   p.FundCode,
		Yield1Yr:                   p.Yield1Yr,
		Yield3Yr:                   p.Yield3Yr,
		PersonalNumber:             p.PersonalNumber,
		ManagementFeeBalance:       p.ManagementFeeBalance,
		ManagementFeeContributions: p.ManagementFeeContributions,
		AccumulatedAmount:          p.AccumulatedAmount,
		EmploymentStatus:           p.EmploymentStatus,
		HasRegularContributions:    p.HasRegularContributions,
		CreatedAt:                  p.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// Form Instances
// =============================================================================

// CreateFormInstanceRequest records a filled form for a new product
type CreateFormInstanceRequest struct {
	TemplateFilename string         `json:"templateFilename" binding:"required"`
	Status           string         `json:"status"`
	FilledData       map[string]any `json:"filledData"`
	FileOutputPath   *string        `json:"fileOutputPath"`
}

// FormInstanceResponse represents a form instance in API responses
type FormInstanceResponse struct {
	ID               uint           `json:"id"`
	NewProductID     uint           `json:"newProductId"`
	TemplateFilename string         `json:"templateFilename"`
	Status           string         `json:"status"`
	FilledData       map[string]any `json:"filledData"`
	FileOutputPath   *string        `json:"fileOutputPath"`
	GeneratedAt      string         `json:"generatedAt"`
}

// ToFormInstanceResponse converts a domain form instance to a response DTO
func ToFormInstanceResponse(f *justification.FormInstance) FormInstanceResponse {
	return FormInstanceResponse{
		ID:               f.ID,
		NewProductID:     f.NewProductID,
		TemplateFilename: f.TemplateFilename,
		Status:           f.Status,
		FilledData:       f.FilledData,
		FileOutputPath:   f.FileOutputPath,
		GeneratedAt:      f.GeneratedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// Documents
// =============================================================================

// OverlayRequest asks for free text and a signature stamped onto a document
type OverlayRequest struct {
	FreeText          string `json:"freeText"`
	SignatureDataURL  string `json:"signatureDataUrl"`
	SignaturePosition string `json:"signaturePosition"`
}

// TrimPacketRequest lists 1-based packet pages to drop
type TrimPacketRequest struct {
	PagesToRemove []int `json:"pagesToRemove"`
}

// TrimPacketResponse reports the edited packet file
type TrimPacketResponse struct {
	Detail         string `json:"detail"`
	EditedFilename string `json:"editedFilename"`
}

// UploadResponse acknowledges an uploaded edit
type UploadResponse struct {
	Detail string `json:"detail"`
}

// =============================================================================
// Signing
// =============================================================================

// SignRequestResponse carries a fresh signing link
type SignRequestResponse struct {
	Token   string `json:"token"`
	URL     string `json:"url"`
	FullURL string `json:"fullUrl"`
}

// SubmitSignatureRequest carries the drawn signature
type SubmitSignatureRequest struct {
	SignatureDataURL string `json:"signatureDataUrl"`
}

// SubmitSignatureResponse reports the request state after signing
type SubmitSignatureResponse struct {
	Detail string `json:"detail"`
	Status string `json:"status"`
}
