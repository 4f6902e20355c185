package crm

import (
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Client DTOs
// =============================================================================

// CreateClientRequest represents a request to create a client
type CreateClientRequest struct {
	IDNumber           string  `json:"idNumber" binding:"required,max=20,idnumber"`
	FullName           string  `json:"fullName" binding:"max=200"`
	FirstName          *string `json:"firstName"`
	LastName           *string `json:"lastName"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	AddressStreet      *string `json:"addressStreet"`
	AddressCity        *string `json:"addressCity"`
	AddressPostalCode  *string `json:"addressPostalCode"`
	AddressHouseNumber *string `json:"addressHouseNumber"`
	AddressApartment   *string `json:"addressApartment"`
	BirthDate          *string `json:"birthDate"`
	Gender             *string `json:"gender"`
	MaritalStatus      *string `json:"maritalStatus"`
	BirthCountry       *string `json:"birthCountry"`
	EmployerName       *string `json:"employerName"`
	EmployerHP         *string `json:"employerHp"`
	EmployerAddress    *string `json:"employerAddress"`
	EmployerPhone      *string `json:"employerPhone"`
}

// UpdateClientRequest is a partial update; nil fields are left untouched.
// BirthDate "" resets the placeholder date.
type UpdateClientRequest struct {
	FirstName          *string `json:"firstName"`
	LastName           *string `json:"lastName"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	AddressStreet      *string `json:"addressStreet"`
	AddressCity        *string `json:"addressCity"`
	AddressPostalCode  *string `json:"addressPostalCode"`
	AddressHouseNumber *string `json:"addressHouseNumber"`
	AddressApartment   *string `json:"addressApartment"`
	BirthDate          *string `json:"birthDate"`
	Gender             *string `json:"gender"`
	MaritalStatus      *string `json:"maritalStatus"`
	BirthCountry       *string `json:"birthCountry"`
	EmployerName       *string `json:"employerName"`
	EmployerHP         *string `json:"employerHp"`
	EmployerAddress    *string `json:"employerAddress"`
	EmployerPhone      *string `json:"employerPhone"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID                 uint    `json:"id"`
	IDNumber           string  `json:"idNumber"`
	FullName           string  `json:"fullName"`
	FirstName          *string `json:"firstName"`
	LastName           *string `json:"lastName"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	AddressStreet      *string `json:"addressStreet"`
	AddressCity        *string `json:"addressCity"`
	AddressPostalCode  *string `json:"addressPostalCode"`
	AddressHouseNumber *string `json:"addressHouseNumber"`
	AddressApartment   *string `json:"addressApartment"`
	BirthDate          *string `json:"birthDate"`
	Gender             *string `json:"gender"`
	MaritalStatus      *string `json:"maritalStatus"`
	BirthCountry       *string `json:"birthCountry"`
	EmployerName       *string `json:"employerName"`
	EmployerHP         *string `json:"employerHp"`
	EmployerAddress    *string `json:"employerAddress"`
	EmployerPhone      *string `json:"employerPhone"`
	IsActive           bool    `json:"isActive"`
}

// ToClientResponse converts a domain Client to ClientResponse
func ToClientResponse(c *client.Client) ClientResponse {
	var birthDate *string
	if !c.BirthDate.IsZero() {
		birthDate = client.StringPtr(c.BirthDate.Format(client.DateLayout))
	}
	return ClientResponse{
		ID:                 c.ID,
		IDNumber:           client.Deref(c.IDNumber),
		FullName:           c.FullName,
		FirstName:          c.FirstName,
		LastName:           c.LastName,
		Email:              c.Email,
		Phone:              c.Phone,
		AddressStreet:      c.AddressStreet,
		AddressCity:        c.AddressCity,
		AddressPostalCode:  c.AddressPostalCode,
		AddressHouseNumber: c.AddressHouseNumber,
		AddressApartment:   c.AddressApartment,
		BirthDate:          birthDate,
		Gender:             c.Gender,
		MaritalStatus:      c.MaritalStatus,
		BirthCountry:       c.BirthCountry,
		EmployerName:       c.EmployerName,
		EmployerHP:         c.EmployerHP,
		EmployerAddress:    c.EmployerAddress,
		EmployerPhone:      c.EmployerPhone,
		IsActive:           c.IsActive,
	}
}

// BeneficiaryDTO is one beneficiary slot, used for both reads and replacement
type BeneficiaryDTO struct {
	Index      int      `json:"index" binding:"min=1,max=4"`
	FirstName  *string  `json:"firstName"`
	LastName   *string  `json:"lastName"`
	IDNumber   *string  `json:"idNumber"`
	BirthDate  *string  `json:"birthDate"`
	Address    *string  `json:"address"`
	Relation   *string  `json:"relation"`
	Percentage *float64 `json:"percentage" binding:"omitempty,min=0,max=100"`
}

// ReplaceBeneficiariesRequest replaces a client's whole beneficiary set
type ReplaceBeneficiariesRequest struct {
	Beneficiaries []BeneficiaryDTO `json:"beneficiaries" binding:"max=4,dive"`
}

func toBeneficiaryDTO(b client.ClientBeneficiary) BeneficiaryDTO {
	return BeneficiaryDTO{
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

// =============================================================================
// Snapshot DTOs
// =============================================================================

// CreateSnapshotRequest represents a request to add a balance snapshot
type CreateSnapshotRequest struct {
	FundCode     string          `json:"fundCode" binding:"required"`
	FundType     *string         `json:"fundType"`
	FundName     *string         `json:"fundName"`
	FundNumber   *string         `json:"fundNumber"`
	Source       *string         `json:"source"`
	Amount       decimal.Decimal `json:"amount"`
	SnapshotDate string          `json:"snapshotDate" binding:"required,isodate"`
	IsActive     *bool           `json:"isActive"`
}

// SnapshotResponse represents a snapshot in API responses
type SnapshotResponse struct {
	ID           uint    `json:"id"`
	ClientID     uint    `json:"clientId"`
	FundCode     string  `json:"fundCode"`
	FundType     *string `json:"fundType"`
	FundName     *string `json:"fundName"`
	FundNumber   *string `json:"fundNumber"`
	Source       *string `json:"source"`
	Amount       float64 `json:"amount"`
	SnapshotDate string  `json:"snapshotDate"`
	IsActive     bool    `json:"isActive"`
}

// ToSnapshotResponse converts a domain Snapshot to SnapshotResponse
func ToSnapshotResponse(s *crm.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:           s.ID,
		ClientID:     s.ClientID,
		FundCode:     s.FundCode,
		FundType:     s.FundType,
		FundName:     s.FundName,
		FundNumber:   s.FundNumber,
		Source:       s.Source,
		Amount:       s.Amount.InexactFloat64(),
		SnapshotDate: s.SnapshotDate,
		IsActive:     s.IsActive,
	}
}

// =============================================================================
// Analytics DTOs
// =============================================================================

// BreakdownItem is one slice of a summary breakdown
type BreakdownItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// SummaryResponse is the portfolio total for one month
type SummaryResponse struct {
	Month      *string         `json:"month"`
	Total      float64         `json:"total"`
	BySource   []BreakdownItem `json:"bySource"`
	ByFundType []BreakdownItem `json:"byFundType"`
}

// MonthlyChangePoint is the month-over-month movement of the total
type MonthlyChangePoint struct {
	Month         string   `json:"month"`
	Total         float64  `json:"total"`
	Change        *float64 `json:"change"`
	PercentChange *float64 `json:"percentChange"`
}

// HistoryPoint is the total balance of one month (YYYY-MM)
type HistoryPoint struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// FundHistoryPoint is one fund's balance on one snapshot date
type FundHistoryPoint struct {
	Date   string   `json:"date"`
	Amount float64  `json:"amount"`
	Source string   `json:"source"`
	Change *float64 `json:"change"`
}

// ClientSummaryItem is one row of the clients table
type ClientSummaryItem struct {
	ClientID    uint    `json:"clientId"`
	FullName    string  `json:"fullName"`
	IDNumber    string  `json:"idNumber"`
	TotalAmount float64 `json:"totalAmount"`
	Sources     string  `json:"sources"`
	RawSources  string  `json:"rawSources"`
	FundCount   int     `json:"fundCount"`
	LastUpdate  *string `json:"lastUpdate"`
}

// =============================================================================
// Note DTOs
// =============================================================================

// CreateNoteRequest represents a request to add a note
type CreateNoteRequest struct {
	Note       string  `json:"note" binding:"required"`
	ReminderAt *string `json:"reminderAt"`
}

// NoteResponse represents a note in API responses
type NoteResponse struct {
	ID          uint    `json:"id"`
	ClientID    uint    `json:"clientId"`
	Note        string  `json:"note"`
	CreatedAt   string  `json:"createdAt"`
	ReminderAt  *string `json:"reminderAt"`
	DismissedAt *string `json:"dismissedAt"`
}

// ReminderResponse is a due note together with its client
type ReminderResponse struct {
	NoteResponse
	ClientName string `json:"clientName"`
}

func toNoteResponse(n *client.ClientNote) NoteResponse {
	return NoteResponse{
		ID:          n.ID,
		ClientID:    n.ClientID,
		Note:        n.Note,
		CreatedAt:   n.CreatedAt,
		ReminderAt:  n.ReminderAt,
		DismissedAt: n.DismissedAt,
	}
}
