package client

import (
	"strings"
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
)

// PlaceholderBirthDate is stored when the real birth date is unknown
var PlaceholderBirthDate = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	maxIDNumberRawLength = 20
	maxIDNumberLength    = 9
)

// Client is the unified client record shared by the CRM and the justification tool.
type Client struct {
	ID          uint
	IDNumberRaw *string
	IDNumber    *string
	FullName    string
	FirstName   *string
	LastName    *string

	BirthDate     time.Time
	Gender        *string
	MaritalStatus *string
	BirthCountry  *string

	SelfEmployed           *bool
	CurrentEmployerExists  *bool
	PlannedTerminationDate *time.Time
	EmployerName           *string
	EmployerHP             *string
	EmployerAddress        *string
	EmployerPhone          *string

	Email              *string
	Phone              *string
	AddressStreet      *string
	AddressCity        *string
	AddressHouseNumber *string
	AddressApartment   *string
	AddressPostalCode  *string

	RetirementTargetDate *time.Time
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
	PensionStartDate       *time.Time
	SpouseIncome           *float64
	ImmigrationDate        *time.Time
	MilitaryDischargeDate  *time.Time

	IsActive  bool
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Prepare normalizes the record before it is written: NaN-like text becomes
// null, missing derived fields are filled in, and the birth date defaults to
// the placeholder.
func (c *Client) Prepare() error {
	for _, field := range c.textFields() {
		*field = CleanText(*field)
	}

	if c.IDNumber == nil && c.IDNumberRaw != nil {
		normalized := NormalizeIDNumber(*c.IDNumberRaw)
		if normalized == "" {
			normalized = strings.TrimSpace(*c.IDNumberRaw)
		}
		c.IDNumber = StringPtr(normalized)
	}
	if c.IDNumber == nil {
		return shared.NewDomainError("INVALID_INPUT", "ID number is required")
	}
	if c.IDNumberRaw == nil {
		raw := *c.IDNumber
		c.IDNumberRaw = &raw
	}
	if c.IDNumberRaw != nil && len(*c.IDNumberRaw) > maxIDNumberRawLength {
		return shared.NewDomainError("INVALID_INPUT", "ID number is too long")
	}
	if c.IDNumber != nil && len(*c.IDNumber) > maxIDNumberLength {
		return shared.NewDomainError("INVALID_INPUT", "normalized ID number must be at most 9 digits")
	}

	if strings.TrimSpace(c.FullName) == "" || IsNaNLike(c.FullName) {
		c.FullName = JoinName(c.FirstName, c.LastName)
	}
	if c.BirthDate.IsZero() {
		c.BirthDate = PlaceholderBirthDate
	}
	return nil
}

// textFields lists every nullable free-text column subject to NaN cleanup
func (c *Client) textFields() []**string {
	return []**string{
		&c.IDNumberRaw, &c.IDNumber, &c.FirstName, &c.LastName,
		&c.Gender, &c.MaritalStatus, &c.BirthCountry,
		&c.EmployerName, &c.EmployerHP, &c.EmployerAddress, &c.EmployerPhone,
		&c.Email, &c.Phone, &c.AddressStreet, &c.AddressCity,
		&c.AddressHouseNumber, &c.AddressApartment, &c.AddressPostalCode,
		&c.Notes,
	}
}

// Age returns completed years at ref
func (c *Client) Age(ref time.Time) int {
	if c.BirthDate.IsZero() {
		return 0
	}
	years := ref.Year() - c.BirthDate.Year()
	if ref.Month() < c.BirthDate.Month() ||
		(ref.Month() == c.BirthDate.Month() && ref.Day() < c.BirthDate.Day()) {
		years--
	}
	return years
}

// HasPlaceholderBirthDate reports whether the birth date was never supplied
func (c *Client) HasPlaceholderBirthDate() bool {
	return c.BirthDate.IsZero() || sameDay(c.BirthDate, PlaceholderBirthDate)
}

// DisplayName is the best human-readable label for the client
func (c *Client) DisplayName() string {
	if name := JoinName(c.FirstName, c.LastName); name != "" {
		return name
	}
	if c.FullName != "" {
		return c.FullName
	}
	return Deref(c.IDNumber)
}

// NameIsPlaceholder is true when the full name is empty or merely repeats the ID
func (c *Client) NameIsPlaceholder() bool {
	return c.FullName == "" || (c.IDNumber != nil && c.FullName == *c.IDNumber)
}

// JoinName builds "first last" from optional parts
func JoinName(first, last *string) string {
	parts := make([]string, 0, 2)
	if v := strings.TrimSpace(Deref(first)); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(Deref(last)); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// IsNaNLike reports whether a spreadsheet cell carries no real value
func IsNaNLike(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "none":
		return true
	}
	return false
}

// CleanText turns NaN-like text into nil
func CleanText(v *string) *string {
	if v == nil || IsNaNLike(*v) {
		return nil
	}
	return v
}

// Deref returns the pointed-to string or ""
func Deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// StringPtr returns nil for empty strings
func StringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
