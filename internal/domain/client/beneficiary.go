package client

import "github.com/advisory/backoffice/internal/domain/shared"

// MaxBeneficiaries is the number of beneficiary slots on the enrollment forms
const MaxBeneficiaries = 4

// ClientBeneficiary is one of up to four beneficiaries listed on a client's forms.
type ClientBeneficiary struct {
	ID         uint
	ClientID   uint
	Index      int
	FirstName  *string
	LastName   *string
	IDNumber   *string
	BirthDate  *string
	Address    *string
	Relation   *string
	Percentage *float64
}

// ValidateBeneficiaries checks a full replacement set for one client
func ValidateBeneficiaries(items []ClientBeneficiary) error {
	if len(items) > MaxBeneficiaries {
		return shared.ErrInvalidBeneficiaries
	}
	seen := make(map[int]bool, len(items))
	total := 0.0
	for _, b := range items {
		if b.Index < 1 || b.Index > MaxBeneficiaries || seen[b.Index] {
			return shared.ErrInvalidBeneficiaries
		}
		seen[b.Index] = true
		if b.Percentage != nil {
			if *b.Percentage < 0 || *b.Percentage > 100 {
				return shared.ErrInvalidBeneficiaries
			}
			total += *b.Percentage
		}
	}
	if total > 100 {
		return shared.ErrInvalidBeneficiaries
	}
	return nil
}
