package importapp

import "github.com/advisory/backoffice/internal/infrastructure/tabular"

// maxReportedErrors caps the row errors returned with an import result
const maxReportedErrors = 100

// =============================================================================
// Inputs
// =============================================================================

// CRMImportInput is a provider balance report upload
type CRMImportInput struct {
	Filename string
	Data     []byte
	// SnapshotMonth is YYYY-MM or YYYY-MM-DD; the day is ignored
	SnapshotMonth string
	// CompanyCode is optional; when empty it is inferred from the filename
	CompanyCode string
}

// Upload is an uploaded file
type Upload struct {
	Filename string
	Data     []byte
}

// =============================================================================
// Results
// =============================================================================

// RowIssues lists rows that were skipped while importing
type RowIssues struct {
	Errors      []tabular.RowError `json:"errors,omitempty"`
	TotalErrors int                `json:"totalErrors,omitempty"`
	IsTruncated bool               `json:"isTruncated,omitempty"`
}

func rowIssues(ec *tabular.ErrorCollection) RowIssues {
	if !ec.HasErrors() {
		return RowIssues{}
	}
	return RowIssues{
		Errors:      ec.Errors(),
		TotalErrors: ec.TotalCount(),
		IsTruncated: ec.Truncated(),
	}
}

// CRMImportResult reports a provider balance import
type CRMImportResult struct {
	CompanyCode       string `json:"companyCode"`
	CreatedClients    int    `json:"createdClients"`
	ReusedClients     int    `json:"reusedClients"`
	CreatedSnapshots  int    `json:"createdSnapshots"`
	RowsProcessed     int    `json:"rowsProcessed"`
	DuplicatesSkipped int    `json:"duplicatesSkipped"`
	RowIssues
}

// GemelnetImportResult reports a market fund table import
type GemelnetImportResult struct {
	CreatedSavingProducts int `json:"createdSavingProducts"`
	UpdatedSavingProducts int `json:"updatedSavingProducts"`
	RowsProcessed         int `json:"rowsProcessed"`
	DuplicatesSkipped     int `json:"duplicatesSkipped"`
}

// LegacyClientsResult reports a Clients.xlsx back-fill. Created is always
// zero: the back-fill never adds clients.
type LegacyClientsResult struct {
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Reused        int `json:"reused"`
	RowsProcessed int `json:"rowsProcessed"`
}
