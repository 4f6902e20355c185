package legacy

// =============================================================================
// Migration results
// =============================================================================

// MiniCRMResult reports a mini CRM migration
type MiniCRMResult struct {
	CreatedClients   int `json:"createdClients"`
	ReusedClients    int `json:"reusedClients"`
	CreatedSnapshots int `json:"createdSnapshots"`
	SkippedSnapshots int `json:"skippedSnapshots"`
}

// JustificationResult reports a full justification migration
type JustificationResult struct {
	CreatedClients          int `json:"createdClients"`
	ReusedClients           int `json:"reusedClients"`
	CreatedSavingProducts   int `json:"createdSavingProducts"`
	ReusedSavingProducts    int `json:"reusedSavingProducts"`
	CreatedExistingProducts int `json:"createdExistingProducts"`
	ReusedExistingProducts  int `json:"reusedExistingProducts"`
	CreatedNewProducts      int `json:"createdNewProducts"`
	ReusedNewProducts       int `json:"reusedNewProducts"`
	CreatedFormInstances    int `json:"createdFormInstances"`
	ReusedFormInstances     int `json:"reusedFormInstances"`
}

// ClientsResult reports a clients-only back-fill
type ClientsResult struct {
	CreatedClients int `json:"createdClients"`
	UpdatedClients int `json:"updatedClients"`
	ReusedClients  int `json:"reusedClients"`
}

// =============================================================================
// Clear results
// =============================================================================

// ClearCRMResult reports a CRM data wipe
type ClearCRMResult struct {
	DeletedSnapshots   int64 `json:"deletedSnapshots"`
	DeletedClientNotes int64 `json:"deletedClientNotes"`
}

// ClearJustificationResult reports a justification data wipe
type ClearJustificationResult struct {
	DeletedFormInstances    int64 `json:"deletedFormInstances"`
	DeletedNewProducts      int64 `json:"deletedNewProducts"`
	DeletedExistingProducts int64 `json:"deletedExistingProducts"`
	DeletedSavingProducts   int64 `json:"deletedSavingProducts"`
}
