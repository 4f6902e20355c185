package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies compare equal to the sentinels
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized  = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden     = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrGone          = NewDomainError("GONE", "Resource is no longer available")
)

// Back-office specific errors
var (
	ErrClientNotFound              = NewDomainError("CLIENT_NOT_FOUND", "Client not found")
	ErrNewProductNotFound          = NewDomainError("NEW_PRODUCT_NOT_FOUND", "New product not found")
	ErrExistingProductNotFound     = NewDomainError("EXISTING_PRODUCT_NOT_FOUND", "Existing product not found")
	ErrFormInstanceNotFound        = NewDomainError("FORM_INSTANCE_NOT_FOUND", "Form instance not found")
	ErrNoteNotFound                = NewDomainError("NOTE_NOT_FOUND", "Note not found")
	ErrProductNotOwned             = NewDomainError("PRODUCT_DOES_NOT_BELONG_TO_CLIENT", "Product does not belong to this client")
	ErrUnsupportedFundType         = NewDomainError("UNSUPPORTED_FUND_TYPE", "Automatic form generation is supported only for גמל, גמל להשקעה, השתלמות")
	ErrNoTemplateFound             = NewDomainError("NO_TEMPLATE_FOUND", "No matching PDF template found for this fund type and company")
	ErrPacketNotFound              = NewDomainError("CLIENT_PACKET_PDF_NOT_FOUND", "Client packet PDF not found")
	ErrNoPDFsForPacket             = NewDomainError("NO_PDFS_FOR_CLIENT_PACKET", "No PDFs available to build client packet")
	ErrNoPagesInPacket             = NewDomainError("NO_PAGES_IN_CLIENT_PACKET", "Client packet PDF contains no pages")
	ErrNoPagesLeftAfterTrim        = NewDomainError("NO_PAGES_LEFT_AFTER_TRIM", "No pages left in packet after removal")
	ErrSignatureRequestNotFound    = NewDomainError("SIGNATURE_REQUEST_NOT_FOUND", "Signing link not found")
	ErrSignatureRequestCompleted   = NewDomainError("SIGNATURE_REQUEST_ALREADY_COMPLETED", "Signing link already used")
	ErrMissingSnapshotMonth        = NewDomainError("MISSING_SNAPSHOT_MONTH", "חסר תאריך סנפשוט")
	ErrEmptyUpload                 = NewDomainError("EMPTY_UPLOAD", "Uploaded file is empty")
	ErrDocumentNotFound            = NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
	ErrDuplicateIDNumber           = NewDomainError("DUPLICATE_ID_NUMBER", "A client with this ID number already exists")
	ErrInvalidBeneficiaries        = NewDomainError("INVALID_BENEFICIARIES", "Beneficiary percentages must be between 0 and 100 and sum to at most 100")
	ErrUnsupportedUploadType       = NewDomainError("UNSUPPORTED_UPLOAD_TYPE", "Uploaded file must be a PDF")
	ErrMissingSignature            = NewDomainError("MISSING_SIGNATURE", "Missing signature data")
	ErrNoPagesSpecified            = NewDomainError("NO_PAGES_SPECIFIED", "No pages specified for removal")
	ErrDocumentGenerationFailed    = NewDomainError("DOCUMENT_GENERATION_FAILED", "Document generation failed")
	ErrLegacySourceUnavailable     = NewDomainError("LEGACY_SOURCE_UNAVAILABLE", "Legacy database is not available")
	ErrInvalidCredentials          = NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountLocked               = NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Try again later")
	ErrTokenExpired                = NewDomainError("TOKEN_EXPIRED", "Access token has expired")
	ErrTokenInvalid                = NewDomainError("TOKEN_INVALID", "Invalid access token")
	ErrUnsupportedSpreadsheetInput = NewDomainError("UNSUPPORTED_SPREADSHEET", "Uploaded file must be .xlsx or .csv")
)
