package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION> for generic codes. Codes raised by the
// back-office domain (CLIENT_NOT_FOUND, EMPTY_UPLOAD, ...) pass through as-is.

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid or revoked
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeInvalidCredentials is used when login fails
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	// ErrCodeAccountLocked is used after too many failed logins
	ErrCodeAccountLocked = "ERR_ACCOUNT_LOCKED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeGone is used when a resource was consumed and is no longer available
	ErrCodeGone = "ERR_GONE"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodePayloadTooLarge is used when the body exceeds the configured limit
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountLocked:      http.StatusTooManyRequests,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeGone:          http.StatusGone,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Back-office domain codes
	"CLIENT_NOT_FOUND":                    http.StatusNotFound,
	"NEW_PRODUCT_NOT_FOUND":               http.StatusNotFound,
	"EXISTING_PRODUCT_NOT_FOUND":          http.StatusNotFound,
	"FORM_INSTANCE_NOT_FOUND":             http.StatusNotFound,
	"NOTE_NOT_FOUND":                      http.StatusNotFound,
	"CLIENT_PACKET_PDF_NOT_FOUND":         http.StatusNotFound,
	"SIGNATURE_REQUEST_NOT_FOUND":         http.StatusNotFound,
	"DOCUMENT_NOT_FOUND":                  http.StatusNotFound,
	"LEGACY_SOURCE_UNAVAILABLE":           http.StatusNotFound,
	"PRODUCT_DOES_NOT_BELONG_TO_CLIENT":   http.StatusForbidden,
	"SIGNATURE_REQUEST_ALREADY_COMPLETED": http.StatusGone,
	"DUPLICATE_ID_NUMBER":                 http.StatusConflict,
	"UNSUPPORTED_FUND_TYPE":               http.StatusBadRequest,
	"NO_TEMPLATE_FOUND":                   http.StatusBadRequest,
	"NO_PDFS_FOR_CLIENT_PACKET":           http.StatusBadRequest,
	"NO_PAGES_LEFT_AFTER_TRIM":            http.StatusBadRequest,
	"NO_PAGES_SPECIFIED":                  http.StatusBadRequest,
	"MISSING_SNAPSHOT_MONTH":              http.StatusBadRequest,
	"EMPTY_UPLOAD":                        http.StatusBadRequest,
	"INVALID_BENEFICIARIES":               http.StatusBadRequest,
	"UNSUPPORTED_UPLOAD_TYPE":             http.StatusBadRequest,
	"UNSUPPORTED_SPREADSHEET":             http.StatusBadRequest,
	"MISSING_SIGNATURE":                   http.StatusBadRequest,
	"NO_PAGES_IN_CLIENT_PACKET":           http.StatusInternalServerError,
	"DOCUMENT_GENERATION_FAILED":          http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the generic domain error codes to the
// standardized ERR_* codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"ALREADY_EXISTS":      ErrCodeAlreadyExists,
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"INVALID_STATE":       ErrCodeInvalidState,
	"UNAUTHORIZED":        ErrCodeUnauthorized,
	"FORBIDDEN":           ErrCodeForbidden,
	"GONE":                ErrCodeGone,
	"VALIDATION_ERROR":    ErrCodeValidation,
	"BAD_REQUEST":         ErrCodeBadRequest,
	"INTERNAL_ERROR":      ErrCodeInternal,
	"INVALID_CREDENTIALS": ErrCodeInvalidCredentials,
	"ACCOUNT_LOCKED":      ErrCodeAccountLocked,
	"TOKEN_EXPIRED":       ErrCodeTokenExpired,
	"TOKEN_INVALID":       ErrCodeTokenInvalid,
}

// NormalizeErrorCode converts a generic domain code to the standardized format
// If the code is already in the new format or domain-specific, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
