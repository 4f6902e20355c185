package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeAccountLocked, http.StatusTooManyRequests},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeGone, http.StatusGone},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"CLIENT_NOT_FOUND", http.StatusNotFound},
		{"PRODUCT_DOES_NOT_BELONG_TO_CLIENT", http.StatusForbidden},
		{"SIGNATURE_REQUEST_ALREADY_COMPLETED", http.StatusGone},
		{"NO_PDFS_FOR_CLIENT_PACKET", http.StatusBadRequest},
		{"NO_PAGES_IN_CLIENT_PACKET", http.StatusInternalServerError},
		{"MISSING_SNAPSHOT_MONTH", http.StatusBadRequest},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"GONE", ErrCodeGone},
		{"INVALID_CREDENTIALS", ErrCodeInvalidCredentials},
		{"TOKEN_EXPIRED", ErrCodeTokenExpired},
		{"INTERNAL_ERROR", ErrCodeInternal},
		// Standardized and domain codes pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{"CLIENT_NOT_FOUND", "CLIENT_NOT_FOUND"},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

// Every sentinel the domain can raise must resolve to a non-500 status,
// except the ones that genuinely describe server failures.
func TestDomainErrorsAreMapped(t *testing.T) {
	serverErrors := map[string]bool{
		"NO_PAGES_IN_CLIENT_PACKET":  true,
		"DOCUMENT_GENERATION_FAILED": true,
	}
	sentinels := []*shared.DomainError{
		shared.ErrNotFound, shared.ErrAlreadyExists, shared.ErrInvalidInput,
		shared.ErrUnauthorized, shared.ErrForbidden, shared.ErrInvalidState, shared.ErrGone,
		shared.ErrClientNotFound, shared.ErrNewProductNotFound, shared.ErrExistingProductNotFound,
		shared.ErrFormInstanceNotFound, shared.ErrNoteNotFound, shared.ErrProductNotOwned,
		shared.ErrUnsupportedFundType, shared.ErrNoTemplateFound, shared.ErrPacketNotFound,
		shared.ErrNoPDFsForPacket, shared.ErrNoPagesInPacket, shared.ErrNoPagesLeftAfterTrim,
		shared.ErrSignatureRequestNotFound, shared.ErrSignatureRequestCompleted,
		shared.ErrMissingSnapshotMonth, shared.ErrEmptyUpload, shared.ErrDocumentNotFound,
		shared.ErrDuplicateIDNumber, shared.ErrInvalidBeneficiaries, shared.ErrUnsupportedUploadType,
		shared.ErrMissingSignature, shared.ErrNoPagesSpecified, shared.ErrDocumentGenerationFailed,
		shared.ErrLegacySourceUnavailable, shared.ErrInvalidCredentials, shared.ErrAccountLocked,
		shared.ErrTokenExpired, shared.ErrTokenInvalid, shared.ErrUnsupportedSpreadsheetInput,
	}

	for _, e := range sentinels {
		t.Run(e.Code, func(t *testing.T) {
			code := NormalizeErrorCode(e.Code)
			_, ok := ErrorCodeHTTPStatus[code]
			require.True(t, ok, "code %s has no HTTP status", code)
			if !serverErrors[e.Code] {
				assert.Less(t, GetHTTPStatus(code), http.StatusInternalServerError)
			}
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Client not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Client not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "snapshot_month", Message: "must be YYYY-MM"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponseWithRequestID("CLIENT_NOT_FOUND", "לקוח לא נמצא", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"CLIENT_NOT_FOUND","message":"לקוח לא נמצא","request_id":"req-1"}}`, string(data))

	data, err = json.Marshal(NewSuccessResponse(map[string]int{"created": 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"created":2}}`, string(data))
}
