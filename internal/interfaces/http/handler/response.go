package handler

import "github.com/advisory/backoffice/internal/interfaces/http/dto"

// The types below only describe the dto.Response envelope to swag; handlers
// always write dto.Response itself.

// APIResponse is the envelope around a typed payload
// @Description Envelope with the endpoint's payload under data
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse is the envelope of every failed call
// @Description Envelope carrying a machine-readable code, a message and the request id
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
