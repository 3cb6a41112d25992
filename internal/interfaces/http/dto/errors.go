package dto

import (
	"errors"
	"net/http"

	"github.com/farmacia/backoffice/internal/domain/shared"
)

// Transport error codes. Domain codes pass through unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// caller-contract violations
	shared.CodeInvalidInput:     http.StatusBadRequest,
	shared.CodeInvalidDateRange: http.StatusBadRequest,
	shared.CodeRateMissing:      http.StatusBadRequest,
	shared.CodeCurrencyMismatch: http.StatusBadRequest,

	shared.CodeNotFound: http.StatusNotFound,

	shared.CodeInvalidState:      http.StatusConflict,
	shared.CodeDuplicateMovement: http.StatusConflict,

	shared.CodeInsufficientFunds: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError resolves the status, code and client-facing message of err.
// Domain errors keep their wrapped context; anything else is reported as
// internal without its text.
func FromError(err error) (status int, code, message string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return GetHTTPStatus(domainErr.Code), domainErr.Code, err.Error()
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"
	}
	return http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred"
}
