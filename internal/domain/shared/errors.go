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

// Is reports whether target carries the same code, so that errors created
// with NewDomainError match the sentinels below through errors.Is.
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

// Error codes
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidDateRange  = "INVALID_DATE_RANGE"
	CodeInvalidState      = "INVALID_STATE"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeDuplicateMovement = "DUPLICATE_MOVEMENT"
	CodeCurrencyMismatch  = "CURRENCY_MISMATCH"
	CodeRateMissing       = "EXCHANGE_RATE_MISSING"
)

// Common domain errors
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidDateRange  = NewDomainError(CodeInvalidDateRange, "dateFrom must not be after dateTo")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientFunds = NewDomainError(CodeInsufficientFunds, "Insufficient funds in account")
	ErrDuplicateMovement = NewDomainError(CodeDuplicateMovement, "Movement was already applied")
	ErrCurrencyMismatch  = NewDomainError(CodeCurrencyMismatch, "Currencies do not match")
	ErrRateMissing       = NewDomainError(CodeRateMissing, "Exchange rate is required")
)

// IsValidation reports whether err is a caller-contract violation
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrRateMissing) || errors.Is(err, ErrCurrencyMismatch)
}
