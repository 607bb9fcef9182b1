package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Input & Authorization ----

// Validation returns a 400 error for malformed or missing input.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ErrForbidden is returned on ownership or role mismatch.
func ErrForbidden(message string) *AppError {
	return New("AUTH_002", message, http.StatusForbidden)
}

// ErrInvalidToken is returned for missing or invalid credentials.
func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ErrNotFound is returned when a referenced entity does not exist.
func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Withdrawal Business Logic (WDR) ----

// ErrInsufficientFunds carries the available and requested amounts so the
// client can show the shortfall.
func ErrInsufficientFunds(available, requested int64) *AppError {
	e := New("WDR_001", "Insufficient funds", http.StatusBadRequest)
	e.Details = map[string]any{
		"available": available,
		"requested": requested,
	}
	return e
}

// ErrInvalidStateTransition is returned for illegal withdrawal status changes.
func ErrInvalidStateTransition(from, to string) *AppError {
	return New("WDR_002", fmt.Sprintf("Cannot transition withdrawal from %s to %s", from, to), http.StatusConflict)
}

// ErrInvalidAmount is returned for non-positive amounts.
func ErrInvalidAmount() *AppError {
	return New("WDR_003", "Amount must be greater than zero", http.StatusBadRequest)
}

// ErrMissingDocument names the document slot that failed completeness checks.
func ErrMissingDocument(slot string) *AppError {
	return New("WDR_004", fmt.Sprintf("Required document missing: %s", slot), http.StatusBadRequest)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrDatabaseError wraps a store error without leaking it to the client.
func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_002", "Internal database error", http.StatusInternalServerError, err)
}

// ErrDecryptionFailure hides cipher details behind a generic message.
// The wrapped error is logged server-side only.
func ErrDecryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Could not retrieve sensitive data", http.StatusInternalServerError, err)
}
