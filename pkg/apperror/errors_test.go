package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("WDR_001", "Insufficient funds", http.StatusBadRequest),
			expected: "[WDR_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_002", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_002] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("VAL_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestInputAndAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Validation", Validation("missing field"), "VAL_001", 400},
		{"Forbidden", ErrForbidden("you don't own this campaign"), "AUTH_002", 403},
		{"InvalidToken", ErrInvalidToken(), "AUTH_001", 401},
		{"NotFound", ErrNotFound("Campaign"), "RES_001", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestWithdrawalErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(300, 301), "WDR_001", 400},
		{"InvalidStateTransition", ErrInvalidStateTransition("completed", "pending"), "WDR_002", 409},
		{"InvalidAmount", ErrInvalidAmount(), "WDR_003", 400},
		{"MissingDocument", ErrMissingDocument("bankProof"), "WDR_004", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestInsufficientFundsDetails(t *testing.T) {
	err := ErrInsufficientFunds(300, 301)
	assert.Equal(t, int64(300), err.Details["available"])
	assert.Equal(t, int64(301), err.Details["requested"])
}

func TestInvalidStateTransitionMessage(t *testing.T) {
	err := ErrInvalidStateTransition("rejected", "approved")
	assert.Contains(t, err.Message, "rejected")
	assert.Contains(t, err.Message, "approved")
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_002", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	decErr := ErrDecryptionFailure(inner)
	assert.Equal(t, "SYS_003", decErr.Code)
	assert.Equal(t, 500, decErr.HTTPStatus)
	assert.Equal(t, "Could not retrieve sensitive data", decErr.Message)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("WithdrawalRequest")
	assert.Contains(t, err.Message, "WithdrawalRequest")
	assert.Equal(t, "RES_001", err.Code)
}
