package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	err := New("LED_001", "amount must be greater than zero", http.StatusBadRequest)
	assert.Equal(t, "[LED_001] amount must be greater than zero", err.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, fmt.Errorf("disk full"))
	assert.Equal(t, "[SYS_001] Internal server error: disk full", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := InternalError(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestTaxonomyCodesAndStatuses(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrInvalidInput("bad"), "LED_001", http.StatusBadRequest},
		{ErrInsufficientFunds(), "LED_002", http.StatusBadRequest},
		{ErrLockTimeout(nil), "LED_003", http.StatusServiceUnavailable},
		{ErrNotFound("wallet"), "LED_004", http.StatusNotFound},
		{ErrLedgerConflict(nil), "LED_005", http.StatusInternalServerError},
		{ErrDuplicateRequest(), "LED_006", http.StatusConflict},
		{ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
		{InternalError(fmt.Errorf("x")), "SYS_001", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.err.Code)
		assert.Equal(t, tt.status, tt.err.HTTPStatus)
	}
}

func TestErrInsufficientFunds_Message(t *testing.T) {
	assert.Equal(t, "Insufficient funds", ErrInsufficientFunds().Message)
}
