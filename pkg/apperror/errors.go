package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps the ledger error taxonomy to HTTP
// responses.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// ---- Ledger taxonomy (LED) ----

// ErrInvalidInput reports a malformed write or query input: non-positive
// user_id, non-positive amount, over-precise amount, short currency code.
func ErrInvalidInput(message string) *AppError {
	return New("LED_001", message, http.StatusBadRequest)
}

// ErrInsufficientFunds reports a withdrawal that would drive the balance
// negative. No state change has occurred.
func ErrInsufficientFunds() *AppError {
	return New("LED_002", "Insufficient funds", http.StatusBadRequest)
}

// ErrLockTimeout reports that wallet exclusivity was not obtained within the
// configured bound. No state change has occurred.
func ErrLockTimeout(err error) *AppError {
	return Wrap("LED_003", "Wallet busy, try again", http.StatusServiceUnavailable, err)
}

// ErrNotFound reports a missing entity on paths where absence is an error.
// Balance and history queries never use it; empty is a valid result there.
func ErrNotFound(entity string) *AppError {
	return New("LED_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrLedgerConflict reports a per-wallet sequence collision. Unreachable
// under correct locking; the request aborts and nothing is recorded.
func ErrLedgerConflict(err error) *AppError {
	return Wrap("LED_005", "Ledger sequence conflict", http.StatusInternalServerError, err)
}

// ErrDuplicateRequest reports an idempotent replay arriving while the
// original request is still in flight.
func ErrDuplicateRequest() *AppError {
	return New("LED_006", "Duplicate request currently processing", http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps a storage or infrastructure failure as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
