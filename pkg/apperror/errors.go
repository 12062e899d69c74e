package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
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

// ---- Accounts (ACC) ----

func ErrAccountNotFound(err error) *AppError {
	return Wrap("ACC_001", "Account not found", http.StatusNotFound, err)
}

func ErrInvalidAccount(err error) *AppError {
	return Wrap("ACC_002", "Invalid account", http.StatusBadRequest, err)
}

// ---- Transfers (TRF) ----

func ErrInsufficientFunds(err error) *AppError {
	return Wrap("TRF_001", "Not enough money to make transfer", http.StatusPaymentRequired, err)
}

func ErrInvalidAmount(err error) *AppError {
	return Wrap("TRF_002", "Invalid amount", http.StatusBadRequest, err)
}

func ErrDuplicateTransfer(err error) *AppError {
	return Wrap("TRF_003", "Transfer already processed", http.StatusConflict, err)
}

func ErrSameAccountTransfer(err error) *AppError {
	return Wrap("TRF_004", "Cannot make transfer between same account", http.StatusBadRequest, err)
}

func ErrCurrencyMismatch(err error) *AppError {
	return Wrap("TRF_005", "Money exchange not supported", http.StatusBadRequest, err)
}

func ErrInvalidTransfer(err error) *AppError {
	return Wrap("TRF_006", "Invalid transfer", http.StatusBadRequest, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrMissingToken() *AppError {
	return New("AUTH_002", "Missing bearer token", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrRetryExhausted(err error) *AppError {
	return Wrap("SYS_002", "Account is busy, retry later", http.StatusServiceUnavailable, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_003", "Internal database error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}

func ErrBodyTooLarge() *AppError {
	return New("REQ_002", "Request body too large", http.StatusRequestEntityTooLarge)
}
