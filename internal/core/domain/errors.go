package domain

import (
	"errors"
	"fmt"
)

// Domain errors. Callers match them with errors.Is.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("not enough money to make transfer")
	ErrDuplicateTransfer   = errors.New("transfer already processed")
	ErrSameAccountTransfer = errors.New("cannot make transfer between same account")
	ErrCurrencyMismatch    = errors.New("money exchange not supported")
	ErrNegativeAmount      = errors.New("only non-negative money amount supported")
	ErrInvalidAmount       = errors.New("transfer amount must be positive")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrInvalidTransferID   = errors.New("invalid transfer id")
	ErrInvalidAccountID    = errors.New("invalid account id")

	// ErrConflict reports a lost optimistic-concurrency race on save.
	ErrConflict = errors.New("account was modified concurrently")
	// ErrRetryExhausted reports that every save attempt lost its race.
	ErrRetryExhausted = errors.New("retries exhausted on concurrent modification")
)

// InsufficientFundsError carries the amounts behind a rejected block.
type InsufficientFundsError struct {
	AccountID AccountID
	Required  Money
	Available Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("not enough money to make transfer: account=%s required=%s available=%s",
		e.AccountID, e.Required, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
