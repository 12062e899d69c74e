package service

import (
	"errors"

	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/pkg/apperror"
)

// translate maps domain failures to client-facing errors. The domain error
// stays in the chain so callers can still match it with errors.Is.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return apperror.ErrAccountNotFound(err)
	case errors.Is(err, domain.ErrInvalidAccountID):
		return apperror.ErrInvalidAccount(err)
	case errors.Is(err, domain.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds(err)
	case errors.Is(err, domain.ErrDuplicateTransfer):
		return apperror.ErrDuplicateTransfer(err)
	case errors.Is(err, domain.ErrSameAccountTransfer):
		return apperror.ErrSameAccountTransfer(err)
	case errors.Is(err, domain.ErrCurrencyMismatch), errors.Is(err, domain.ErrInvalidCurrency):
		return apperror.ErrCurrencyMismatch(err)
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrNegativeAmount):
		return apperror.ErrInvalidAmount(err)
	case errors.Is(err, domain.ErrInvalidTransferID):
		return apperror.ErrInvalidTransfer(err)
	case errors.Is(err, domain.ErrRetryExhausted), errors.Is(err, domain.ErrConflict):
		return apperror.ErrRetryExhausted(err)
	default:
		return apperror.InternalError(err)
	}
}
