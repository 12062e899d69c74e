package handler

import (
	"errors"
	"net/http"

	"bank-transfer-saga/pkg/apperror"
)

// bindError maps a gin binding failure onto the error envelope.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrBodyTooLarge()
	}
	return apperror.Validation(err.Error())
}
