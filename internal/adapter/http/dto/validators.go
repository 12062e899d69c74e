package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Account identifiers are a bank prefix followed by a sequence; foreign
// banks may use dashes.
var accountIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-]{0,63}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidators(v)
	}
}

// RegisterValidators installs the custom tags used by the request DTOs.
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("account_id", validateAccountID)
}

func validateAccountID(fl validator.FieldLevel) bool {
	return accountIDRe.MatchString(fl.Field().String())
}
