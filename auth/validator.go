package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	courerrors "courier/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `validate:"required,min=3,max=32"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=12,max=72"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		var fields validator.ValidationErrors
		if !errors.As(err, &fields) {
			return err
		}
		// Each failing field gets its own code: password rules map to
		// INVALID_PASSWORD, everything else to the generic validation code.
		field := fields[0]
		if field.Field() == "Password" {
			return fmt.Errorf("%w: %s", courerrors.ErrInvalidPassword, field.Tag())
		}
		return fmt.Errorf("%w: invalid %s", courerrors.ErrValidation, strings.ToLower(field.Field()))
	}
	if !isPasswordComplex(req.Password) {
		return courerrors.ErrInvalidPassword
	}
	return nil
}

// isPasswordComplex requires at least one upper, lower, digit and symbol.
func isPasswordComplex(s string) bool {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
