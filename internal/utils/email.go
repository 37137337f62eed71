package utils

import (
	"github.com/go-playground/validator/v10"
)

// EmailValidator checks email syntax with validator's "email" rule.
type EmailValidator struct {
	validate *validator.Validate
}

func NewEmailValidator() *EmailValidator {
	return &EmailValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *EmailValidator) IsCorrect(email string) bool {
	return v.validate.Var(email, "required,email") == nil
}
