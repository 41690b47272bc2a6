package utils

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator with the customer tags
// registered: email_basic, postal_code, city, marital_status, notblank.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		mustRegister(v, "email_basic", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		mustRegister(v, "postal_code", func(fl validator.FieldLevel) bool {
			return IsValidPostalCode(fl.Field().String())
		})
		mustRegister(v, "city", func(fl validator.FieldLevel) bool {
			return IsValidCity(fl.Field().String())
		})
		mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		mustRegister(v, "marital_status", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "Ledig", "Verheiratet", "Geschieden":
				return true
			}
			return false
		})

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// FieldErrors flattens validator errors into field name -> failed tag.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, fieldErr := range validationErrors {
		out[fieldErr.Field()] = fieldErr.Tag()
	}
	return out
}
