// Package validation holds the validator shared by the HTTP layer and the services.
package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"hotel_pms/internal/domain"
)

var v = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(domain.DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// Struct validates s against its `validate` tags.
func Struct(s any) error { return v.Struct(s) }

// Email reports whether s is a bare address (local@domain) with no display name or brackets.
func Email(s string) bool { return v.Var(s, "required,email") == nil }
