package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/clinic-keeper/internal/errs"
)

// Validator checks struct-level rules.
type Validator interface {
	Struct(v any) error
}

// Tags registered on top of the validator/v10 builtins.
const (
	TagRUT   = "rut"
	TagPhone = "clphone"
	TagEmail = "email"
)

type structValidator struct {
	v *validator.Validate
}

// New returns a Validator whose failures wrap errs.ErrValidation.
func New() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return jsonName(f.Tag.Get("json"), f.Name) })
	mustRegister(v, TagRUT, func(fl validator.FieldLevel) bool { return ValidRUT(fl.Field().String()) })
	mustRegister(v, TagPhone, func(fl validator.FieldLevel) bool { return ValidPhone(fl.Field().String()) })
	mustRegister(v, TagEmail, func(fl validator.FieldLevel) bool { return ValidEmail(fl.Field().String()) })
	return &structValidator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

func jsonName(tag, fallback string) string {
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return ""
	case "":
		return fallback
	}
	return name
}

func (s *structValidator) Struct(v any) error {
	err := s.v.Struct(v)
	if err == nil {
		return nil
	}
	var fe validator.ValidationErrors
	if !errors.As(err, &fe) {
		return fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, fmt.Sprintf("%s: failed %q", e.Field(), e.Tag()))
	}
	return fmt.Errorf("%w: %s", errs.ErrValidation, strings.Join(parts, "; "))
}
