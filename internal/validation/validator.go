// Package validation provides struct validation utilities using the validator/v10 library.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
)

// Code formats accepted for journals.
var (
	issnPattern       = regexp.MustCompile(`^\d{4}-\d{3}[\dX]$`)
	cnCodePattern     = regexp.MustCompile(`^CN\d{2}-\d{4}$`)
	postalCodePattern = regexp.MustCompile(`^\d{1,2}-\d{1,3}$`)
)

// Error carries per-field messages. It matches database.ErrInvalidArgument.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error {
	return database.ErrInvalidArgument
}

// Validator wraps go-playground/validator with the catalog's custom rules.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "issn", matches(issnPattern))
	mustRegister(v, "cncode", matches(cnCodePattern))
	mustRegister(v, "postalcode", matches(postalCodePattern))
	mustRegister(v, "frequency", func(fl validator.FieldLevel) bool {
		f := entities.Frequency(fl.Field().String())
		for _, known := range entities.Frequencies {
			if f == known {
				return true
			}
		}
		return false
	})
	mustRegister(v, "role", func(fl validator.FieldLevel) bool {
		return entities.UserRole(fl.Field().String()).Valid()
	})

	return &Validator{v: v}
}

// Struct validates s and returns an *Error describing every failing field.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

// Var validates a single value against a tag expression, reporting failures under name.
func (v *Validator) Var(name string, value any, tag string) error {
	err := v.v.Var(value, tag)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return err
	}
	return &Error{Fields: map[string]string{name: friendlyMessage(validationErrs[0])}}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "issn":
		return "must look like 1234-567X"
	case "cncode":
		return "must look like CN11-1234"
	case "postalcode":
		return "must look like 2-123"
	case "frequency":
		return "must be a known publication frequency"
	case "role":
		return "must be admin or reader"
	default:
		return "is invalid"
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}
