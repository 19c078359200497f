package passenger

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a passenger field (by its JSON name) to what is wrong with it
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return ""
	}
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, fmt.Sprintf("%s: %s", field, f[field]))
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(f), strings.Join(messages, "; "))
}

// Validator checks a single passenger record before the flow may advance
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Normalize trims surrounding whitespace so blank-looking input counts as missing
func Normalize(p models.PassengerDetails) models.PassengerDetails {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Gender = models.Gender(strings.ToLower(strings.TrimSpace(string(p.Gender))))
	return p
}

// Validate returns nil when every field is present and well formed, otherwise
// one message per failing field.
func (v *Validator) Validate(p models.PassengerDetails) FieldErrors {
	p = Normalize(p)
	err := v.validate.Struct(p)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return FieldErrors{"passenger": err.Error()}
	}
	return translateValidationErrors(validationErrs)
}

// Valid is the boolean form of Validate
func (v *Validator) Valid(p models.PassengerDetails) bool {
	return v.Validate(p) == nil
}

func translateValidationErrors(errs validator.ValidationErrors) FieldErrors {
	out := make(FieldErrors, len(errs))
	for _, err := range errs {
		field := err.Field()
		if _, seen := out[field]; seen {
			continue
		}

		message := err.Error()
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "contains":
			message = fmt.Sprintf("%s must contain %q", field, err.Param())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		}
		out[field] = message
	}
	return out
}
