package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: NewValidate()}
}

// NewValidate builds the validator instance shared by controllers.
func NewValidate() *validator.Validate {
	v := validator.New()
	// report json field names instead of Go struct field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

func (v *Validator) Struct(i interface{}) error {
	return v.v.Struct(i)
}

// Fields flattens a validator error into a field→message map suitable for
// a 400 response body.
func Fields(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["detail"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "datetime":
		return "must be a date in the format " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "dive":
		return "invalid value"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}
