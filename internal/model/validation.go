package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so clients see what they sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs struct-tag validation and converts failures into field errors.
func ValidateStruct(s interface{}) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}

	fieldErrors := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "max":
			msg = field + " must be at most " + param + " characters"
		case "min":
			msg = field + " must be at least " + param
		case "gt":
			msg = field + " must be greater than " + param
		case "gte":
			msg = field + " must be at least " + param
		case "eth_addr":
			msg = field + " must be a 0x-prefixed 20 byte address"
		case "numeric":
			msg = field + " must be a decimal number"
		default:
			msg = field + " is invalid"
		}
		fieldErrors = append(fieldErrors, FieldError{Field: field, Message: msg})
	}
	return fieldErrors
}
