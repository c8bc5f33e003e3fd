package utils

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/paytrust/pkg/errors"
)

// Validator holds the singleton instance of the validator.
var defaultValidator *validator.Validate

func init() {
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the name partners see: the header name, else the JSON key.
	defaultValidator.RegisterTagNameFunc(fieldName)
	_ = defaultValidator.RegisterValidation("method", validateMethod)
}

// ValidateStruct validates a struct using the default validator.
// The first failing field decides the error: a missing value is an
// InvalidMandatoryField, anything else an InvalidFieldFormat.
func ValidateStruct(s interface{}) *errors.ResponseError {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return errors.BadRequest().WithCause(err)
	}
	fe := validationErrors[0]
	switch fe.Tag() {
	case "required":
		return errors.InvalidMandatoryField(fe.Field())
	default:
		return errors.InvalidFieldFormat(fe.Field())
	}
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"header", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

// validateMethod accepts the HTTP methods a transactional request may use.
func validateMethod(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "GET", "POST", "PUT", "PATCH", "DELETE":
		return true
	default:
		return false
	}
}

// ValidateNotEmpty checks if a string is not empty.
func ValidateNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

//Personal.AI order the ending
