package validators

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance for request body structs
var Validate = validator.New()

// Messages flattens validator errors into a field -> message map for the
// standard validation error response.
func Messages(err error) map[string]string {
	errors := make(map[string]string)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["body"] = "Invalid request body!"
		return errors
	}

	for _, fieldError := range validationErrors {
		field := strings.ToLower(fieldError.Field()[:1]) + fieldError.Field()[1:]
		switch fieldError.Tag() {
		case "required":
			errors[field] = field + " is required!"
		case "email":
			errors[field] = "Invalid email address!"
		case "min":
			errors[field] = field + " must be at least " + fieldError.Param() + " characters!"
		case "gt":
			errors[field] = field + " must be greater than " + fieldError.Param() + "!"
		case "oneof":
			errors[field] = field + " must be one of: " + fieldError.Param() + "!"
		case "len":
			errors[field] = field + " must be exactly " + fieldError.Param() + " characters!"
		default:
			errors[field] = field + " is invalid!"
		}
	}

	return errors
}
