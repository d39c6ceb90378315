package serverutils

import (
	"fmt"
	"strings"

	"sight-gateway/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags on a request DTO and converts failures
// into a ValidationError so the error middleware maps them to 400.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperror.NewValidationError(err.Error())
		}

		messages := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			messages = append(messages, fmt.Sprintf("field '%s' failed on '%s'",
				strings.ToLower(fieldErr.Field()), fieldErr.Tag()))
		}
		return apperror.NewValidationError(strings.Join(messages, "; "))
	}
	return nil
}
