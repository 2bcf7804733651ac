package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/chatgate/pkg/errors"
	"github.com/charlesng35/chatgate/pkg/response"
	appValidator "github.com/charlesng35/chatgate/pkg/validator"
)

// bindQuery binds query parameters into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindQuery[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid query parameters"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	ve, ok := err.(appValidator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "invalid request"
	}

	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		switch failure.Tag {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "serverurl":
			messages = append(messages, fmt.Sprintf("%s must be an absolute http(s) url", field))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
		}
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(namespace string) string {
	if idx := strings.LastIndex(namespace, "."); idx >= 0 {
		namespace = namespace[idx+1:]
	}
	return strings.ToLower(namespace)
}
