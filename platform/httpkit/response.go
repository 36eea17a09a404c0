package httpkit

import (
	"errors"
	"net/http"

	"repair_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternalError = "internal server error"

// ErrorResponse is the body of every non-2xx answer. Code is the error kind
// for typed domain errors.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Error writes an ErrorResponse for failures detected in the handler itself,
// such as bad JSON or failed validation.
func Error(c *gin.Context, status int, message string, details interface{}) {
	JSON(c, status, ErrorResponse{Error: message, Details: details})
}

// HandleError writes the response for err and reports whether there was one.
// Untyped errors are recorded on the gin context for RequestLogger and
// answered with a bare 500.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) || domainErr.Kind == apperr.KindUnknown || domainErr.Kind == apperr.KindInternal {
		_ = c.Error(err)
		JSON(c, http.StatusInternalServerError, ErrorResponse{Error: msgInternalError})
		return true
	}

	JSON(c, domainErr.HTTPStatus(), ErrorResponse{
		Error:   domainErr.Message,
		Code:    domainErr.Kind.String(),
		Details: domainErr.Details,
	})
	return true
}
