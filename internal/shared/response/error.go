package response

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error sends an error response with the given status code.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// ErrorWithCode sends an error response with an error code.
func ErrorWithCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// ErrorWithDetails sends an error response with additional details.
func ErrorWithDetails(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// BadRequest sends a 400 Bad Request response.
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, "validation_error", message)
}

// FromError maps err to a status through its kind and sends it. Internal errors are not
// echoed to the client.
func FromError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := apperrors.HTTPStatus(err)
	code := strings.ToLower(string(apperrors.CodeOf(err)))
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	ErrorWithCode(c, status, code, msg)
}
