package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/quantboard/chat/internal/pkg/errors"
)

// ErrorBody is the uniform error envelope. Successful responses carry the
// resource DTO directly with no wrapper.
type ErrorBody struct {
	Timestamp string      `json:"timestamp"`
	Status    int         `json:"status"`
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Path      string      `json:"path"`
	Details   interface{} `json:"details,omitempty"`
}

// OK sends a 200 response with the DTO as the body
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response with the DTO as the body
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends the uniform error envelope for any error. Unknown errors are
// reported as internal without leaking their text.
func Error(c *gin.Context, err error) {
	status := apperrors.GetHTTPStatus(err)
	body := ErrorBody{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     string(apperrors.GetCode(err)),
		Message:   apperrors.GetMessage(err),
		Path:      c.Request.URL.Path,
	}

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		body.Details = appErr.Details
	}

	c.AbortWithStatusJSON(status, body)
}

// ErrorWithStatus sends the envelope for a bare status and message, used by
// middleware that has no AppError at hand
func ErrorWithStatus(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     code,
		Message:   message,
		Path:      c.Request.URL.Path,
	})
}
