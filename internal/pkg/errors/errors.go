package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class in the API taxonomy.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeAccessDenied Code = "ACCESS_DENIED"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeConflict     Code = "CONFLICT"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// AppError represents an application error with its taxonomy code and
// HTTP status
type AppError struct {
	Code    Code        `json:"code"`
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code Code, status int, message string) *AppError {
	return &AppError{
		Code:    code,
		Status:  status,
		Message: message,
	}
}

// NotFound creates a not-found error
func NotFound(message string) *AppError {
	return New(CodeNotFound, http.StatusNotFound, message)
}

// AccessDenied creates an access-denied error
func AccessDenied(message string) *AppError {
	return New(CodeAccessDenied, http.StatusForbidden, message)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(CodeConflict, http.StatusConflict, message)
}

// Validation creates a validation error
func Validation(message string) *AppError {
	return New(CodeValidation, http.StatusBadRequest, message)
}

// Internal wraps an unexpected error
func Internal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
		Err:     err,
	}
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Common errors
var (
	// 400 Bad Request
	ErrBadRequest     = Validation("malformed request")
	ErrBlankContent   = Validation("text messages require non-blank content")
	ErrRoomFull       = Validation("room is full")
	ErrRoomInactive   = Validation("room is no longer active")
	ErrReplyWrongRoom = Validation("reply target belongs to a different room")

	// 401 Unauthorized
	ErrUnauthorized       = New(CodeUnauthorized, http.StatusUnauthorized, "authentication required")
	ErrInvalidToken       = New(CodeUnauthorized, http.StatusUnauthorized, "invalid token")
	ErrTokenExpired       = New(CodeUnauthorized, http.StatusUnauthorized, "token has expired")
	ErrInvalidCredentials = New(CodeUnauthorized, http.StatusUnauthorized, "invalid username or password")

	// 403 Forbidden
	ErrAccessDenied = AccessDenied("access denied")
	ErrNotMember    = AccessDenied("not an active member of this room")

	// 404 Not Found
	ErrNotFound        = NotFound("resource not found")
	ErrUserNotFound    = NotFound("user not found")
	ErrRoomNotFound    = NotFound("room not found")
	ErrMessageNotFound = NotFound("message not found")
	ErrReplyNotFound   = NotFound("reply target message not found")

	// 409 Conflict
	ErrRoomNameTaken  = Conflict("room name is already taken")
	ErrUsernameExists = Conflict("username already exists")
	ErrEmailExists    = Conflict("email already exists")

	// 429 Too Many Requests
	ErrTooManyRequests = New(CodeValidation, http.StatusTooManyRequests, "too many requests, slow down")

	// 500 Internal Server Error
	ErrInternal = New(CodeInternal, http.StatusInternalServerError, "internal server error")
	ErrRelay    = New(CodeInternal, http.StatusInternalServerError, "message stored but relay publish failed")
)

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetHTTPStatus returns the HTTP status code for an error
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// GetCode returns the taxonomy code for an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// GetMessage returns the error message
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
