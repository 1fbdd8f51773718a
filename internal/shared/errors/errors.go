package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Each kind has a sentinel so callers can match with errors.Is.
var (
	ErrConfiguration     = errors.New("not configured")
	ErrValidation        = errors.New("invalid request")
	ErrInvalidVariant    = errors.New("invalid variant")
	ErrTransport         = errors.New("upstream request failed")
	ErrContentFiltered   = errors.New("content filtered")
	ErrTimedOut          = errors.New("timed out")
	ErrMalformedResponse = errors.New("malformed response")
)

// Code identifies an error kind in logs, run records and API responses.
type Code string

const (
	CodeConfiguration     Code = "CONFIGURATION_ERROR"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeInvalidVariant    Code = "INVALID_VARIANT"
	CodeTransport         Code = "TRANSPORT_ERROR"
	CodeContentFiltered   Code = "CONTENT_FILTERED"
	CodeTimedOut          Code = "TIMED_OUT"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// AppError carries the kind of a failure together with upstream details.
type AppError struct {
	Code    Code
	Message string
	// StatusCode and Body are set for transport errors.
	StatusCode int
	Body       string
	// Err is the underlying cause, if any.
	Err error
}

var sentinels = map[Code][]error{
	CodeConfiguration:     {ErrConfiguration},
	CodeValidation:        {ErrValidation},
	CodeInvalidVariant:    {ErrInvalidVariant, ErrValidation},
	CodeTransport:         {ErrTransport},
	CodeContentFiltered:   {ErrContentFiltered},
	CodeTimedOut:          {ErrTimedOut},
	CodeMalformedResponse: {ErrMalformedResponse},
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: HTTP %d: %s", msg, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches the sentinels of the error's kind. An invalid variant is also a validation error.
func (e *AppError) Is(target error) bool {
	for _, s := range sentinels[e.Code] {
		if s == target {
			return true
		}
	}
	return false
}

// Wrap attaches an underlying cause and returns e.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// Configuration reports missing credentials or identifiers.
func Configuration(component string, missing ...string) *AppError {
	msg := component + " not configured"
	if len(missing) > 0 {
		msg = fmt.Sprintf("%s not configured: missing %v", component, missing)
	}
	return &AppError{Code: CodeConfiguration, Message: msg}
}

// Validation reports a caller error detected before dispatch.
func Validation(format string, args ...any) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidVariant reports an unknown family/variant combination.
func InvalidVariant(family, variant string, allowed []string) *AppError {
	return &AppError{
		Code:    CodeInvalidVariant,
		Message: fmt.Sprintf("invalid %s variant %q, must be one of %v", family, variant, allowed),
	}
}

// Transport reports a non-success HTTP response outside the async-pending protocol.
func Transport(op string, statusCode int, body string) *AppError {
	return &AppError{
		Code:       CodeTransport,
		Message:    op,
		StatusCode: statusCode,
		Body:       body,
	}
}

// ContentFiltered reports an upstream policy rejection.
func ContentFiltered(message string) *AppError {
	if message == "" {
		message = "generation result was filtered due to content policy"
	}
	return &AppError{Code: CodeContentFiltered, Message: message}
}

// TimedOut reports an async job that exceeded its bound.
func TimedOut(op string, after fmt.Stringer) *AppError {
	return &AppError{
		Code:    CodeTimedOut,
		Message: fmt.Sprintf("%s: timeout after %s", op, after),
	}
}

// Malformed reports a response missing expected structure.
func Malformed(format string, args ...any) *AppError {
	return &AppError{Code: CodeMalformedResponse, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the kind code of err, or CodeInternal.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsFiltered reports whether err is a content-filter outcome.
func IsFiltered(err error) bool {
	return errors.Is(err, ErrContentFiltered)
}

// HTTPStatus maps an error to the status an API handler should return.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidVariant):
		return http.StatusBadRequest
	case errors.Is(err, ErrContentFiltered):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTimedOut):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrTransport), errors.Is(err, ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Is is re-exported so callers need only one errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As is re-exported so callers need only one errors import.
func As(err error, target any) bool { return errors.As(err, target) }
