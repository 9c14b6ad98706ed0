// Package errors provides the coded error type shared by the catalog client.
//
// Transport, store and validation failures all surface as *Error so the
// coordinator and the presentation bridge can branch on a single Code:
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) && domainErr.Code == errors.CodeServerError {
//	    ...
//	}
//
// or, with the sentinels, errors.Is(err, errors.ErrDecodingFailure).
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the client.
const (
	CodeInvalidEndpoint Code = "INVALID_ENDPOINT" // base URL could not be turned into a request URL
	CodeNoResponse      Code = "NO_RESPONSE"      // transport-level failure, nothing usable came back
	CodeDecodingFailure Code = "DECODING_FAILURE" // body did not match the expected schema
	CodeServerError     Code = "SERVER_ERROR"     // non-2xx status
	CodeStorage         Code = "STORAGE"          // local persistence failure
	CodeValidation      Code = "VALIDATION"       // bad draft or request input
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus returns the status the presentation bridge answers with for this code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidEndpoint, CodeNoResponse, CodeDecodingFailure, CodeServerError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded error with a message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrInvalidEndpoint = &Error{Code: CodeInvalidEndpoint, Message: "invalid endpoint"}
	ErrNoResponse      = &Error{Code: CodeNoResponse, Message: "no response from server"}
	ErrDecodingFailure = &Error{Code: CodeDecodingFailure, Message: "failed to decode response"}
	ErrServerError     = &Error{Code: CodeServerError, Message: "server error"}
	ErrStorage         = &Error{Code: CodeStorage, Message: "storage error"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
)

// InvalidEndpoint creates an invalid endpoint error.
func InvalidEndpoint(endpoint string, cause error) *Error {
	return &Error{Code: CodeInvalidEndpoint, Message: fmt.Sprintf("invalid endpoint %q", endpoint), cause: cause}
}

// NoResponse creates a transport failure error.
func NoResponse(cause error) *Error {
	return &Error{Code: CodeNoResponse, Message: "no response from server", cause: cause}
}

// DecodingFailure creates a decoding error.
func DecodingFailure(cause error) *Error {
	return &Error{Code: CodeDecodingFailure, Message: "failed to decode response", cause: cause}
}

// ServerError creates a server error carrying the status detail.
func ServerError(detail string) *Error {
	return &Error{Code: CodeServerError, Message: "server error", Details: detail}
}

// Storage creates a storage error.
func Storage(msg string, cause error) *Error {
	return &Error{Code: CodeStorage, Message: msg, cause: cause}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// UserMessage renders err for display in a message field.
// Server errors include their detail so the user sees the status that came back.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if detail, ok := e.Details.(string); ok && detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, detail)
	}
	return e.Message
}
