package touringbot

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINTERNAL    = "internal"
	EINVALID     = "invalid"
	ENOTFOUND    = "not_found"
	ECONFIG      = "configuration_fault"
	ERATELIMITED = "rate_limited"
	ENETWORK     = "network_failure"
	EHTTPSTATUS  = "http_status"
	EMALFORMED   = "malformed_document"
	EBUSY        = "store_busy"
	ECHECKPOINT  = "invalid_checkpoint"
)

// Error represents an application-specific error. Status carries the HTTP
// status code for EHTTPSTATUS and ERATELIMITED errors. Err, if set, is the
// underlying cause.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("touringbot error: code=%s message=%s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("touringbot error: code=%s message=%s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError returns an Error with the given code that wraps err.
func WrapError(code string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// StatusError returns an error for a non-success HTTP response. 429 maps to
// ERATELIMITED, everything else to EHTTPSTATUS.
func StatusError(status int, url string) *Error {
	code := EHTTPSTATUS
	if status == 429 {
		code = ERATELIMITED
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("HTTP %d for %s", status, url),
		Status:  status,
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorStatus returns the HTTP status carried by err, or 0.
func ErrorStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
