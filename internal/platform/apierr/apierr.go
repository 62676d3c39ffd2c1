package apierr

import (
	"fmt"
	"net/http"
)

// Codes emitted by the HTTP layer. Domain rejections carry their own
// aggregate codes and never pass through here.
const (
	CodeInvalidRequest = "invalid_request"
	CodeInvalidFrom    = "invalid_from"
	CodeInvalidTo      = "invalid_to"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeRateLimited    = "rate_limited"
)

// Error is a transport-level failure with a fixed status and code.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// InvalidParamCode names the code for a malformed path or query parameter,
// e.g. "invalid_orderId" or "invalid_limit".
func InvalidParamCode(name string) string {
	return "invalid_" + name
}

// InvalidParam is a 400 for a malformed path or query parameter.
func InvalidParam(name string, err error) *Error {
	return New(http.StatusBadRequest, InvalidParamCode(name), err)
}

// InvalidRequest is a 400 for an undecodable request body.
func InvalidRequest(err error) *Error {
	return New(http.StatusBadRequest, CodeInvalidRequest, err)
}
