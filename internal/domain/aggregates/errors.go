package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes aggregate failure semantics across domains.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Reason narrows a code to the rule that rejected the request.
type Reason string

const (
	ReasonQuantityOutOfRange    Reason = "quantity_out_of_range"
	ReasonMissingField          Reason = "missing_field"
	ReasonInvalidCount          Reason = "invalid_count"
	ReasonIncompleteLinks       Reason = "incomplete_links"
	ReasonInvalidTaxRate        Reason = "invalid_tax_rate"
	ReasonInvalidQuantityBounds Reason = "invalid_quantity_bounds"
	ReasonInvalidProduct        Reason = "invalid_product"
	ReasonStaleReference        Reason = "stale_reference"
	ReasonProductHasOrders      Reason = "product_has_orders"
	ReasonInvalidTransition     Reason = "invalid_transition"
	ReasonEmptyCart             Reason = "empty_cart"
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Reason  Reason
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	tag := string(e.Code)
	if e.Reason != "" {
		tag = tag + "/" + string(e.Reason)
	}
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, tag)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, tag)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, tag)
	default:
		return tag
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Reject builds a client-facing rejection carrying a reason and, optionally, the offending field.
func Reject(code ErrorCode, reason Reason, op, field, message string) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Reason:  reason,
		Field:   strings.TrimSpace(field),
		Message: strings.TrimSpace(message),
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// IsReason checks whether err (or wrapped err) carries the given reason.
func IsReason(err error, reason Reason) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Reason == reason
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// ReasonOf extracts the rejection reason when available.
func ReasonOf(err error) Reason {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Reason
}
