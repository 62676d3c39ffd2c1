package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/platform/apierr"
)

// StatusOf maps an aggregate error code to its HTTP status.
func StatusOf(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusUnprocessableEntity
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodePreconditionFailed, domainagg.CodeInvariantViolation, domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an error envelope. Aggregate errors keep their code,
// reason and field; anything unrecognized becomes a sanitized 500.
func Error(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		msg := aggErr.Message
		if msg == "" {
			msg = string(aggErr.Code)
		}
		writeError(c, StatusOf(aggErr.Code), APIError{
			Message: msg,
			Code:    string(aggErr.Code),
			Reason:  string(aggErr.Reason),
			Field:   aggErr.Field,
		})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		writeError(c, http.StatusServiceUnavailable, APIError{Code: string(domainagg.CodeRetryable)})
		return
	}
	_ = c.Error(err)
	writeError(c, http.StatusInternalServerError, APIError{Code: string(domainagg.CodeInternal)})
}
