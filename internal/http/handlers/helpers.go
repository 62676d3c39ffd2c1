package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/boostcart-backend/internal/http/response"
	"github.com/yungbote/boostcart-backend/internal/platform/apierr"
	"github.com/yungbote/boostcart-backend/internal/platform/ctxutil"
)

const dateLayout = "2006-01-02"

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, nil)
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		response.Error(c, apierr.InvalidParam(name, fmt.Errorf("invalid %s: %q", name, raw)))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, apierr.InvalidRequest(fmt.Errorf("invalid request body: %w", err)))
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		response.Error(c, apierr.InvalidParam(name, fmt.Errorf("%s must be a non-negative integer", name)))
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return b
}

// parseTimeBound accepts RFC3339 or a bare date. A bare date used as an
// upper bound covers the whole day.
func parseTimeBound(raw string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errors.New("expected RFC3339 timestamp or YYYY-MM-DD date")
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
