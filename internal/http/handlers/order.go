package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/boostcart-backend/internal/http/response"
	"github.com/yungbote/boostcart-backend/internal/platform/apierr"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
	"github.com/yungbote/boostcart-backend/internal/services"
)

const headerIdempotencyKey = "Idempotency-Key"

type OrderHandler struct {
	log    *logger.Logger
	orders services.OrderService
}

func NewOrderHandler(log *logger.Logger, orders services.OrderService) *OrderHandler {
	return &OrderHandler{log: log.With("handler", "OrderHandler"), orders: orders}
}

// POST /api/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	res, err := h.orders.Checkout(c.Request.Context(), userID, c.GetHeader(headerIdempotencyKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
		c.Header("Idempotent-Replayed", "true")
	}
	c.JSON(status, gin.H{"order": res.Order, "replayed": res.Replayed})
}

// GET /api/orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	page, err := h.orders.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/orders/:id
func (h *OrderHandler) GetMyOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetForUser(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// GET /api/admin/orders
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	from, err := parseTimeBound(c.Query("from"), false)
	if err != nil {
		response.Error(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidFrom, fmt.Errorf("from: %w", err)))
		return
	}
	to, err := parseTimeBound(c.Query("to"), true)
	if err != nil {
		response.Error(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidTo, fmt.Errorf("to: %w", err)))
		return
	}
	var statuses []string
	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	page, err := h.orders.List(c.Request.Context(), services.OrderQuery{
		Statuses: statuses,
		From:     from,
		To:       to,
		Query:    c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

type transitionRequest struct {
	Status string `json:"status"`
}

// POST /api/admin/orders/:id/status
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.orders.TransitionStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": res.Order, "from_status": res.FromStatus, "changed": res.Changed})
}
