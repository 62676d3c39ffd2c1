package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/boostcart-backend/internal/http/response"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
	"github.com/yungbote/boostcart-backend/internal/services"
)

type CartHandler struct {
	log  *logger.Logger
	cart services.CartService
}

func NewCartHandler(log *logger.Logger, cart services.CartService) *CartHandler {
	return &CartHandler{log: log.With("handler", "CartHandler"), cart: cart}
}

// GET /api/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	view, err := h.cart.View(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": view})
}

// GET /api/cart/count
func (h *CartHandler) CountItems(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	n, err := h.cart.Count(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var in services.AddCartItemInput
	if !bindJSON(c, &in) {
		return
	}
	view, err := h.cart.AddItem(c.Request.Context(), userID, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"cart": view})
}

// PATCH /api/cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.UpdateCartItemInput
	if !bindJSON(c, &in) {
		return
	}
	view, err := h.cart.UpdateItem(c.Request.Context(), userID, itemID, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": view})
}

// DELETE /api/cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	view, err := h.cart.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cart": view})
}
