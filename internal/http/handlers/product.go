package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/boostcart-backend/internal/http/response"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
	"github.com/yungbote/boostcart-backend/internal/services"
)

type ProductHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewProductHandler(log *logger.Logger, catalog services.CatalogService) *ProductHandler {
	return &ProductHandler{log: log.With("handler", "ProductHandler"), catalog: catalog}
}

// GET /api/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	h.list(c, false)
}

// GET /api/admin/products
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	h.list(c, !queryBool(c, "active_only"))
}

func (h *ProductHandler) list(c *gin.Context, includeInactive bool) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	products, err := h.catalog.List(c.Request.Context(), services.ProductQuery{
		Category:        c.Query("category"),
		SubCategory:     c.Query("sub_category"),
		IncludeInactive: includeInactive,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": products})
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	h.get(c, false)
}

// GET /api/admin/products/:id
func (h *ProductHandler) AdminGetProduct(c *gin.Context) {
	h.get(c, true)
}

func (h *ProductHandler) get(c *gin.Context, includeInactive bool) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.Get(c.Request.Context(), id, includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// POST /api/admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in services.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"product": p})
}

// PATCH /api/admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// POST /api/admin/products/:id/activate
func (h *ProductHandler) ActivateProduct(c *gin.Context) {
	h.setActive(c, true)
}

// POST /api/admin/products/:id/deactivate
func (h *ProductHandler) DeactivateProduct(c *gin.Context) {
	h.setActive(c, false)
}

func (h *ProductHandler) setActive(c *gin.Context, active bool) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.SetActive(c.Request.Context(), id, active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// DELETE /api/admin/products/:id
//
// Products referenced by an order are deactivated instead of deleted; the
// response says which happened.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.catalog.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id":         res.ProductID,
		"outcome":            res.Outcome,
		"reason":             res.Reason,
		"referencing_orders": res.ReferencingOrders,
		"pruned_cart_items":  res.PrunedCartItems,
	})
}
