package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/http/response"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
	"github.com/yungbote/boostcart-backend/internal/services"
)

type TaxHandler struct {
	log *logger.Logger
	tax services.TaxService
}

func NewTaxHandler(log *logger.Logger, tax services.TaxService) *TaxHandler {
	return &TaxHandler{log: log.With("handler", "TaxHandler"), tax: tax}
}

type setTaxRequest struct {
	TaxRate *decimal.Decimal `json:"tax_rate"`
}

// GET /api/tax
func (h *TaxHandler) GetTax(c *gin.Context) {
	p, err := h.tax.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tax_rate": p.TaxRate, "updated_at": p.UpdatedAt})
}

// PUT /api/admin/tax
func (h *TaxHandler) SetTax(c *gin.Context) {
	var req setTaxRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.TaxRate == nil {
		response.Error(c, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonMissingField, "Commerce.Tax.Set", "tax_rate", "tax_rate is required"))
		return
	}
	p, err := h.tax.Set(c.Request.Context(), *req.TaxRate)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tax_rate": p.TaxRate, "updated_at": p.UpdatedAt})
}
