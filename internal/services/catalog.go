package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/boostcart-backend/internal/data/repos"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

const (
	defaultProductPageSize = 100
	maxProductPageSize     = 500
)

// ProductInput carries a create or a partial update. Nil fields are left untouched on update.
type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	SubCategory *string          `json:"sub_category"`
	MinQuantity *int             `json:"min_quantity"`
	MaxQuantity *int             `json:"max_quantity"`
	Active      *bool            `json:"active"`
}

type ProductQuery struct {
	Category        string
	SubCategory     string
	IncludeInactive bool
	Limit           int
	Offset          int
}

type CatalogService interface {
	List(ctx context.Context, q ProductQuery) ([]*types.Product, error)
	// Get hides inactive products unless includeInactive is set.
	Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*types.Product, error)

	Create(ctx context.Context, in ProductInput) (*types.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput) (*types.Product, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (domainagg.DeleteProductResult, error)
}

type catalogService struct {
	db       *gorm.DB
	log      *logger.Logger
	products repos.ProductRepo
	agg      domainagg.ProductAggregate
	metrics  *observability.Metrics
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, products repos.ProductRepo, agg domainagg.ProductAggregate, metrics *observability.Metrics) CatalogService {
	return &catalogService{
		db:       db,
		log:      log.With("service", "CatalogService"),
		products: products,
		agg:      agg,
		metrics:  metrics,
	}
}

func (s *catalogService) List(ctx context.Context, q ProductQuery) ([]*types.Product, error) {
	const op = "Commerce.Catalog.List"
	f := repos.ProductFilter{ActiveOnly: !q.IncludeInactive, Offset: max(q.Offset, 0)}
	if c := strings.TrimSpace(q.Category); c != "" {
		cat, ok := catalog.ParseCategory(c)
		if !ok {
			return nil, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidProduct, op, "category", fmt.Sprintf("unknown category %q", c))
		}
		f.Category = string(cat)
	}
	if sc := strings.TrimSpace(q.SubCategory); sc != "" {
		sub, ok := catalog.ParseSubCategory(sc)
		if !ok {
			return nil, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidProduct, op, "sub_category", fmt.Sprintf("unknown sub_category %q", sc))
		}
		f.SubCategory = string(sub)
	}
	switch {
	case q.Limit <= 0:
		f.Limit = defaultProductPageSize
	case q.Limit > maxProductPageSize:
		f.Limit = maxProductPageSize
	default:
		f.Limit = q.Limit
	}
	return s.products.List(dbctx.Context{Ctx: ctx}, f)
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*types.Product, error) {
	const op = "Commerce.Catalog.Get"
	p, err := s.products.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if p == nil || (!p.Active && !includeInactive) {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("product not found: %s", id), nil)
	}
	return p, nil
}

func (s *catalogService) Create(ctx context.Context, in ProductInput) (*types.Product, error) {
	const op = "Commerce.Catalog.Create"
	required := []struct {
		field   string
		missing bool
	}{
		{"name", in.Name == nil},
		{"price", in.Price == nil},
		{"category", in.Category == nil},
		{"sub_category", in.SubCategory == nil},
		{"min_quantity", in.MinQuantity == nil},
		{"max_quantity", in.MaxQuantity == nil},
	}
	for _, r := range required {
		if r.missing {
			return nil, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonMissingField, op, r.field, r.field+" is required")
		}
	}
	p := &types.Product{Active: true}
	if err := applyProductInput(op, p, in); err != nil {
		return nil, err
	}
	created, err := s.products.Create(dbctx.Context{Ctx: ctx}, []*types.Product{p})
	if err != nil {
		return nil, err
	}
	s.log.Info("product created", "product_id", p.ID, "sub_category", p.SubCategory)
	return created[0], nil
}

// Update never touches carts or orders: carts revalidate on read and orders
// keep their snapshots.
func (s *catalogService) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*types.Product, error) {
	const op = "Commerce.Catalog.Update"
	var out *types.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := s.products.LockByID(dbc, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("product not found: %s", id), nil)
		}
		if err := applyProductInput(op, p, in); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		if err := s.products.UpdateFields(dbc, p.ID, map[string]interface{}{
			"name":         p.Name,
			"description":  p.Description,
			"price":        p.Price,
			"category":     p.Category,
			"sub_category": p.SubCategory,
			"min_quantity": p.MinQuantity,
			"max_quantity": p.MaxQuantity,
			"active":       p.Active,
			"updated_at":   p.UpdatedAt,
		}); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *catalogService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.Product, error) {
	return s.Update(ctx, id, ProductInput{Active: &active})
}

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) (domainagg.DeleteProductResult, error) {
	res, err := s.agg.DeleteOrDeactivate(ctx, domainagg.DeleteProductInput{ProductID: id})
	if err != nil {
		s.metrics.IncProductDelete("error")
		return res, err
	}
	s.metrics.IncProductDelete(string(res.Outcome))
	s.log.Info("product delete handled", "product_id", id, "outcome", res.Outcome, "pruned_cart_items", res.PrunedCartItems)
	return res, nil
}

// applyProductInput merges in onto p and checks the merged product.
func applyProductInput(op string, p *types.Product, in ProductInput) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		cat, ok := catalog.ParseCategory(*in.Category)
		if !ok {
			return domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidProduct, op, "category", fmt.Sprintf("unknown category %q", *in.Category))
		}
		p.Category = cat
	}
	if in.SubCategory != nil {
		sub, ok := catalog.ParseSubCategory(*in.SubCategory)
		if !ok {
			return domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidProduct, op, "sub_category", fmt.Sprintf("unknown sub_category %q", *in.SubCategory))
		}
		p.SubCategory = sub
	}
	if in.MinQuantity != nil {
		p.MinQuantity = *in.MinQuantity
	}
	if in.MaxQuantity != nil {
		p.MaxQuantity = *in.MaxQuantity
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	return validateProduct(op, p)
}

func validateProduct(op string, p *types.Product) error {
	if p.Name == "" {
		return domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidProduct, op, "name", "name must not be blank")
	}
	if p.Price.IsNegative() {
		return domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidProduct, op, "price", "price must not be negative")
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidProduct, op, "price", "price has more than two decimal places")
	}
	if p.MinQuantity < 1 {
		return domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidQuantityBounds, op, "min_quantity", "min_quantity must be at least 1")
	}
	if p.MaxQuantity <= p.MinQuantity {
		return domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidQuantityBounds, op, "max_quantity",
			fmt.Sprintf("max_quantity must be greater than min_quantity (%d)", p.MinQuantity))
	}
	return nil
}
