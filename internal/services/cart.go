package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/boostcart-backend/internal/data/repos"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/lineitem"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/pricing"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

const (
	CartItemOK          = "ok"
	CartItemUnavailable = "unavailable"
	CartItemInvalid     = "invalid"
)

type AddCartItemInput struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	AuxiliaryData json.RawMessage `json:"auxiliary_data"`
}

type UpdateCartItemInput struct {
	Quantity      *int            `json:"quantity"`
	AuxiliaryData json.RawMessage `json:"auxiliary_data"`
}

type CartItemProblem struct {
	Reason  string `json:"reason"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type CartItemView struct {
	ID            uuid.UUID        `json:"id"`
	ProductID     uuid.UUID        `json:"product_id"`
	ProductName   string           `json:"product_name"`
	Category      string           `json:"category"`
	SubCategory   string           `json:"sub_category"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	Quantity      int              `json:"quantity"`
	MinQuantity   int              `json:"min_quantity"`
	MaxQuantity   int              `json:"max_quantity"`
	AuxiliaryData json.RawMessage  `json:"auxiliary_data"`
	LineTotal     decimal.Decimal  `json:"line_total"`
	Status        string           `json:"status"`
	Problem       *CartItemProblem `json:"problem,omitempty"`
}

// CartView is the cart re-checked against the current catalog. Totals cover
// only items that could be checked out as they are.
type CartView struct {
	CartID          uuid.UUID      `json:"cart_id"`
	Items           []CartItemView `json:"items"`
	ItemCount       int            `json:"item_count"`
	Totals          pricing.Totals `json:"totals"`
	CheckoutBlocked bool           `json:"checkout_blocked"`
	PrunedItems     int64          `json:"pruned_items,omitempty"`
}

type CartService interface {
	View(ctx context.Context, userID uuid.UUID) (*CartView, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	AddItem(ctx context.Context, userID uuid.UUID, in AddCartItemInput) (*CartView, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, in UpdateCartItemInput) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)
}

type cartService struct {
	db        *gorm.DB
	log       *logger.Logger
	carts     repos.CartRepo
	cartItems repos.CartItemRepo
	products  repos.ProductRepo
	tax       TaxService
	metrics   *observability.Metrics
}

func NewCartService(db *gorm.DB, log *logger.Logger, carts repos.CartRepo, cartItems repos.CartItemRepo, products repos.ProductRepo, tax TaxService, metrics *observability.Metrics) CartService {
	return &cartService{
		db:        db,
		log:       log.With("service", "CartService"),
		carts:     carts,
		cartItems: cartItems,
		products:  products,
		tax:       tax,
		metrics:   metrics,
	}
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, in AddCartItemInput) (*CartView, error) {
	const op = "Commerce.Cart.AddItem"
	if userID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	p, err := s.purchasable(ctx, op, in.ProductID)
	if err != nil {
		s.metrics.IncCartMutation("add", outcomeOf(err))
		return nil, err
	}
	v, err := lineitem.Validate(p, in.Quantity, in.AuxiliaryData)
	if err != nil {
		s.metrics.IncCartMutation("add", outcomeOf(err))
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		cart, err := s.carts.GetOrCreateByUserID(dbc, userID)
		if err != nil {
			return err
		}
		if _, err := s.cartItems.Create(dbc, []*types.CartItem{{
			CartID:        cart.ID,
			ProductID:     p.ID,
			Quantity:      v.Quantity,
			AuxiliaryData: datatypes.JSON(v.Normalized),
		}}); err != nil {
			return err
		}
		return s.carts.Touch(dbc, cart.ID)
	})
	if err != nil {
		s.metrics.IncCartMutation("add", "error")
		return nil, err
	}
	s.metrics.IncCartMutation("add", "ok")
	return s.View(ctx, userID)
}

// UpdateItem re-validates the merged item against the product's current rules.
// Concurrent edits of one item are last-write-wins.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, in UpdateCartItemInput) (*CartView, error) {
	const op = "Commerce.Cart.UpdateItem"
	cart, item, err := s.ownedItem(ctx, op, userID, itemID)
	if err != nil {
		s.metrics.IncCartMutation("update", outcomeOf(err))
		return nil, err
	}
	p, err := s.purchasable(ctx, op, item.ProductID)
	if err != nil {
		s.metrics.IncCartMutation("update", outcomeOf(err))
		return nil, err
	}
	qty := item.Quantity
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	aux := json.RawMessage(item.AuxiliaryData)
	if len(in.AuxiliaryData) > 0 {
		aux = in.AuxiliaryData
	}
	v, err := lineitem.Validate(p, qty, aux)
	if err != nil {
		s.metrics.IncCartMutation("update", outcomeOf(err))
		return nil, err
	}
	n, err := s.cartItems.UpdateFields(dbctx.Context{Ctx: ctx}, cart.ID, item.ID, map[string]interface{}{
		"quantity":       v.Quantity,
		"auxiliary_data": datatypes.JSON(v.Normalized),
	})
	if err != nil {
		s.metrics.IncCartMutation("update", "error")
		return nil, err
	}
	if n == 0 {
		s.metrics.IncCartMutation("update", string(domainagg.CodeNotFound))
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("cart item not found: %s", itemID), nil)
	}
	s.metrics.IncCartMutation("update", "ok")
	return s.View(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	const op = "Commerce.Cart.RemoveItem"
	cart, item, err := s.ownedItem(ctx, op, userID, itemID)
	if err != nil {
		s.metrics.IncCartMutation("remove", outcomeOf(err))
		return nil, err
	}
	if _, err := s.cartItems.DeleteByIDs(dbctx.Context{Ctx: ctx}, cart.ID, []uuid.UUID{item.ID}); err != nil {
		s.metrics.IncCartMutation("remove", "error")
		return nil, err
	}
	s.metrics.IncCartMutation("remove", "ok")
	return s.View(ctx, userID)
}

func (s *cartService) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	cart, err := s.carts.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil || cart == nil {
		return 0, err
	}
	return s.cartItems.CountByCartID(dbctx.Context{Ctx: ctx}, cart.ID)
}

// View prunes items whose product was deleted and flags the rest against the
// current catalog.
func (s *cartService) View(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	const op = "Commerce.Cart.View"
	if userID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	policy, err := s.tax.Current(ctx)
	if err != nil {
		return nil, err
	}
	out := &CartView{Items: []CartItemView{}, Totals: pricing.ComputeTotals(nil, policy.TaxRate)}
	cart, err := s.carts.GetByUserID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return out, nil
	}
	out.CartID = cart.ID

	items, err := s.cartItems.ListByCartID(dbc, cart.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	rows, err := s.products.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]*types.Product, len(rows))
	for _, p := range rows {
		products[p.ID] = p
	}

	var orphans []uuid.UUID
	var priced []pricing.Line
	for _, it := range items {
		p := products[it.ProductID]
		if p == nil {
			orphans = append(orphans, it.ID)
			continue
		}
		view := CartItemView{
			ID:            it.ID,
			ProductID:     p.ID,
			ProductName:   p.Name,
			Category:      string(p.Category),
			SubCategory:   string(p.SubCategory),
			UnitPrice:     p.Price,
			Quantity:      it.Quantity,
			MinQuantity:   p.MinQuantity,
			MaxQuantity:   p.MaxQuantity,
			AuxiliaryData: json.RawMessage(it.AuxiliaryData),
			LineTotal:     pricing.LineTotal(pricing.Line{UnitPrice: p.Price, Quantity: it.Quantity}),
			Status:        CartItemOK,
		}
		switch _, verr := lineitem.Validate(p, it.Quantity, json.RawMessage(it.AuxiliaryData)); {
		case !p.Active:
			view.Status = CartItemUnavailable
			view.Problem = &CartItemProblem{Reason: string(domainagg.ReasonStaleReference), Message: "product is no longer available"}
		case verr != nil:
			view.Status = CartItemInvalid
			view.Problem = problemOf(verr)
		default:
			priced = append(priced, pricing.Line{UnitPrice: p.Price, Quantity: it.Quantity})
		}
		if view.Status != CartItemOK {
			out.CheckoutBlocked = true
		}
		out.Items = append(out.Items, view)
	}
	if len(orphans) > 0 {
		n, err := s.cartItems.DeleteByIDs(dbc, cart.ID, orphans)
		if err != nil {
			return nil, err
		}
		out.PrunedItems = n
		s.log.Info("pruned cart items for deleted products", "cart_id", cart.ID, "count", n)
	}
	out.ItemCount = len(out.Items)
	out.Totals = pricing.ComputeTotals(priced, policy.TaxRate)
	return out, nil
}

func (s *cartService) purchasable(ctx context.Context, op string, productID uuid.UUID) (*types.Product, error) {
	if productID == uuid.Nil {
		return nil, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonMissingField, op, "product_id", "product_id is required")
	}
	p, err := s.products.GetByID(dbctx.Context{Ctx: ctx}, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("product not found: %s", productID), nil)
	}
	if !p.Active {
		return nil, domainagg.Reject(domainagg.CodePreconditionFailed, domainagg.ReasonStaleReference, op, "product_id", "product is no longer available")
	}
	return p, nil
}

func (s *cartService) ownedItem(ctx context.Context, op string, userID, itemID uuid.UUID) (*types.Cart, *types.CartItem, error) {
	dbc := dbctx.Context{Ctx: ctx}
	cart, err := s.carts.GetByUserID(dbc, userID)
	if err != nil {
		return nil, nil, err
	}
	var item *types.CartItem
	if cart != nil {
		if item, err = s.cartItems.GetByID(dbc, cart.ID, itemID); err != nil {
			return nil, nil, err
		}
	}
	if item == nil {
		return nil, nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("cart item not found: %s", itemID), nil)
	}
	return cart, item, nil
}

func problemOf(err error) *CartItemProblem {
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return &CartItemProblem{Reason: string(aggErr.Reason), Field: aggErr.Field, Message: aggErr.Message}
	}
	return &CartItemProblem{Reason: "invalid", Message: err.Error()}
}

// outcomeOf labels a failed mutation for metrics.
func outcomeOf(err error) string {
	if r := domainagg.ReasonOf(err); r != "" {
		return string(r)
	}
	if c := domainagg.CodeOf(err); c != "" {
		return string(c)
	}
	return "error"
}

