package aggregates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yungbote/boostcart-backend/internal/data/repos"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
	"github.com/yungbote/boostcart-backend/internal/domain/orders"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/lineitem"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/ordernumber"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/pricing"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

type OrderAggregateDeps struct {
	Base BaseDeps

	Carts      repos.CartRepo
	CartItems  repos.CartItemRepo
	Products   repos.ProductRepo
	Orders     repos.OrderRepo
	OrderItems repos.OrderItemRepo

	// OrderNumbers defaults to snowflake node 0.
	OrderNumbers ordernumber.Generator
}

type orderAggregate struct {
	deps OrderAggregateDeps
}

func NewOrderAggregate(deps OrderAggregateDeps) domainagg.OrderAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.OrderNumbers == nil {
		deps.OrderNumbers = ordernumber.MustSnowflake(0)
	}
	return &orderAggregate{deps: deps}
}

func (a *orderAggregate) Contract() domainagg.Contract {
	return domainagg.OrderAggregateContract
}

func (a *orderAggregate) PlaceOrder(ctx context.Context, in domainagg.PlaceOrderInput) (domainagg.PlaceOrderResult, error) {
	const op = "Commerce.Order.PlaceOrder"
	var out domainagg.PlaceOrderResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if !catalog.ValidTaxRate(in.TaxRate) {
		return out, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidTaxRate, op, "tax_rate",
			fmt.Sprintf("tax rate %s is outside [0, 1]", in.TaxRate.String()))
	}
	if a.deps.Carts == nil || a.deps.CartItems == nil || a.deps.Products == nil || a.deps.Orders == nil || a.deps.OrderItems == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "order aggregate repos not configured", nil)
	}
	placedAt := in.PlacedAt.UTC()
	if in.PlacedAt.IsZero() {
		placedAt = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		cart, err := a.deps.Carts.LockByUserID(dbc, in.UserID)
		if err != nil {
			return err
		}
		if cart == nil {
			return domainagg.Reject(domainagg.CodeInvariantViolation, domainagg.ReasonEmptyCart, op, "", "cart is empty")
		}
		items, err := a.deps.CartItems.ListByCartID(dbc, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domainagg.Reject(domainagg.CodeInvariantViolation, domainagg.ReasonEmptyCart, op, "", "cart is empty")
		}

		products, err := a.productsFor(dbc, items)
		if err != nil {
			return err
		}
		var stale []string
		for _, it := range items {
			if p := products[it.ProductID]; p == nil || !p.Active {
				stale = append(stale, it.ID.String())
			}
		}
		if len(stale) > 0 {
			return domainagg.Reject(domainagg.CodePreconditionFailed, domainagg.ReasonStaleReference, op, "items",
				"cart references unavailable products: "+strings.Join(stale, ","))
		}

		orderID := uuid.New()
		rows := make([]*types.OrderItem, 0, len(items))
		for i, it := range items {
			p := products[it.ProductID]
			v, err := lineitem.Validate(p, it.Quantity, json.RawMessage(it.AuxiliaryData))
			if err != nil {
				return itemRejection(op, it.ID, err)
			}
			rows = append(rows, &types.OrderItem{
				ID:            uuid.New(),
				OrderID:       orderID,
				ProductID:     p.ID,
				ProductName:   p.Name,
				Category:      string(p.Category),
				SubCategory:   string(p.SubCategory),
				UnitPrice:     p.Price,
				Quantity:      v.Quantity,
				LineTotal:     pricing.LineTotal(pricing.Line{UnitPrice: p.Price, Quantity: v.Quantity}),
				AuxiliaryData: datatypes.JSON(v.Normalized),
				Position:      i,
			})
		}

		totals := pricing.ComputeTotals(pricing.LinesOf(rows,
			func(r *types.OrderItem) decimal.Decimal { return r.UnitPrice },
			func(r *types.OrderItem) int { return r.Quantity },
		), in.TaxRate)

		order := &types.Order{
			ID:              orderID,
			OrderNumber:     a.deps.OrderNumbers.Next(),
			UserID:          in.UserID,
			Status:          orders.StatusPending,
			Subtotal:        totals.Subtotal,
			TaxRate:         in.TaxRate,
			TaxAmount:       totals.Tax,
			TotalAmount:     totals.Total,
			ItemCount:       len(rows),
			CreatedAt:       placedAt,
			UpdatedAt:       placedAt,
			StatusChangedAt: placedAt,
		}
		if _, err := a.deps.Orders.Create(dbc, order); err != nil {
			return err
		}
		if _, err := a.deps.OrderItems.Create(dbc, rows); err != nil {
			return err
		}
		if _, err := a.deps.CartItems.DeleteByCartID(dbc, cart.ID); err != nil {
			return err
		}
		if err := a.deps.Carts.Touch(dbc, cart.ID); err != nil {
			return err
		}

		order.Items = make([]types.OrderItem, 0, len(rows))
		for _, r := range rows {
			order.Items = append(order.Items, *r)
		}
		out = domainagg.PlaceOrderResult{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			ItemCount:   order.ItemCount,
			Order:       order,
		}
		return nil
	})
	return out, err
}

func (a *orderAggregate) productsFor(dbc dbctx.Context, items []*types.CartItem) (map[uuid.UUID]*types.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := map[uuid.UUID]bool{}
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	// Share locks hold off a concurrent DeleteOrDeactivate until this order
	// is committed, so it sees the new order items and deactivates instead.
	rows, err := a.deps.Products.LockByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*types.Product, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// itemRejection re-scopes a line item rejection to the checkout op and names the item.
func itemRejection(op string, itemID uuid.UUID, err error) error {
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) {
		return err
	}
	cp := *aggErr
	cp.Op = op
	cp.Message = fmt.Sprintf("cart item %s: %s", itemID.String(), aggErr.Message)
	return &cp
}

func (a *orderAggregate) TransitionStatus(ctx context.Context, in domainagg.TransitionOrderStatusInput) (domainagg.TransitionOrderStatusResult, error) {
	const op = "Commerce.Order.TransitionStatus"
	var out domainagg.TransitionOrderStatusResult
	if in.OrderID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing order_id", nil)
	}
	to := orders.NormalizeStatus(in.ToStatus)
	if !orders.IsKnownStatus(to) {
		return out, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidTransition, op, "status",
			fmt.Sprintf("unknown order status %q", in.ToStatus))
	}
	if a.deps.Orders == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "order aggregate repos not configured", nil)
	}
	at := in.TransitionAt.UTC()
	if in.TransitionAt.IsZero() {
		at = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		order, err := a.deps.Orders.LockByID(dbc, in.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("order not found: %s", in.OrderID.String()), nil)
		}
		from := orders.NormalizeStatus(order.Status)
		if from == to && orders.IsTerminal(to) {
			out = domainagg.TransitionOrderStatusResult{
				OrderID:      order.ID,
				FromStatus:   from,
				Status:       to,
				Changed:      false,
				TransitionAt: order.StatusChangedAt,
			}
			return nil
		}
		if !orders.CanTransition(from, to) {
			return domainagg.Reject(domainagg.CodeInvariantViolation, domainagg.ReasonInvalidTransition, op, "status",
				fmt.Sprintf("cannot move order from %s to %s", from, to))
		}

		updates := map[string]any{
			"status":            to,
			"status_changed_at": at,
			"updated_at":        at,
		}
		if col := statusTimestampColumn(to); col != "" {
			updates[col] = at
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.Order{}.TableName(), order.ID, orders.SourcesOf(to), updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "order status changed concurrently"); err != nil {
			return err
		}

		out = domainagg.TransitionOrderStatusResult{
			OrderID:      order.ID,
			FromStatus:   from,
			Status:       to,
			Changed:      true,
			TransitionAt: at,
		}
		return nil
	})
	return out, err
}

func statusTimestampColumn(status string) string {
	switch status {
	case orders.StatusProcessing:
		return "processing_at"
	case orders.StatusCompleted:
		return "completed_at"
	case orders.StatusCancelled:
		return "cancelled_at"
	default:
		return ""
	}
}
