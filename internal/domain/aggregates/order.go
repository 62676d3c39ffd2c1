package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/boostcart-backend/internal/domain/orders"
)

var OrderAggregateContract = Contract{
	Name:             "Commerce.OrderAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Owns:             []string{"customer_order", "order_item"},
	LockOrder:        []string{"cart", "product", "cart_item", "customer_order"},
	Notes:            "Owns cart-to-order conversion and the order status graph.",
}

// OrderAggregate owns order placement and status transitions.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodePreconditionFailed, CodeInvariantViolation, CodeConflict, CodeRetryable, CodeInternal.
type OrderAggregate interface {
	Aggregate

	// PlaceOrder converts the user's cart into an order and clears the cart in one transaction.
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderResult, error)

	// TransitionStatus moves an order along pending -> processing -> completed|cancelled.
	TransitionStatus(ctx context.Context, in TransitionOrderStatusInput) (TransitionOrderStatusResult, error)
}

type PlaceOrderInput struct {
	UserID   uuid.UUID
	// TaxRate is the rate captured by the caller for this checkout.
	TaxRate  decimal.Decimal
	PlacedAt time.Time
}

type PlaceOrderResult struct {
	OrderID     uuid.UUID
	OrderNumber string
	ItemCount   int
	// Order is the committed order with its items as written.
	Order *orders.Order
}

type TransitionOrderStatusInput struct {
	OrderID      uuid.UUID
	ToStatus     string
	TransitionAt time.Time
}

type TransitionOrderStatusResult struct {
	OrderID      uuid.UUID
	FromStatus   string
	Status       string
	Changed      bool
	TransitionAt time.Time
}
