package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/boostcart-backend/internal/data/repos"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/orders"
	"github.com/yungbote/boostcart-backend/internal/events"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

const (
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
)

type CheckoutResult struct {
	Order *types.Order
	// Replayed is set when the idempotency key matched an earlier checkout.
	Replayed bool
}

type OrderQuery struct {
	UserID   uuid.UUID
	Statuses []string
	From     *time.Time
	To       *time.Time
	Query    string
	Limit    int
	Offset   int
}

type OrderPage struct {
	Orders []*types.Order `json:"orders"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type TransitionResult struct {
	Order      *types.Order
	FromStatus string
	Changed    bool
}

type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, idempotencyKey string) (*CheckoutResult, error)

	History(ctx context.Context, userID uuid.UUID, limit, offset int) (*OrderPage, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error)

	List(ctx context.Context, q OrderQuery) (*OrderPage, error)
	Get(ctx context.Context, orderID uuid.UUID) (*types.Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, to string) (*TransitionResult, error)
}

type orderService struct {
	log         *logger.Logger
	orders      repos.OrderRepo
	orderItems  repos.OrderItemRepo
	agg         domainagg.OrderAggregate
	tax         TaxService
	idempotency IdempotencyStore
	notifier    events.Notifier
	metrics     *observability.Metrics
}

type OrderServiceDeps struct {
	Log         *logger.Logger
	Orders      repos.OrderRepo
	OrderItems  repos.OrderItemRepo
	Aggregate   domainagg.OrderAggregate
	Tax         TaxService
	Idempotency IdempotencyStore
	Notifier    events.Notifier
	Metrics     *observability.Metrics
}

func NewOrderService(deps OrderServiceDeps) OrderService {
	if deps.Idempotency == nil {
		deps.Idempotency = NewMemoryIdempotencyStore(DefaultIdempotencyTTL)
	}
	if deps.Notifier == nil {
		deps.Notifier = events.NewNotifier(deps.Log, events.NewNoopPublisher(), deps.Metrics, 0)
	}
	return &orderService{
		log:         deps.Log.With("service", "OrderService"),
		orders:      deps.Orders,
		orderItems:  deps.OrderItems,
		agg:         deps.Aggregate,
		tax:         deps.Tax,
		idempotency: deps.Idempotency,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
	}
}

// Checkout captures the current tax rate and hands the cart to the order
// aggregate. With an idempotency key a repeated request returns the order the
// first one produced.
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID, idempotencyKey string) (*CheckoutResult, error) {
	const op = "Commerce.Order.Checkout"
	if userID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	key, hasKey := NormalizeIdempotencyKey(idempotencyKey)
	if hasKey {
		if replay, err := s.replay(ctx, userID, key); err != nil || replay != nil {
			return replay, err
		}
	}

	policy, err := s.tax.Current(ctx)
	if err != nil {
		s.metrics.ObserveCheckout("error", 0)
		return nil, err
	}
	res, err := s.agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: policy.TaxRate})
	if err != nil {
		// a concurrent request with the same key may have emptied the cart
		if hasKey && domainagg.IsReason(err, domainagg.ReasonEmptyCart) {
			if replay, rerr := s.replay(ctx, userID, key); rerr == nil && replay != nil {
				return replay, nil
			}
		}
		s.metrics.ObserveCheckout(outcomeOf(err), 0)
		return nil, err
	}

	// The order is committed from here on; nothing below may fail the checkout.
	if hasKey {
		if err := s.idempotency.Remember(ctx, userID, key, res.OrderID); err != nil {
			s.log.Warn("idempotency key not stored", "order_id", res.OrderID, "error", err)
		}
	}
	order, err := s.orders.GetWithItems(dbctx.Context{Ctx: ctx}, res.OrderID)
	if err != nil || order == nil {
		s.log.Warn("re-read of placed order failed, using aggregate snapshot", "order_id", res.OrderID, "error", err)
		order = res.Order
	}
	if order == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "placed order unavailable", nil)
	}
	total, _ := order.TotalAmount.Float64()
	s.metrics.ObserveCheckout("placed", total)
	s.notifier.OrderCreated(order)
	s.log.Info("order placed", "order_id", order.ID, "order_number", order.OrderNumber, "user_id", userID, "items", order.ItemCount)
	return &CheckoutResult{Order: order}, nil
}

func (s *orderService) replay(ctx context.Context, userID uuid.UUID, key string) (*CheckoutResult, error) {
	orderID, ok, err := s.idempotency.Lookup(ctx, userID, key)
	if err != nil {
		s.log.Warn("idempotency lookup failed", "error", err)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	order, err := s.orders.GetWithItems(dbctx.Context{Ctx: ctx}, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, nil
	}
	s.metrics.ObserveCheckout("replayed", 0)
	return &CheckoutResult{Order: order, Replayed: true}, nil
}

func (s *orderService) History(ctx context.Context, userID uuid.UUID, limit, offset int) (*OrderPage, error) {
	const op = "Commerce.Order.History"
	if userID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	return s.List(ctx, OrderQuery{UserID: userID, Limit: limit, Offset: offset})
}

func (s *orderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error) {
	const op = "Commerce.Order.GetForUser"
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("order not found: %s", orderID), nil)
	}
	return o, nil
}

func (s *orderService) List(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	const op = "Commerce.Order.List"
	f := repos.OrderFilter{
		UserID: q.UserID,
		From:   q.From,
		To:     q.To,
		Query:  strings.TrimSpace(q.Query),
		Offset: max(q.Offset, 0),
	}
	for _, st := range q.Statuses {
		st = orders.NormalizeStatus(st)
		if st == "" {
			continue
		}
		if !orders.IsKnownStatus(st) {
			return nil, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidTransition, op, "status", fmt.Sprintf("unknown order status %q", st))
		}
		f.Statuses = append(f.Statuses, st)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "to must not be before from", nil)
	}
	switch {
	case q.Limit <= 0:
		f.Limit = defaultOrderPageSize
	case q.Limit > maxOrderPageSize:
		f.Limit = maxOrderPageSize
	default:
		f.Limit = q.Limit
	}

	dbc := dbctx.Context{Ctx: ctx}
	rows, total, err := s.orders.List(dbc, f)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(dbc, rows); err != nil {
		return nil, err
	}
	return &OrderPage{Orders: rows, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *orderService) attachItems(dbc dbctx.Context, rows []*types.Order) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	byID := make(map[uuid.UUID]*types.Order, len(rows))
	for _, o := range rows {
		ids = append(ids, o.ID)
		byID[o.ID] = o
		o.Items = []types.OrderItem{}
	}
	items, err := s.orderItems.ListByOrderIDs(dbc, ids)
	if err != nil {
		return err
	}
	for _, it := range items {
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, *it)
		}
	}
	return nil
}

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*types.Order, error) {
	const op = "Commerce.Order.Get"
	o, err := s.orders.GetWithItems(dbctx.Context{Ctx: ctx}, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("order not found: %s", orderID), nil)
	}
	return o, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, to string) (*TransitionResult, error) {
	res, err := s.agg.TransitionStatus(ctx, domainagg.TransitionOrderStatusInput{OrderID: orderID, ToStatus: to})
	if err != nil {
		return nil, err
	}
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if res.Changed {
		s.metrics.IncOrderTransition(res.FromStatus, res.Status)
		s.notifier.OrderStatusChanged(o, res.FromStatus)
		s.log.Info("order status changed", "order_id", o.ID, "from", res.FromStatus, "to", res.Status)
	}
	return &TransitionResult{Order: o, FromStatus: res.FromStatus, Changed: res.Changed}, nil
}
