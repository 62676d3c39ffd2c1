package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/boostcart-backend/internal/data/aggregates"
	"github.com/yungbote/boostcart-backend/internal/data/repos"
	repotest "github.com/yungbote/boostcart-backend/internal/data/repos/testutil"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
	"github.com/yungbote/boostcart-backend/internal/events"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/ordernumber"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
)

type recordedEvent struct {
	Type     string
	OrderID  uuid.UUID
	Previous string
}

// syncNotifier records notifications inline.
type syncNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *syncNotifier) OrderCreated(o *types.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Type: events.EventOrderCreated, OrderID: o.ID})
}

func (n *syncNotifier) OrderStatusChanged(o *types.Order, previous string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Type: events.EventOrderStatusChanged, OrderID: o.ID, Previous: previous})
}

func (n *syncNotifier) Wait(context.Context) error { return nil }

type harness struct {
	ctx context.Context
	db  *gorm.DB

	products   repos.ProductRepo
	cartItems  repos.CartItemRepo
	orderRepo  repos.OrderRepo
	orderItems repos.OrderItemRepo
	orderAgg   domainagg.OrderAggregate
	idem       IdempotencyStore

	tax      TaxService
	catalog  CatalogService
	cart     CartService
	orders   OrderService
	notifier *syncNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)

	products := repos.NewProductRepo(db, log)
	carts := repos.NewCartRepo(db, log)
	cartItems := repos.NewCartItemRepo(db, log)
	orderRepo := repos.NewOrderRepo(db, log)
	orderItems := repos.NewOrderItemRepo(db, log)

	base := aggregates.BaseDeps{DB: db, Log: log}
	productAgg := aggregates.NewProductAggregate(aggregates.ProductAggregateDeps{
		Base: base, Products: products, CartItems: cartItems, OrderItems: orderItems,
	})
	orderAgg := aggregates.NewOrderAggregate(aggregates.OrderAggregateDeps{
		Base: base, Carts: carts, CartItems: cartItems, Products: products,
		Orders: orderRepo, OrderItems: orderItems, OrderNumbers: ordernumber.MustSnowflake(9),
	})

	tax, err := NewTaxService(log, repos.NewTaxPolicyRepo(db, log), decimal.RequireFromString("0.18"))
	if err != nil {
		t.Fatalf("NewTaxService: %v", err)
	}
	h := &harness{
		ctx:        context.Background(),
		db:         db,
		products:   products,
		cartItems:  cartItems,
		orderRepo:  orderRepo,
		orderItems: orderItems,
		orderAgg:   orderAgg,
		idem:       NewMemoryIdempotencyStore(0),
		tax:        tax,
		notifier:   &syncNotifier{},
	}
	h.catalog = NewCatalogService(db, log, products, productAgg, nil)
	h.cart = NewCartService(db, log, carts, cartItems, products, tax, nil)
	h.orders = h.orderService(t, orderRepo)
	return h
}

// orderService builds an OrderService over the harness aggregate, store and
// notifier, reading orders back through the given repo.
func (h *harness) orderService(t *testing.T, orderRepo repos.OrderRepo) OrderService {
	t.Helper()
	return NewOrderService(OrderServiceDeps{
		Log:         repotest.Logger(t),
		Orders:      orderRepo,
		OrderItems:  h.orderItems,
		Aggregate:   h.orderAgg,
		Tax:         h.tax,
		Idempotency: h.idem,
		Notifier:    h.notifier,
	})
}

func (h *harness) product(t *testing.T, name string, opts ...repotest.ProductOpt) *types.Product {
	t.Helper()
	return repotest.SeedProduct(t, h.ctx, h.db, name, opts...)
}

func (h *harness) followers(t *testing.T, price string) *types.Product {
	t.Helper()
	return h.product(t, "Followers "+price, repotest.WithPrice(price))
}

func (h *harness) likes(t *testing.T, price string) *types.Product {
	t.Helper()
	return h.product(t, "Likes "+price, repotest.WithPrice(price), repotest.WithSubCategory(catalog.SubCategoryLikes))
}

func (h *harness) add(t *testing.T, userID uuid.UUID, p *types.Product, qty int, aux string) *CartView {
	t.Helper()
	view, err := h.cart.AddItem(h.ctx, userID, AddCartItemInput{ProductID: p.ID, Quantity: qty, AuxiliaryData: json.RawMessage(aux)})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return view
}

func (h *harness) dbc() dbctx.Context {
	return dbctx.Context{Ctx: h.ctx}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func asAggErr(err error, target **domainagg.Error) bool {
	return errors.As(err, target)
}
