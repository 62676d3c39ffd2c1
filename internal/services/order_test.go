package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/boostcart-backend/internal/data/repos"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/orders"
	"github.com/yungbote/boostcart-backend/internal/events"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/ordernumber"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
)

func (h *harness) fillCart(t *testing.T, user uuid.UUID) {
	t.Helper()
	h.add(t, user, h.followers(t, "100.00"), 2, followerAux)
	h.add(t, user, h.likes(t, "50.00"), 1, likesAux)
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	h.fillCart(t, user)

	res, err := h.orders.Checkout(h.ctx, user, "")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	o := res.Order
	if res.Replayed || o.Status != orders.StatusPending || !ordernumber.Valid(o.OrderNumber) {
		t.Fatalf("unexpected order: %+v", o)
	}
	if !o.Subtotal.Equal(dec("250")) || !o.TaxAmount.Equal(dec("45")) || !o.TotalAmount.Equal(dec("295")) || !o.TaxRate.Equal(dec("0.18")) {
		t.Fatalf("totals: sub=%s tax=%s total=%s", o.Subtotal, o.TaxAmount, o.TotalAmount)
	}
	if len(o.Items) != 2 || o.ItemCount != 2 {
		t.Fatalf("items: %d/%d", len(o.Items), o.ItemCount)
	}
	if n, _ := h.cart.Count(h.ctx, user); n != 0 {
		t.Fatalf("cart should be empty after checkout, got %d", n)
	}
	if len(h.notifier.events) != 1 || h.notifier.events[0].Type != events.EventOrderCreated || h.notifier.events[0].OrderID != o.ID {
		t.Fatalf("notifications: %+v", h.notifier.events)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	h := newHarness(t)
	_, err := h.orders.Checkout(h.ctx, uuid.New(), "")
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) || !domainagg.IsReason(err, domainagg.ReasonEmptyCart) {
		t.Fatalf("want invariant_violation/empty_cart, got %v", err)
	}
	if len(h.notifier.events) != 0 {
		t.Fatalf("no notification expected: %+v", h.notifier.events)
	}
}

func TestCheckoutBlockedByInactiveProduct(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	p := h.followers(t, "10.00")
	h.add(t, user, p, 1, followerAux)
	if _, err := h.catalog.SetActive(h.ctx, p.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := h.orders.Checkout(h.ctx, user, "")
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) || !domainagg.IsReason(err, domainagg.ReasonStaleReference) {
		t.Fatalf("want precondition_failed/stale_reference, got %v", err)
	}
	if n, _ := h.cart.Count(h.ctx, user); n != 1 {
		t.Fatalf("blocked checkout must leave the cart alone, got %d", n)
	}
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	h.fillCart(t, user)

	first, err := h.orders.Checkout(h.ctx, user, "checkout-1")
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	second, err := h.orders.Checkout(h.ctx, user, " checkout-1 ")
	if err != nil {
		t.Fatalf("replayed checkout: %v", err)
	}
	if !second.Replayed || second.Order.ID != first.Order.ID {
		t.Fatalf("expected replay of %s, got %+v", first.Order.ID, second)
	}
	page, err := h.orders.History(h.ctx, user, 0, 0)
	if err != nil || page.Total != 1 {
		t.Fatalf("History: %+v %v", page, err)
	}
	if len(h.notifier.events) != 1 {
		t.Fatalf("replay must not notify again: %+v", h.notifier.events)
	}

	// keys are scoped per user
	if _, err := h.orders.Checkout(h.ctx, uuid.New(), "checkout-1"); !domainagg.IsReason(err, domainagg.ReasonEmptyCart) {
		t.Fatalf("other user with same key: want empty_cart, got %v", err)
	}
}

func TestCheckoutConcurrentSameKey(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	h.fillCart(t, user)

	const n = 4
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := h.orders.Checkout(h.ctx, user, "double-click")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = res.Order.ID
		}(i)
	}
	wg.Wait()

	var placed uuid.UUID
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			if !domainagg.IsReason(errs[i], domainagg.ReasonEmptyCart) {
				t.Fatalf("unexpected error: %v", errs[i])
			}
			continue
		}
		if placed != uuid.Nil && ids[i] != placed {
			t.Fatalf("two different orders placed: %s and %s", placed, ids[i])
		}
		placed = ids[i]
	}
	if placed == uuid.Nil {
		t.Fatalf("no checkout succeeded: %v", errs)
	}
	page, _ := h.orders.History(h.ctx, user, 0, 0)
	if page.Total != 1 {
		t.Fatalf("expected exactly one order, got %d", page.Total)
	}
}

// unreadableOrders fails every read-back of a single order.
type unreadableOrders struct {
	repos.OrderRepo
}

func (unreadableOrders) GetWithItems(dbctx.Context, uuid.UUID) (*types.Order, error) {
	return nil, errors.New("connection reset")
}

func TestCheckoutSurvivesFailedReadBack(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	h.fillCart(t, user)

	flaky := h.orderService(t, unreadableOrders{OrderRepo: h.orderRepo})
	res, err := flaky.Checkout(h.ctx, user, "k1")
	if err != nil {
		t.Fatalf("committed checkout must not fail: %v", err)
	}
	o := res.Order
	if res.Replayed || o == nil || !ordernumber.Valid(o.OrderNumber) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(o.Items) != 2 || !o.TotalAmount.Equal(dec("295")) || o.Status != orders.StatusPending {
		t.Fatalf("snapshot order: items=%d total=%s status=%s", len(o.Items), o.TotalAmount, o.Status)
	}
	if len(h.notifier.events) != 1 || h.notifier.events[0].Type != events.EventOrderCreated || h.notifier.events[0].OrderID != o.ID {
		t.Fatalf("order.created must still be emitted: %+v", h.notifier.events)
	}
	if n, _ := h.cart.Count(h.ctx, user); n != 0 {
		t.Fatalf("cart should be empty, got %d", n)
	}

	// the key was stored, so a retry replays instead of hitting the empty cart
	again, err := h.orders.Checkout(h.ctx, user, "k1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !again.Replayed || again.Order.ID != o.ID {
		t.Fatalf("expected replay of %s, got %+v", o.ID, again)
	}
}

func TestOrderSurvivesTaxAndCatalogChanges(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	p := h.followers(t, "100.00")
	h.add(t, user, p, 1, followerAux)
	res, err := h.orders.Checkout(h.ctx, user, "")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if _, err := h.tax.Set(h.ctx, dec("0.25")); err != nil {
		t.Fatalf("Set tax: %v", err)
	}
	if _, err := h.catalog.Update(h.ctx, p.ID, ProductInput{Name: ptr("Renamed"), Price: ptr(dec("1.00"))}); err != nil {
		t.Fatalf("Update product: %v", err)
	}

	o, err := h.orders.GetForUser(h.ctx, user, res.Order.ID)
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	if !o.TaxRate.Equal(dec("0.18")) || !o.TotalAmount.Equal(dec("118")) {
		t.Fatalf("order totals changed: rate=%s total=%s", o.TaxRate, o.TotalAmount)
	}
	if o.Items[0].ProductName != p.Name || !o.Items[0].UnitPrice.Equal(dec("100")) {
		t.Fatalf("snapshot changed: %+v", o.Items[0])
	}
}

func TestOrderVisibilityIsPerUser(t *testing.T) {
	h := newHarness(t)
	alice, bob := uuid.New(), uuid.New()
	h.fillCart(t, alice)
	res, err := h.orders.Checkout(h.ctx, alice, "")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if _, err := h.orders.GetForUser(h.ctx, bob, res.Order.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("bob reading alice's order: want not_found, got %v", err)
	}
	page, err := h.orders.History(h.ctx, bob, 0, 0)
	if err != nil || page.Total != 0 || len(page.Orders) != 0 {
		t.Fatalf("bob's history: %+v %v", page, err)
	}
	if _, err := h.orders.History(h.ctx, uuid.Nil, 0, 0); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("missing user: want validation, got %v", err)
	}
}

func TestAdminOrderList(t *testing.T) {
	h := newHarness(t)
	alice, bob := uuid.New(), uuid.New()

	h.fillCart(t, alice)
	first, err := h.orders.Checkout(h.ctx, alice, "")
	if err != nil {
		t.Fatalf("Checkout alice: %v", err)
	}
	h.add(t, bob, h.likes(t, "7.00"), 1, likesAux)
	second, err := h.orders.Checkout(h.ctx, bob, "")
	if err != nil {
		t.Fatalf("Checkout bob: %v", err)
	}
	if _, err := h.orders.TransitionStatus(h.ctx, second.Order.ID, orders.StatusProcessing); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}

	all, err := h.orders.List(h.ctx, OrderQuery{})
	if err != nil || all.Total != 2 || all.Limit != defaultOrderPageSize {
		t.Fatalf("List all: %+v %v", all, err)
	}
	for _, o := range all.Orders {
		if len(o.Items) == 0 {
			t.Fatalf("list should carry items: %+v", o)
		}
	}

	byStatus, err := h.orders.List(h.ctx, OrderQuery{Statuses: []string{"Processing"}})
	if err != nil || byStatus.Total != 1 || byStatus.Orders[0].ID != second.Order.ID {
		t.Fatalf("List by status: %+v %v", byStatus, err)
	}

	byNumber, err := h.orders.List(h.ctx, OrderQuery{Query: strings.ToLower(first.Order.OrderNumber)})
	if err != nil || byNumber.Total != 1 || byNumber.Orders[0].ID != first.Order.ID {
		t.Fatalf("List by order number: %+v %v", byNumber, err)
	}

	byProduct, err := h.orders.List(h.ctx, OrderQuery{Query: "LIKES 7"})
	if err != nil || byProduct.Total != 1 || byProduct.Orders[0].ID != second.Order.ID {
		t.Fatalf("List by product name: %+v %v", byProduct, err)
	}

	future := time.Now().Add(time.Hour)
	window, err := h.orders.List(h.ctx, OrderQuery{From: &future})
	if err != nil || window.Total != 0 {
		t.Fatalf("List from future: %+v %v", window, err)
	}

	if _, err := h.orders.List(h.ctx, OrderQuery{Statuses: []string{"shipped"}}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("unknown status: want validation, got %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if _, err := h.orders.List(h.ctx, OrderQuery{From: &future, To: &past}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("inverted range: want validation, got %v", err)
	}
}

func TestTransitionStatusNotifies(t *testing.T) {
	h := newHarness(t)
	user := uuid.New()
	h.fillCart(t, user)
	res, err := h.orders.Checkout(h.ctx, user, "")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	id := res.Order.ID

	tr, err := h.orders.TransitionStatus(h.ctx, id, orders.StatusProcessing)
	if err != nil || !tr.Changed || tr.FromStatus != orders.StatusPending || tr.Order.Status != orders.StatusProcessing {
		t.Fatalf("to processing: %+v %v", tr, err)
	}
	if _, err := h.orders.TransitionStatus(h.ctx, id, orders.StatusCompleted); err != nil {
		t.Fatalf("to completed: %v", err)
	}
	tr, err = h.orders.TransitionStatus(h.ctx, id, orders.StatusCompleted)
	if err != nil || tr.Changed {
		t.Fatalf("repeat completed should be a no-op: %+v %v", tr, err)
	}
	if _, err := h.orders.TransitionStatus(h.ctx, id, orders.StatusPending); !domainagg.IsReason(err, domainagg.ReasonInvalidTransition) {
		t.Fatalf("completed -> pending: want invalid_transition, got %v", err)
	}

	got := h.notifier.events
	if len(got) != 3 {
		t.Fatalf("want created + 2 status changes, got %+v", got)
	}
	if got[1].Type != events.EventOrderStatusChanged || got[1].Previous != orders.StatusPending || got[2].Previous != orders.StatusProcessing {
		t.Fatalf("status notifications: %+v", got)
	}
}
