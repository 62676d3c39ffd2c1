package aggregates_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yungbote/boostcart-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/boostcart-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/boostcart-backend/internal/data/repos"
	repotest "github.com/yungbote/boostcart-backend/internal/data/repos/testutil"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
	"github.com/yungbote/boostcart-backend/internal/domain/orders"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/ordernumber"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/pricing"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

type orderFixture struct {
	ctx   context.Context
	db    *gorm.DB
	hooks *aggtest.HooksRecorder
	agg   domainagg.OrderAggregate

	carts     repos.CartRepo
	cartItems repos.CartItemRepo
	orders    repos.OrderRepo
}

func newOrderFixture(t *testing.T, db *gorm.DB, runner aggregates.TxRunner) *orderFixture {
	t.Helper()
	log := repotest.Logger(t)
	f := &orderFixture{
		ctx:       context.Background(),
		db:        db,
		hooks:     &aggtest.HooksRecorder{},
		carts:     repos.NewCartRepo(db, log),
		cartItems: repos.NewCartItemRepo(db, log),
		orders:    repos.NewOrderRepo(db, log),
	}
	if runner == nil {
		runner = aggregates.NewGormTxRunner(db)
	}
	f.agg = aggregates.NewOrderAggregate(aggregates.OrderAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:       db,
			Log:      log,
			Runner:   runner,
			Hooks:    f.hooks,
			CASGuard: aggregates.NewCASGuard(db),
		},
		Carts:        f.carts,
		CartItems:    f.cartItems,
		Products:     repos.NewProductRepo(db, log),
		Orders:       f.orders,
		OrderItems:   repos.NewOrderItemRepo(db, log),
		OrderNumbers: ordernumber.MustSnowflake(3),
	})
	return f
}

func (f *orderFixture) dbc() dbctx.Context {
	return dbctx.Context{Ctx: f.ctx, Tx: f.db}
}

func (f *orderFixture) cartCount(t *testing.T, cartID uuid.UUID) int64 {
	t.Helper()
	n, err := f.cartItems.CountByCartID(f.dbc(), cartID)
	if err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	return n
}

func (f *orderFixture) orderCount(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	_, total, err := f.orders.List(f.dbc(), repos.OrderFilter{UserID: userID})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	return total
}

func TestPlaceOrderSnapshotsCartAndClearsIt(t *testing.T) {
	tx := repotest.Tx(t, repotest.DB(t))
	f := newOrderFixture(t, tx, nil)
	userID := uuid.New()

	followers := repotest.SeedProduct(t, f.ctx, tx, "Followers pack", repotest.WithPrice("100.00"))
	likes := repotest.SeedProduct(t, f.ctx, tx, "Likes pack",
		repotest.WithPrice("50.00"), repotest.WithSubCategory(catalog.SubCategoryLikes))
	cart := repotest.SeedCart(t, f.ctx, tx, userID)
	repotest.SeedCartItem(t, f.ctx, tx, cart.ID, followers.ID, 2, `{"username":"  alice  "}`)
	repotest.SeedCartItem(t, f.ctx, tx, cart.ID, likes.ID, 1, `{"postCount":2,"links":["a"," b "]}`)

	placedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{
		UserID:   userID,
		TaxRate:  decimal.RequireFromString("0.18"),
		PlacedAt: placedAt,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.ItemCount != 2 || !ordernumber.Valid(res.OrderNumber) {
		t.Fatalf("unexpected result: %+v", res)
	}

	o, err := f.orders.GetWithItems(f.dbc(), res.OrderID)
	if err != nil || o == nil {
		t.Fatalf("GetWithItems: %v %v", o, err)
	}
	if o.Status != orders.StatusPending || o.UserID != userID {
		t.Fatalf("unexpected order header: %+v", o)
	}
	if !o.Subtotal.Equal(decimal.RequireFromString("250")) ||
		!o.TaxAmount.Equal(decimal.RequireFromString("45")) ||
		!o.TotalAmount.Equal(decimal.RequireFromString("295")) {
		t.Fatalf("totals: subtotal=%s tax=%s total=%s", o.Subtotal, o.TaxAmount, o.TotalAmount)
	}
	if !o.TaxRate.Equal(decimal.RequireFromString("0.18")) {
		t.Fatalf("tax rate snapshot: %s", o.TaxRate)
	}
	if !o.CreatedAt.Equal(placedAt) {
		t.Fatalf("created_at: want=%s got=%s", placedAt, o.CreatedAt)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items: %d", len(o.Items))
	}
	first, second := o.Items[0], o.Items[1]
	if first.ProductName != "Followers pack" || first.Quantity != 2 || !first.LineTotal.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("first item: %+v", first)
	}
	var aux map[string]any
	if err := json.Unmarshal(first.AuxiliaryData, &aux); err != nil || aux["username"] != "alice" {
		t.Fatalf("first item aux not normalized: %s", string(first.AuxiliaryData))
	}
	var links struct {
		PostCount int      `json:"postCount"`
		Links     []string `json:"links"`
	}
	if err := json.Unmarshal(second.AuxiliaryData, &links); err != nil || links.PostCount != 2 || links.Links[1] != "b" {
		t.Fatalf("second item aux not normalized: %s", string(second.AuxiliaryData))
	}
	if second.SubCategory != string(catalog.SubCategoryLikes) {
		t.Fatalf("second item sub_category: %s", second.SubCategory)
	}

	if n := f.cartCount(t, cart.ID); n != 0 {
		t.Fatalf("cart should be empty after checkout, got %d items", n)
	}
	if got := f.hooks.Statuses("Commerce.Order.PlaceOrder"); len(got) != 1 || got[0] != "success" {
		t.Fatalf("hooks: %+v", got)
	}
}

func TestPlaceOrderKeepsSnapshotWhenCatalogChanges(t *testing.T) {
	tx := repotest.Tx(t, repotest.DB(t))
	f := newOrderFixture(t, tx, nil)
	userID := uuid.New()
	p := repotest.SeedProduct(t, f.ctx, tx, "Views", repotest.WithPrice("12.34"), repotest.WithSubCategory(catalog.SubCategoryViews))
	cart := repotest.SeedCart(t, f.ctx, tx, userID)
	repotest.SeedCartItem(t, f.ctx, tx, cart.ID, p.ID, 3, `{"postCount":1,"links":["https://example.com/p/1"]}`)

	res, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: decimal.RequireFromString("0.075")})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if err := tx.Model(&types.Product{}).Where("id = ?", p.ID).Updates(map[string]any{"price": "99.99", "name": "Renamed"}).Error; err != nil {
		t.Fatalf("edit product: %v", err)
	}
	o, err := f.orders.GetWithItems(f.dbc(), res.OrderID)
	if err != nil {
		t.Fatalf("GetWithItems: %v", err)
	}
	if o.Items[0].ProductName != "Views" || !o.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.34")) {
		t.Fatalf("snapshot changed: %+v", o.Items[0])
	}
	// 37.02 * 0.075 = 2.7765
	if !o.Subtotal.Equal(decimal.RequireFromString("37.02")) || !o.TaxAmount.Equal(decimal.RequireFromString("2.78")) ||
		!o.TotalAmount.Equal(decimal.RequireFromString("39.8")) {
		t.Fatalf("totals: %s %s %s", o.Subtotal, o.TaxAmount, o.TotalAmount)
	}

	// the stored snapshot alone reproduces the stored totals
	again := pricing.ComputeTotals(pricing.LinesOf(o.Items,
		func(it types.OrderItem) decimal.Decimal { return it.UnitPrice },
		func(it types.OrderItem) int { return it.Quantity },
	), o.TaxRate)
	if !again.Total.Equal(o.TotalAmount) || !again.Subtotal.Equal(o.Subtotal) || !again.Tax.Equal(o.TaxAmount) {
		t.Fatalf("recomputed %+v from snapshot, stored total %s", again, o.TotalAmount)
	}
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	tx := repotest.Tx(t, repotest.DB(t))
	f := newOrderFixture(t, tx, nil)

	// no cart row at all
	_, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: uuid.New(), TaxRate: decimal.Zero})
	if !domainagg.IsReason(err, domainagg.ReasonEmptyCart) {
		t.Fatalf("expected empty_cart, got %v", err)
	}

	// cart row without items
	userID := uuid.New()
	repotest.SeedCart(t, f.ctx, tx, userID)
	_, err = f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: decimal.Zero})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) || !domainagg.IsReason(err, domainagg.ReasonEmptyCart) {
		t.Fatalf("expected invariant_violation/empty_cart, got %v", err)
	}
	if f.orderCount(t, userID) != 0 {
		t.Fatalf("no order should be written")
	}
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	tx := repotest.Tx(t, repotest.DB(t))
	f := newOrderFixture(t, tx, nil)

	if _, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{TaxRate: decimal.Zero}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation for missing user, got %v", err)
	}
	_, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: uuid.New(), TaxRate: decimal.RequireFromString("1.5")})
	if !domainagg.IsReason(err, domainagg.ReasonInvalidTaxRate) {
		t.Fatalf("expected invalid_tax_rate, got %v", err)
	}
	if len(f.hooks.Operations) != 0 {
		t.Fatalf("input validation must run before the transaction: %+v", f.hooks.Operations)
	}
}

func TestPlaceOrderRejectsStaleReferences(t *testing.T) {
	tx := repotest.Tx(t, repotest.DB(t))
	f := newOrderFixture(t, tx, nil)

	t.Run("inactive product", func(t *testing.T) {
		userID := uuid.New()
		p := repotest.SeedProduct(t, f.ctx, tx, "Paused", repotest.Inactive())
		cart := repotest.SeedCart(t, f.ctx, tx, userID)
		item := repotest.SeedCartItem(t, f.ctx, tx, cart.ID, p.ID, 1, `{"username":"bob"}`)

		_, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: decimal.Zero})
		if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) || !domainagg.IsReason(err, domainagg.ReasonStaleReference) {
			t.Fatalf("expected precondition_failed/stale_reference, got %v", err)
		}
		var aggErr *domainagg.Error
		if !errors.As(err, &aggErr) || !strings.Contains(aggErr.Message, item.ID.String()) {
			t.Fatalf("error should name the offending item: %v", err)
		}
		if f.cartCount(t, cart.ID) != 1 {
			t.Fatalf("cart must be left intact")
		}
	})

	t.Run("missing product", func(t *testing.T) {
		userID := uuid.New()
		p := repotest.SeedProduct(t, f.ctx, tx, "Gone")
		cart := repotest.SeedCart(t, f.ctx, tx, userID)
		repotest.SeedCartItem(t, f.ctx, tx, cart.ID, p.ID, 1, `{"username":"bob"}`)
		if err := tx.Where("id = ?", p.ID).Delete(&types.Product{}).Error; err != nil {
			t.Fatalf("delete product: %v", err)
		}

		_, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: decimal.Zero})
		if !domainagg.IsReason(err, domainagg.ReasonStaleReference) {
			t.Fatalf("expected stale_reference, got %v", err)
		}
		if f.orderCount(t, userID) != 0 {
			t.Fatalf("no order should be written")
		}
	})
}

func TestPlaceOrderRevalidatesAgainstCurrentRules(t *testing.T) {
	tx := repotest.Tx(t, repotest.DB(t))
	f := newOrderFixture(t, tx, nil)
	userID := uuid.New()
	ok := repotest.SeedProduct(t, f.ctx, tx, "Fine")
	tightened := repotest.SeedProduct(t, f.ctx, tx, "Tightened")
	cart := repotest.SeedCart(t, f.ctx, tx, userID)
	repotest.SeedCartItem(t, f.ctx, tx, cart.ID, ok.ID, 1, `{"username":"carol"}`)
	repotest.SeedCartItem(t, f.ctx, tx, cart.ID, tightened.ID, 2, `{"username":"carol"}`)
	if err := tx.Model(&types.Product{}).Where("id = ?", tightened.ID).Update("min_quantity", 5).Error; err != nil {
		t.Fatalf("tighten bounds: %v", err)
	}

	_, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: decimal.Zero})
	if !domainagg.IsReason(err, domainagg.ReasonQuantityOutOfRange) {
		t.Fatalf("expected quantity_out_of_range, got %v", err)
	}
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) || aggErr.Op != "Commerce.Order.PlaceOrder" || aggErr.Field != "quantity" {
		t.Fatalf("unexpected error shape: %+v", aggErr)
	}
	if f.cartCount(t, cart.ID) != 2 || f.orderCount(t, userID) != 0 {
		t.Fatalf("failed checkout must not touch cart or orders")
	}
}

func TestPlaceOrderRollsBackOnCommitFailure(t *testing.T) {
	tx := repotest.Tx(t, repotest.DB(t))
	commitErr := errors.New("commit failed")
	runner := &aggtest.InjectedTxRunner{Inner: aggregates.NewGormTxRunner(tx), FailCommit: commitErr}
	f := newOrderFixture(t, tx, runner)
	userID := uuid.New()
	p := repotest.SeedProduct(t, f.ctx, tx, "Followers")
	cart := repotest.SeedCart(t, f.ctx, tx, userID)
	repotest.SeedCartItem(t, f.ctx, tx, cart.ID, p.ID, 10, `{"username":"dave"}`)

	_, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: decimal.Zero})
	if !errors.Is(err, commitErr) || !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected wrapped commit failure, got %v", err)
	}
	if runner.RollbackCalls != 1 {
		t.Fatalf("rollbacks: %d", runner.RollbackCalls)
	}
	if f.cartCount(t, cart.ID) != 1 {
		t.Fatalf("cart items must survive a rolled back checkout")
	}
	if f.orderCount(t, userID) != 0 {
		t.Fatalf("order must not survive a rolled back checkout")
	}
	var items int64
	if err := tx.Model(&types.OrderItem{}).Count(&items).Error; err != nil || items != 0 {
		t.Fatalf("order items must not survive: %d %v", items, err)
	}
}

func TestPlaceOrderConcurrentCheckoutPlacesOneOrder(t *testing.T) {
	db := repotest.DB(t)
	f := newOrderFixture(t, db, nil)
	userID := uuid.New()
	p := repotest.SeedProduct(t, f.ctx, db, "Followers")
	cart := repotest.SeedCart(t, f.ctx, db, userID)
	repotest.SeedCartItem(t, f.ctx, db, cart.ID, p.ID, 5, `{"username":"erin"}`)

	const attempts = 4
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed int
		empty  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: decimal.RequireFromString("0.1")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case domainagg.IsReason(err, domainagg.ReasonEmptyCart):
				empty++
			default:
				t.Errorf("unexpected checkout error: %v", err)
			}
		}()
	}
	wg.Wait()
	if placed != 1 || empty != attempts-1 {
		t.Fatalf("placed=%d empty=%d", placed, empty)
	}
	if f.orderCount(t, userID) != 1 {
		t.Fatalf("exactly one order expected")
	}
}

// Needs real row locks, so it only runs against Postgres.
func TestPlaceOrderRacingProductDeleteKeepsOrderedProducts(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db := repotest.DB(t)
	f := newOrderFixture(t, db, nil)
	products, _, _ := newProductAggregate(t, db)
	productRepo := repos.NewProductRepo(db, repotest.Logger(t))
	orderItems := repos.NewOrderItemRepo(db, repotest.Logger(t))

	for i := 0; i < 20; i++ {
		userID := uuid.New()
		p := repotest.SeedProduct(t, f.ctx, db, "Raced")
		cart := repotest.SeedCart(t, f.ctx, db, userID)
		repotest.SeedCartItem(t, f.ctx, db, cart.ID, p.ID, 1, `{"username":"gail"}`)

		var (
			wg        sync.WaitGroup
			placeErr  error
			deleteRes domainagg.DeleteProductResult
			deleteErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, placeErr = f.agg.PlaceOrder(f.ctx, domainagg.PlaceOrderInput{UserID: userID, TaxRate: decimal.Zero})
		}()
		go func() {
			defer wg.Done()
			deleteRes, deleteErr = products.DeleteOrDeactivate(f.ctx, domainagg.DeleteProductInput{ProductID: p.ID})
		}()
		wg.Wait()

		if deleteErr != nil {
			t.Fatalf("round %d: delete: %v", i, deleteErr)
		}
		ordered, err := orderItems.CountByProductID(f.dbc(), p.ID)
		if err != nil {
			t.Fatalf("count order items: %v", err)
		}
		row, err := productRepo.GetByID(f.dbc(), p.ID)
		if err != nil {
			t.Fatalf("get product: %v", err)
		}
		switch {
		case placeErr == nil:
			if ordered != 1 || row == nil || deleteRes.Outcome != domainagg.DeleteOutcomeDeactivated {
				t.Fatalf("round %d: order placed but product outcome=%s present=%v", i, deleteRes.Outcome, row != nil)
			}
		case domainagg.IsReason(placeErr, domainagg.ReasonStaleReference), domainagg.IsReason(placeErr, domainagg.ReasonEmptyCart):
			if ordered != 0 || row != nil || deleteRes.Outcome != domainagg.DeleteOutcomeDeleted {
				t.Fatalf("round %d: checkout lost but product outcome=%s present=%v", i, deleteRes.Outcome, row != nil)
			}
		default:
			t.Fatalf("round %d: unexpected checkout error: %v", i, placeErr)
		}
	}
}
