package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
	"github.com/yungbote/boostcart-backend/internal/domain/orders"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProductOpt func(*types.Product)

func WithSubCategory(sc catalog.SubCategory) ProductOpt {
	return func(p *types.Product) { p.SubCategory = sc }
}

func WithPrice(price string) ProductOpt {
	return func(p *types.Product) { p.Price = decimal.RequireFromString(price) }
}

func WithBounds(min, max int) ProductOpt {
	return func(p *types.Product) { p.MinQuantity, p.MaxQuantity = min, max }
}

func Inactive() ProductOpt {
	return func(p *types.Product) { p.Active = false }
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, opts ...ProductOpt) *types.Product {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.Product{
		ID:          uuid.New(),
		Name:        name,
		Price:       decimal.RequireFromString("10.00"),
		Category:    catalog.CategoryPlatformA,
		SubCategory: catalog.SubCategoryFollowers,
		MinQuantity: 1,
		MaxQuantity: 1000,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedCart(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Cart {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Cart{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed cart: %v", err)
	}
	return c
}

func SeedCartItem(tb testing.TB, ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID, qty int, aux string) *types.CartItem {
	tb.Helper()
	now := time.Now().UTC()
	var pos int64
	tx.WithContext(ctx).Model(&types.CartItem{}).Where("cart_id = ?", cartID).Count(&pos)
	it := &types.CartItem{
		ID:            uuid.New(),
		CartID:        cartID,
		ProductID:     productID,
		Quantity:      qty,
		AuxiliaryData: datatypes.JSON([]byte(aux)),
		Position:      int(pos),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(it).Error; err != nil {
		tb.Fatalf("seed cart item: %v", err)
	}
	return it
}

// SeedOrder writes a pending order with one item per product at the product's current price.
func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, products ...*types.Product) *types.Order {
	tb.Helper()
	now := time.Now().UTC()
	o := &types.Order{
		ID:              uuid.New(),
		OrderNumber:     uuid.NewString()[:12],
		UserID:          userID,
		Status:          orders.StatusPending,
		Subtotal:        decimal.Zero,
		TaxRate:         decimal.Zero,
		TaxAmount:       decimal.Zero,
		TotalAmount:     decimal.Zero,
		ItemCount:       len(products),
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusChangedAt: now,
	}
	items := make([]types.OrderItem, 0, len(products))
	for i, p := range products {
		line := p.Price.Round(2)
		o.Subtotal = o.Subtotal.Add(line)
		items = append(items, types.OrderItem{
			ID:            uuid.New(),
			OrderID:       o.ID,
			ProductID:     p.ID,
			ProductName:   p.Name,
			Category:      string(p.Category),
			SubCategory:   string(p.SubCategory),
			UnitPrice:     p.Price,
			Quantity:      1,
			LineTotal:     line,
			AuxiliaryData: datatypes.JSON([]byte(`{"username":"seed"}`)),
			Position:      i,
		})
	}
	o.TotalAmount = o.Subtotal
	if err := tx.WithContext(ctx).Omit("Items").Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	if len(items) > 0 {
		if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
			tb.Fatalf("seed order items: %v", err)
		}
	}
	o.Items = items
	return o
}
