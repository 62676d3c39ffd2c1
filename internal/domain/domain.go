package domain

import (
	"github.com/yungbote/boostcart-backend/internal/domain/cart"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
	"github.com/yungbote/boostcart-backend/internal/domain/orders"
)

type Product = catalog.Product
type TaxPolicy = catalog.TaxPolicy
type Category = catalog.Category
type SubCategory = catalog.SubCategory

type Cart = cart.Cart
type CartItem = cart.CartItem

type Order = orders.Order
type OrderItem = orders.OrderItem

const TaxPolicyID = catalog.TaxPolicyID

const (
	OrderStatusPending    = orders.StatusPending
	OrderStatusProcessing = orders.StatusProcessing
	OrderStatusCompleted  = orders.StatusCompleted
	OrderStatusCancelled  = orders.StatusCancelled
)

// Models lists every persisted table, in creation order.
func Models() []any {
	return []any{
		&catalog.Product{},
		&catalog.TaxPolicy{},
		&cart.Cart{},
		&cart.CartItem{},
		&orders.Order{},
		&orders.OrderItem{},
	}
}
