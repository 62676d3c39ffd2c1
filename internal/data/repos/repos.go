package repos

import (
	"github.com/yungbote/boostcart-backend/internal/data/repos/cart"
	"github.com/yungbote/boostcart-backend/internal/data/repos/catalog"
	"github.com/yungbote/boostcart-backend/internal/data/repos/orders"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ProductRepo = catalog.ProductRepo
type ProductFilter = catalog.ProductFilter
type TaxPolicyRepo = catalog.TaxPolicyRepo

type CartRepo = cart.CartRepo
type CartItemRepo = cart.CartItemRepo

type OrderRepo = orders.OrderRepo
type OrderFilter = orders.OrderFilter
type OrderItemRepo = orders.OrderItemRepo

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return catalog.NewProductRepo(db, baseLog)
}

func NewTaxPolicyRepo(db *gorm.DB, baseLog *logger.Logger) TaxPolicyRepo {
	return catalog.NewTaxPolicyRepo(db, baseLog)
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo {
	return cart.NewCartRepo(db, baseLog)
}

func NewCartItemRepo(db *gorm.DB, baseLog *logger.Logger) CartItemRepo {
	return cart.NewCartItemRepo(db, baseLog)
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return orders.NewOrderRepo(db, baseLog)
}

func NewOrderItemRepo(db *gorm.DB, baseLog *logger.Logger) OrderItemRepo {
	return orders.NewOrderItemRepo(db, baseLog)
}
