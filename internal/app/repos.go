package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/boostcart-backend/internal/data/repos"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type Repos struct {
	Product   repos.ProductRepo
	TaxPolicy repos.TaxPolicyRepo
	Cart      repos.CartRepo
	CartItem  repos.CartItemRepo
	Order     repos.OrderRepo
	OrderItem repos.OrderItemRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Product:   repos.NewProductRepo(db, log),
		TaxPolicy: repos.NewTaxPolicyRepo(db, log),
		Cart:      repos.NewCartRepo(db, log),
		CartItem:  repos.NewCartItemRepo(db, log),
		Order:     repos.NewOrderRepo(db, log),
		OrderItem: repos.NewOrderItemRepo(db, log),
	}
}
