package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/boostcart-backend/internal/http/handlers"
	httpMW "github.com/yungbote/boostcart-backend/internal/http/middleware"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type Middleware struct {
	Auth            *httpMW.AuthMiddleware
	CheckoutLimiter *httpMW.UserRateLimiter
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Product *httpH.ProductHandler
	Tax     *httpH.TaxHandler
	Cart    *httpH.CartHandler
	Order   *httpH.OrderHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(db),
		Product: httpH.NewProductHandler(log, s.Catalog),
		Tax:     httpH.NewTaxHandler(log, s.Tax),
		Cart:    httpH.NewCartHandler(log, s.Cart),
		Order:   httpH.NewOrderHandler(log, s.Orders),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, metrics *observability.Metrics, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:            httpMW.NewAuthMiddleware(log, s.Auth),
		CheckoutLimiter: httpMW.NewUserRateLimiter(cfg.CheckoutRatePerMinute, cfg.CheckoutBurst, metrics),
	}
}
