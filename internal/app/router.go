package app

import (
	"github.com/yungbote/boostcart-backend/internal/http"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

func routerConfig(log *logger.Logger, cfg Config, otel observability.OtelConfig, metrics *observability.Metrics, handlers Handlers, middleware Middleware) http.RouterConfig {
	return http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     otel.ServiceName,
		TracingEnabled:  otel.Enabled,
		CORSOrigins:     cfg.CORSOrigins,
		AuthMiddleware:  middleware.Auth,
		CheckoutLimiter: middleware.CheckoutLimiter,
		HealthHandler:   handlers.Health,
		ProductHandler:  handlers.Product,
		TaxHandler:      handlers.Tax,
		CartHandler:     handlers.Cart,
		OrderHandler:    handlers.Order,
	}
}
