package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/boostcart-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/events"
	"github.com/yungbote/boostcart-backend/internal/modules/commerce/ordernumber"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
	"github.com/yungbote/boostcart-backend/internal/services"
)

type Aggregates struct {
	Order   domainagg.OrderAggregate
	Product domainagg.ProductAggregate
}

type Services struct {
	Auth     services.AuthService
	Tax      services.TaxService
	Catalog  services.CatalogService
	Cart     services.CartService
	Orders   services.OrderService
	Notifier events.Notifier
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg Config, metrics *observability.Metrics, r Repos) (Aggregates, error) {
	log.Info("Wiring aggregates...")
	numbers, err := ordernumber.NewSnowflake(cfg.SnowflakeNode)
	if err != nil {
		return Aggregates{}, fmt.Errorf("order numbers: %w", err)
	}
	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	return Aggregates{
		Order: aggregates.NewOrderAggregate(aggregates.OrderAggregateDeps{
			Base:         base,
			Carts:        r.Cart,
			CartItems:    r.CartItem,
			Products:     r.Product,
			Orders:       r.Order,
			OrderItems:   r.OrderItem,
			OrderNumbers: numbers,
		}),
		Product: aggregates.NewProductAggregate(aggregates.ProductAggregateDeps{
			Base:       base,
			Products:   r.Product,
			CartItems:  r.CartItem,
			OrderItems: r.OrderItem,
		}),
	}, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, metrics *observability.Metrics, r Repos, aggs Aggregates) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, cfg.JWTSecretKey)
	if err != nil {
		return Services{}, err
	}
	tax, err := services.NewTaxService(log, r.TaxPolicy, cfg.TaxRate())
	if err != nil {
		return Services{}, err
	}

	idem := services.NewMemoryIdempotencyStore(cfg.IdempotencyTTL)
	if clients.Redis != nil {
		if idem, err = services.NewRedisIdempotencyStore(clients.Redis, cfg.IdempotencyTTL); err != nil {
			return Services{}, err
		}
	}

	notifier := events.NewNotifier(log, clients.Publisher, metrics, cfg.NotifyTimeout)

	return Services{
		Auth:    auth,
		Tax:     tax,
		Catalog: services.NewCatalogService(db, log, r.Product, aggs.Product, metrics),
		Cart:    services.NewCartService(db, log, r.Cart, r.CartItem, r.Product, tax, metrics),
		Orders: services.NewOrderService(services.OrderServiceDeps{
			Log:         log,
			Orders:      r.Order,
			OrderItems:  r.OrderItem,
			Aggregate:   aggs.Order,
			Tax:         tax,
			Idempotency: idem,
			Notifier:    notifier,
			Metrics:     metrics,
		}),
		Notifier: notifier,
	}, nil
}
