package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/boostcart-backend/internal/http/handlers"
	httpMW "github.com/yungbote/boostcart-backend/internal/http/middleware"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	// TracingEnabled adds otelgin spans around every request.
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware  *httpMW.AuthMiddleware
	CheckoutLimiter *httpMW.UserRateLimiter

	HealthHandler  *httpH.HealthHandler
	ProductHandler *httpH.ProductHandler
	TaxHandler     *httpH.TaxHandler
	CartHandler    *httpH.CartHandler
	OrderHandler   *httpH.OrderHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Catalog (public)
		if cfg.ProductHandler != nil {
			api.GET("/products", cfg.ProductHandler.ListProducts)
			api.GET("/products/:id", cfg.ProductHandler.GetProduct)
		}
		if cfg.TaxHandler != nil {
			api.GET("/tax", cfg.TaxHandler.GetTax)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Cart
		if cfg.CartHandler != nil {
			protected.GET("/cart", cfg.CartHandler.GetCart)
			protected.GET("/cart/count", cfg.CartHandler.CountItems)
			protected.POST("/cart/items", cfg.CartHandler.AddItem)
			protected.PATCH("/cart/items/:id", cfg.CartHandler.UpdateItem)
			protected.DELETE("/cart/items/:id", cfg.CartHandler.RemoveItem)
		}

		// Orders
		if cfg.OrderHandler != nil {
			checkout := []gin.HandlerFunc{}
			if cfg.CheckoutLimiter != nil {
				checkout = append(checkout, cfg.CheckoutLimiter.Middleware())
			}
			checkout = append(checkout, cfg.OrderHandler.Checkout)
			protected.POST("/checkout", checkout...)
			protected.GET("/orders", cfg.OrderHandler.ListMyOrders)
			protected.GET("/orders/:id", cfg.OrderHandler.GetMyOrder)
		}
	}

	admin := api.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	{
		if cfg.ProductHandler != nil {
			admin.GET("/products", cfg.ProductHandler.AdminListProducts)
			admin.GET("/products/:id", cfg.ProductHandler.AdminGetProduct)
			admin.POST("/products", cfg.ProductHandler.CreateProduct)
			admin.PATCH("/products/:id", cfg.ProductHandler.UpdateProduct)
			admin.POST("/products/:id/activate", cfg.ProductHandler.ActivateProduct)
			admin.POST("/products/:id/deactivate", cfg.ProductHandler.DeactivateProduct)
			admin.DELETE("/products/:id", cfg.ProductHandler.DeleteProduct)
		}
		if cfg.TaxHandler != nil {
			admin.PUT("/tax", cfg.TaxHandler.SetTax)
		}
		if cfg.OrderHandler != nil {
			admin.GET("/orders", cfg.OrderHandler.AdminListOrders)
			admin.GET("/orders/:id", cfg.OrderHandler.AdminGetOrder)
			admin.POST("/orders/:id/status", cfg.OrderHandler.TransitionStatus)
		}
	}

	return r
}
