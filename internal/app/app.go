package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/boostcart-backend/internal/http"
	"github.com/yungbote/boostcart-backend/internal/observability"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

const drainTimeout = 10 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	shutdownOTel func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envLogMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	otelCfg := observability.OtelConfigFromEnv()
	shutdownOTel := observability.InitOTel(ctx, log, otelCfg)
	metrics := observability.Init(log)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := clients.DB.DB()

	reposet := wireRepos(theDB, log)
	aggs, err := wireAggregates(theDB, log, cfg, metrics, reposet)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}
	serviceset, err := wireServices(theDB, log, cfg, clients, metrics, reposet, aggs)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, serviceset)
	middleware := wireMiddleware(log, cfg, metrics, serviceset)
	server := http.NewServer(routerConfig(log, cfg, otelCfg, metrics, handlerset, middleware))

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Run serves HTTP and metrics until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Run(gctx, ":"+a.Cfg.Port)
	})
	if a.Metrics != nil {
		g.Go(func() error {
			return a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)
		})
		a.Metrics.StartPostgresCollector(gctx, a.Log, a.DB)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.Redis)
		}
	}

	err := g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if a.Services.Notifier != nil {
		if werr := a.Services.Notifier.Wait(drainCtx); werr != nil {
			a.Log.Warn("order notifications still in flight at shutdown", "error", werr)
		}
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOTel(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
