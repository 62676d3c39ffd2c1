package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/boostcart-backend/internal/data/db"
	"github.com/yungbote/boostcart-backend/internal/events"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type Clients struct {
	DB        *db.Service
	Redis     *goredis.Client
	Publisher events.Publisher
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Database
	dbs, err := db.NewService(cfg.DB.toDB(), log)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureIndexes(dbs.DB()); err != nil {
		_ = dbs.Close()
		return Clients{}, fmt.Errorf("ensure indexes: %w", err)
	}

	// Redis
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			_ = dbs.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
	}

	// Order events
	var pub events.Publisher
	switch cfg.EventsBackend {
	case events.BackendRedis:
		pub, err = events.NewRedisPublisher(log, rdb, cfg.EventsChannel)
	case events.BackendKafka:
		pub, err = events.NewKafkaPublisher(log, cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		pub = events.NewNoopPublisher()
	}
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = dbs.Close()
		return Clients{}, fmt.Errorf("init order events: %w", err)
	}

	return Clients{DB: dbs, Redis: rdb, Publisher: pub}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
