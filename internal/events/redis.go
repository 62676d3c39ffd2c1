package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

const DefaultRedisChannel = "order_events"

type redisPublisher struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRedisPublisher publishes JSON events with PUBLISH on channel. The client is
// shared with other components and is not closed here.
func NewRedisPublisher(log *logger.Logger, rdb goredis.UniversalClient, channel string) (Publisher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &redisPublisher{
		log:     log.With("service", "RedisOrderEvents"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (p *redisPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis order events not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	receivers, err := p.rdb.Publish(ctx, p.channel, raw).Result()
	if err != nil {
		return err
	}
	if receivers == 0 {
		p.log.Debug("order event had no subscribers", "channel", p.channel, "type", ev.Type)
	}
	return nil
}

func (p *redisPublisher) Backend() string { return BackendRedis }

func (p *redisPublisher) Close() error { return nil }
