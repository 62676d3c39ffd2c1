package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour
	maxIdempotencyKeyLen  = 200
)

// IdempotencyStore remembers which order a checkout key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool, error)
	Remember(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) error
}

// NormalizeIdempotencyKey trims the header value; ok is false when it is unusable.
func NormalizeIdempotencyKey(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	if key == "" || len(key) > maxIdempotencyKeyLen {
		return "", false
	}
	return key, true
}

func idempotencyKey(userID uuid.UUID, key string) string {
	return "idempotency:checkout:" + userID.String() + ":" + key
}

type redisIdempotencyStore struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

func NewRedisIdempotencyStore(rdb goredis.UniversalClient, ttl time.Duration) (IdempotencyStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &redisIdempotencyStore{rdb: rdb, ttl: ttl}, nil
}

func (s *redisIdempotencyStore) Lookup(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool, error) {
	val, err := s.rdb.Get(ctx, idempotencyKey(userID, key)).Result()
	if errors.Is(err, goredis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt idempotency entry: %w", err)
	}
	return id, true, nil
}

// Remember keeps the first order stored under a key.
func (s *redisIdempotencyStore) Remember(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) error {
	return s.rdb.SetNX(ctx, idempotencyKey(userID, key), orderID.String(), s.ttl).Err()
}

type memoryEntry struct {
	orderID uuid.UUID
	expires time.Time
}

type memoryIdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryIdempotencyStore is process local; use it only for a single instance.
func NewMemoryIdempotencyStore(ttl time.Duration) IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &memoryIdempotencyStore{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (s *memoryIdempotencyStore) Lookup(_ context.Context, userID uuid.UUID, key string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idempotencyKey(userID, key)
	e, ok := s.entries[k]
	if !ok {
		return uuid.Nil, false, nil
	}
	if s.now().After(e.expires) {
		delete(s.entries, k)
		return uuid.Nil, false, nil
	}
	return e.orderID, true, nil
}

func (s *memoryIdempotencyStore) Remember(_ context.Context, userID uuid.UUID, key string, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
	k := idempotencyKey(userID, key)
	if _, ok := s.entries[k]; ok {
		return nil
	}
	s.entries[k] = memoryEntry{orderID: orderID, expires: now.Add(s.ttl)}
	return nil
}
