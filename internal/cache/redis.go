package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maratgil/eventbooking/config"
	"github.com/maratgil/eventbooking/internal/domain"
)

type RedisCache struct {
	client    *redis.Client
	eventsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, eventsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		eventsTTL: eventsTTL,
	}
}

func (c *RedisCache) GetEvents(ctx context.Context) ([]domain.Event, error) {
	data, err := c.client.Get(ctx, eventsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *RedisCache) SetEvents(ctx context.Context, events []domain.Event) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, eventsKey(), payload, c.eventsTTL).Err()
}

// AcquireSettleLock takes a short advisory lock on a transaction id so a
// burst of duplicate notifications collapses to one gateway validate call.
// The DB status guard stays authoritative; losing the lock is never an error.
func (c *RedisCache) AcquireSettleLock(ctx context.Context, transactionID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, settleLockKey(transactionID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSettleLock(ctx context.Context, transactionID string) error {
	return c.client.Del(ctx, settleLockKey(transactionID)).Err()
}

func eventsKey() string {
	return "cache:events"
}

func settleLockKey(transactionID string) string {
	return fmt.Sprintf("lock:settle:%s", transactionID)
}
