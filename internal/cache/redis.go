package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Domenick1991/tripplanner/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), ttl)
}

// NewRedisCacheWithClient wraps an existing client, e.g. a cluster client.
func NewRedisCacheWithClient(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Close() error {
	if closer, ok := c.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetJSON decodes the value stored at key into dst. A missing key is reported
// as (false, nil).
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

func (c *RedisCache) AcquireRunLock(ctx context.Context, tripID uuid.UUID, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, RunLockKey(tripID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseRunLock(ctx context.Context, tripID uuid.UUID) error {
	return c.client.Del(ctx, RunLockKey(tripID)).Err()
}

func FlightsKey(origin, destination, departDate, returnDate string) string {
	return fmt.Sprintf("cache:flights:%s:%s:%s:%s", keyPart(origin), keyPart(destination), departDate, returnDate)
}

func StaysKey(city, checkIn, checkOut, preference string, maxPrice int) string {
	return fmt.Sprintf("cache:stays:%s:%s:%s:%s:%d", keyPart(city), checkIn, checkOut, keyPart(preference), maxPrice)
}

func RunLockKey(tripID uuid.UUID) string {
	return "lock:trip:" + tripID.String()
}

func keyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}
