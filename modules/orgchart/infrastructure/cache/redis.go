package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

const defaultRedisKey = "orgchart:snapshot:v1"

// RedisCache stores the snapshot as one JSON value so every server instance
// shares it and an invalidation on one instance is seen by all.
type RedisCache struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, key: defaultRedisKey, ttl: ttl}
}

// NewRedisClient accepts either a redis:// URL or a bare host:port address.
func NewRedisClient(url string) (*redis.Client, error) {
	if !strings.Contains(url, "://") {
		return redis.NewClient(&redis.Options{Addr: url}), nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache) Get(ctx context.Context) ([]employee.Employee, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var snapshot []employee.Employee
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

func (c *RedisCache) Set(ctx context.Context, snapshot []employee.Employee) error {
	if snapshot == nil {
		snapshot = []employee.Employee{}
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
