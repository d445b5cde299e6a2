package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "jobsearch:seen:"

// RedisCache shares seen URLs between scraper runs on different hosts. Each URL is one
// key with a TTL, so expiry is handled by Redis.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCache) key(url string) string {
	return r.prefix + url
}

func (r *RedisCache) IsSeen(ctx context.Context, url string) (bool, error) {
	if url == "" {
		return false, errors.New("url cannot be empty")
	}
	n, err := r.client.Exists(ctx, r.key(url)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MarkSeen sets each key with SET NX so an existing entry keeps its original expiry.
func (r *RedisCache) MarkSeen(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	cmds, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, url := range urls {
			if url == "" {
				continue
			}
			p.SetArgs(ctx, r.key(url), stamp, redis.SetArgs{Mode: "NX", TTL: r.ttl})
		}
		return nil
	})
	// NX misses come back as redis.Nil and are not failures.
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis SET NX: %w", err)
	}
	for _, cmd := range cmds {
		if cerr := cmd.Err(); cerr != nil && !errors.Is(cerr, redis.Nil) {
			return fmt.Errorf("redis SET NX: %w", cerr)
		}
	}
	return nil
}

// Health pings the Redis server.
func (r *RedisCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
