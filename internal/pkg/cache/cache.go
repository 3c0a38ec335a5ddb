package cache

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	fiberredis "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
)

// limiterDatabase keeps rate limiter counters apart from anything else in DB 0.
const limiterDatabase = 1

// NewClient creates the Redis client used for health checks and as the
// connection source for the rate limiter storage.
func NewClient(cfg config.CacheConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] could not connect to %s: %v", cfg.Addr(), err)
	} else {
		log.Infof("[Cache] connected to %s: %s", cfg.Addr(), pong)
	}
	return client
}

// Ping reports whether the cache answers within the context deadline.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// NewLimiterStorage returns fiber storage backed by the same Redis server as
// client, so rate limits are shared across service instances.
func NewLimiterStorage(client *redis.Client) *fiberredis.Storage {
	host := "localhost"
	port := 6379
	opts := client.Options()
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return fiberredis.New(fiberredis.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: limiterDatabase,
		Reset:    false,
	})
}
