package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultInvalidationChannel is the Pub/Sub channel view invalidations are published on
	DefaultInvalidationChannel = "dashboard:view:invalidate"
	// DefaultViewTTL bounds how long a cached rendering may be served
	DefaultViewTTL = 5 * time.Minute

	generationKeyPrefix = "view:gen:"
	dataKeyPrefix       = "view:data:"
	connectTimeout      = 5 * time.Second
)

// RedisViewCache implements shared.ViewCache on Redis. Each view has a
// generation counter; cached data is keyed by the current generation, so
// invalidating a view is a single INCR that makes every variant stale at
// once. Invalidations are also published so other instances can drop their
// near cache.
type RedisViewCache struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	ttl        time.Duration
	near       *InMemoryViewCache
	logger     *zap.Logger
}

// RedisViewCacheOption is a functional option for configuring the cache
type RedisViewCacheOption func(*RedisViewCache)

// WithChannel sets the Pub/Sub channel name
func WithChannel(channel string) RedisViewCacheOption {
	return func(c *RedisViewCache) {
		if channel != "" {
			c.channel = channel
		}
	}
}

// WithTTL sets the expiry of cached data
func WithTTL(ttl time.Duration) RedisViewCacheOption {
	return func(c *RedisViewCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNearCache keeps a process-local copy of data read from Redis for ttl
func WithNearCache(ttl time.Duration) RedisViewCacheOption {
	return func(c *RedisViewCache) {
		c.near = NewInMemoryViewCache(ttl)
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisViewCacheOption {
	return func(c *RedisViewCache) {
		c.logger = logger
	}
}

// NewRedisViewCache connects to addr and verifies the connection
func NewRedisViewCache(addr, password string, db int, opts ...RedisViewCacheOption) (*RedisViewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisViewCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisViewCacheWithClient creates a cache over an existing client.
// The caller retains ownership of the client.
func NewRedisViewCacheWithClient(client *redis.Client, opts ...RedisViewCacheOption) *RedisViewCache {
	c := &RedisViewCache{
		client:  client,
		channel: DefaultInvalidationChannel,
		ttl:     DefaultViewTTL,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value of key under the current generation of view.
// Redis failures are logged and reported as a miss.
func (c *RedisViewCache) Get(ctx context.Context, view, key string) ([]byte, bool) {
	if c.near != nil {
		if value, ok := c.near.Get(ctx, view, key); ok {
			return value, true
		}
	}

	gen, err := c.generation(ctx, view)
	if err != nil {
		c.logger.Warn("Failed to read view generation", zap.String("view", view), zap.Error(err))
		return nil, false
	}

	value, err := c.client.Get(ctx, dataKey(view, gen, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read cached view", zap.String("view", view), zap.Error(err))
		}
		return nil, false
	}

	if c.near != nil {
		c.near.Set(ctx, view, key, value)
	}
	return value, true
}

// Set stores value under the current generation of view
func (c *RedisViewCache) Set(ctx context.Context, view, key string, value []byte) {
	gen, err := c.generation(ctx, view)
	if err != nil {
		c.logger.Warn("Failed to read view generation", zap.String("view", view), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, dataKey(view, gen, key), value, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache view", zap.String("view", view), zap.Error(err))
		return
	}

	if c.near != nil {
		c.near.Set(ctx, view, key, value)
	}
}

// Invalidate bumps the generation of view and publishes the view name.
// Failures are logged, never returned.
func (c *RedisViewCache) Invalidate(ctx context.Context, view string) {
	if c.near != nil {
		c.near.Drop(view)
	}

	gen, err := c.client.Incr(ctx, generationKeyPrefix+view).Result()
	if err != nil {
		c.logger.Error("Failed to invalidate view",
			zap.String("view", view),
			zap.Error(err))
		return
	}

	if err := c.client.Publish(ctx, c.channel, view).Err(); err != nil {
		c.logger.Error("Failed to publish view invalidation",
			zap.String("view", view),
			zap.String("channel", c.channel),
			zap.Error(err))
		return
	}

	c.logger.Debug("Invalidated view",
		zap.String("view", view),
		zap.Int64("generation", gen))
}

// NewSubscriber returns a subscriber that drops this cache's near entries
// when any instance invalidates a view
func (c *RedisViewCache) NewSubscriber() *ViewInvalidationSubscriber {
	var dropper ViewDropper = noopDropper{}
	if c.near != nil {
		dropper = c.near
	}
	return NewViewInvalidationSubscriber(c.client, dropper,
		WithSubscriberChannel(c.channel),
		WithSubscriberLogger(c.logger))
}

// Ping checks the Redis connection
func (c *RedisViewCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client if the cache created it
func (c *RedisViewCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

func (c *RedisViewCache) generation(ctx context.Context, view string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKeyPrefix+view).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func dataKey(view string, gen int64, key string) string {
	return fmt.Sprintf("%s%s:%d:%s", dataKeyPrefix, view, gen, key)
}
