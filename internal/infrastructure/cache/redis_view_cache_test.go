package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const invoicesView = "/dashboard/invoices"

func newTestClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisViewCache_GetSet(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewRedisViewCacheWithClient(newTestClient(t, mr))

	_, ok := c.Get(ctx, invoicesView, "page=1")
	assert.False(t, ok)

	c.Set(ctx, invoicesView, "page=1", []byte(`{"totalPages":1}`))

	value, ok := c.Get(ctx, invoicesView, "page=1")
	require.True(t, ok)
	assert.Equal(t, `{"totalPages":1}`, string(value))
	assert.True(t, mr.Exists("view:data:/dashboard/invoices:0:page=1"))
}

func TestRedisViewCache_InvalidateBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewRedisViewCacheWithClient(newTestClient(t, mr))

	c.Set(ctx, invoicesView, "page=1", []byte("one"))
	c.Set(ctx, invoicesView, "page=2", []byte("two"))

	c.Invalidate(ctx, invoicesView)

	gen, err := mr.Get("view:gen:/dashboard/invoices")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)

	_, ok := c.Get(ctx, invoicesView, "page=1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, invoicesView, "page=2")
	assert.False(t, ok)

	c.Set(ctx, invoicesView, "page=1", []byte("fresh"))
	value, ok := c.Get(ctx, invoicesView, "page=1")
	require.True(t, ok)
	assert.Equal(t, "fresh", string(value))
}

func TestRedisViewCache_InvalidatePublishes(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := newTestClient(t, mr)
	c := NewRedisViewCacheWithClient(client, WithChannel("test:invalidate"))

	pubsub := client.Subscribe(ctx, "test:invalidate")
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	c.Invalidate(ctx, invoicesView)

	msg, err := pubsub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, invoicesView, msg.Payload)
}

func TestRedisViewCache_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewRedisViewCacheWithClient(newTestClient(t, mr), WithTTL(time.Minute))

	c.Set(ctx, invoicesView, "page=1", []byte("one"))
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, invoicesView, "page=1")
	assert.False(t, ok)
}

func TestRedisViewCache_RedisDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	core, logs := observer.New(zap.WarnLevel)
	c := NewRedisViewCacheWithClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}),
		WithCacheLogger(zap.New(core)),
	)
	mr.Close()

	c.Set(ctx, invoicesView, "page=1", []byte("one"))
	_, ok := c.Get(ctx, invoicesView, "page=1")
	assert.False(t, ok)

	assert.NotPanics(t, func() { c.Invalidate(ctx, invoicesView) })
	assert.NotZero(t, logs.FilterMessage("Failed to invalidate view").Len())
}

func TestRedisViewCache_NearCacheDroppedByOtherInstance(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	writer := NewRedisViewCacheWithClient(newTestClient(t, mr), WithNearCache(time.Minute))
	reader := NewRedisViewCacheWithClient(newTestClient(t, mr), WithNearCache(time.Minute))

	sub := reader.NewSubscriber()
	ready := make(chan struct{})
	go func() { _ = sub.Run(ctx, ready) }()
	defer sub.Close()
	<-ready

	writer.Set(ctx, invoicesView, "page=1", []byte("one"))
	_, ok := reader.Get(ctx, invoicesView, "page=1")
	require.True(t, ok)
	require.Equal(t, 1, reader.near.Len(invoicesView))

	writer.Invalidate(ctx, invoicesView)

	assert.Eventually(t, func() bool {
		return reader.near.Len(invoicesView) == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, ok = reader.Get(ctx, invoicesView, "page=1")
	assert.False(t, ok)
}

func TestViewInvalidationSubscriber_RunTwice(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	sub := NewViewInvalidationSubscriber(newTestClient(t, mr), NewInMemoryViewCache(0))

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx, ready) }()
	<-ready

	assert.Error(t, sub.Run(ctx, nil))

	require.NoError(t, sub.Close())
	assert.NoError(t, <-done)
}

func TestViewInvalidationSubscriber_CancelIsCleanStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mr := miniredis.RunT(t)
	core, logs := observer.New(zap.WarnLevel)
	sub := NewViewInvalidationSubscriber(newTestClient(t, mr), NewInMemoryViewCache(0),
		WithSubscriberLogger(zap.New(core)))

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx, ready) }()
	<-ready

	cancel()
	assert.NoError(t, <-done)
	assert.Zero(t, logs.Len())
}

func TestViewInvalidationSubscriber_RetriesUntilSubscribed(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	local := NewInMemoryViewCache(0)
	local.Set(ctx, invoicesView, "page=1", []byte("stale"))

	core, logs := observer.New(zap.WarnLevel)
	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	sub := NewViewInvalidationSubscriber(client, local,
		WithSubscriberLogger(zap.New(core)),
		WithSubscriberRetry(10*time.Millisecond, 50*time.Millisecond))

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx, ready) }()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("View invalidation subscription lost, near cache dropped").Len() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, local.Len(invoicesView))

	require.NoError(t, mr.Restart())
	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not recover after redis came back")
	}

	require.NoError(t, sub.Close())
	assert.NoError(t, <-done)
}

func TestViewInvalidationSubscriber_DropsAllOnReconnect(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	local := NewInMemoryViewCache(0)
	sub := NewViewInvalidationSubscriber(newTestClient(t, mr), local)

	ready := make(chan struct{})
	go func() { _ = sub.Run(ctx, ready) }()
	defer sub.Close()
	<-ready

	local.Set(ctx, invoicesView, "page=1", []byte("one"))
	local.Set(ctx, "/dashboard", "", []byte("cards"))

	mr.Close()
	require.NoError(t, mr.Restart())

	assert.Eventually(t, func() bool {
		return local.Len(invoicesView) == 0 && local.Len("/dashboard") == 0
	}, 5*time.Second, 20*time.Millisecond)

	// invalidations flow again after the reconnect
	publisher := newTestClient(t, mr)
	local.Set(ctx, invoicesView, "page=2", []byte("two"))
	assert.Eventually(t, func() bool {
		publisher.Publish(ctx, DefaultInvalidationChannel, invoicesView)
		return local.Len(invoicesView) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestViewInvalidationSubscriber_RetryDelay(t *testing.T) {
	sub := NewViewInvalidationSubscriber(nil, noopDropper{},
		WithSubscriberRetry(100*time.Millisecond, time.Second))

	assert.Equal(t, 100*time.Millisecond, sub.retryDelay(1))
	assert.Equal(t, 200*time.Millisecond, sub.retryDelay(2))
	assert.Equal(t, 800*time.Millisecond, sub.retryDelay(4))
	assert.Equal(t, time.Second, sub.retryDelay(5))
	assert.Equal(t, time.Second, sub.retryDelay(60))
}

func TestViewCacheFactory_CreateCache(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := NewViewCacheFactory(config.CacheConfig{Backend: BackendMemory, TTL: time.Minute}, config.RedisConfig{})
		c, err := f.CreateCache()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryViewCache{}, c)
	})

	t.Run("redis backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		port, err := strconv.Atoi(mr.Port())
		require.NoError(t, err)

		f := NewViewCacheFactory(
			config.CacheConfig{Backend: BackendRedis, TTL: time.Minute, Channel: "c"},
			config.RedisConfig{Host: mr.Host(), Port: port},
		)
		c, err := f.CreateCache()
		require.NoError(t, err)
		rc, ok := c.(*RedisViewCache)
		require.True(t, ok)
		defer rc.Close()
		assert.Equal(t, "c", rc.channel)
		assert.NotNil(t, rc.near)
	})

	unreachable := func(t *testing.T) config.RedisConfig {
		mr := miniredis.RunT(t)
		port, err := strconv.Atoi(mr.Port())
		require.NoError(t, err)
		host := mr.Host()
		mr.Close()
		return config.RedisConfig{Host: host, Port: port}
	}

	t.Run("falls back to memory", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		f := NewViewCacheFactory(
			config.CacheConfig{Backend: BackendRedis, FallbackToMemory: true},
			unreachable(t),
			WithLogger(zap.New(core)),
		)
		c, err := f.CreateCache()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryViewCache{}, c)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewViewCacheFactory(config.CacheConfig{Backend: BackendRedis}, unreachable(t))
		c, err := f.CreateCache()
		assert.Error(t, err)
		assert.Nil(t, c)
	})
}
