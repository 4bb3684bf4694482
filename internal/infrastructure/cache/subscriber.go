package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCloseTimeout   = 5 * time.Second
	defaultRetryBaseDelay = 100 * time.Millisecond
	defaultRetryMaxDelay  = 30 * time.Second
)

var errSubscriptionClosed = errors.New("invalidation channel closed")

// ViewDropper removes local view entries
type ViewDropper interface {
	Drop(view string)
	DropAll()
}

type noopDropper struct{}

func (noopDropper) Drop(string) {}
func (noopDropper) DropAll() {}

// ViewInvalidationSubscriber listens on the invalidation channel and drops
// the local entries of every view another instance invalidated
type ViewInvalidationSubscriber struct {
	client    *redis.Client
	channel   string
	local     ViewDropper
	logger    *zap.Logger
	retryBase time.Duration
	retryMax  time.Duration
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	isRunning bool
}

// ViewInvalidationSubscriberOption is a functional option for configuring the subscriber
type ViewInvalidationSubscriberOption func(*ViewInvalidationSubscriber)

// WithSubscriberChannel sets the Pub/Sub channel name
func WithSubscriberChannel(channel string) ViewInvalidationSubscriberOption {
	return func(s *ViewInvalidationSubscriber) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithSubscriberLogger sets the logger for the subscriber
func WithSubscriberLogger(logger *zap.Logger) ViewInvalidationSubscriberOption {
	return func(s *ViewInvalidationSubscriber) {
		s.logger = logger
	}
}

// WithSubscriberRetry sets the first and the largest delay between
// subscription attempts
func WithSubscriberRetry(base, maxDelay time.Duration) ViewInvalidationSubscriberOption {
	return func(s *ViewInvalidationSubscriber) {
		if base > 0 {
			s.retryBase = base
		}
		if maxDelay >= s.retryBase {
			s.retryMax = maxDelay
		}
	}
}

// NewViewInvalidationSubscriber creates a subscriber over an existing client
func NewViewInvalidationSubscriber(client *redis.Client, local ViewDropper, opts ...ViewInvalidationSubscriberOption) *ViewInvalidationSubscriber {
	s := &ViewInvalidationSubscriber{
		client:    client,
		channel:   DefaultInvalidationChannel,
		local:     local,
		logger:    zap.NewNop(),
		retryBase: defaultRetryBaseDelay,
		retryMax:  defaultRetryMaxDelay,
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run subscribes and blocks until ctx is cancelled or Close is called.
// ready, if non-nil, is closed once the first subscription is confirmed.
// A failed or lost subscription drops every local view and is retried with
// capped exponential backoff. Cancellation is a clean stop and returns nil.
func (s *ViewInvalidationSubscriber) Run(ctx context.Context, ready chan<- struct{}) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	s.isRunning = true
	subCtx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		s.markDone()
	}()

	var readyOnce sync.Once
	attempt := 0
	for {
		err := s.listen(subCtx, func() {
			attempt = 0
			if ready != nil {
				readyOnce.Do(func() { close(ready) })
			}
		})
		if subCtx.Err() != nil {
			s.logger.Info("View invalidation subscription stopped")
			return nil
		}

		attempt++
		delay := s.retryDelay(attempt)
		s.local.DropAll()
		s.logger.Warn("View invalidation subscription lost, near cache dropped",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
		)

		select {
		case <-subCtx.Done():
			s.logger.Info("View invalidation subscription stopped")
			return nil
		case <-time.After(delay):
		}
	}
}

// listen holds one subscription until it fails or ctx ends. subscribed is
// called once the server confirms the subscription.
func (s *ViewInvalidationSubscriber) listen(ctx context.Context, subscribed func()) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	s.logger.Info("Subscribed to view invalidation channel", zap.String("channel", s.channel))
	subscribed()

	// go-redis reconnects on its own; a fresh subscription confirmation
	// means messages may have been missed while the connection was down.
	ch := pubsub.ChannelWithSubscriptions()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			switch m := msg.(type) {
			case *redis.Subscription:
				if m.Kind == "subscribe" {
					s.local.DropAll()
					s.logger.Warn("View invalidation subscription re-established, near cache dropped")
				}
			case *redis.Message:
				s.logger.Debug("Received view invalidation", zap.String("view", m.Payload))
				s.local.Drop(m.Payload)
			}
		}
	}
}

// retryDelay doubles from the base delay and is capped at the max delay.
func (s *ViewInvalidationSubscriber) retryDelay(attempt int) time.Duration {
	delay := s.retryBase
	for i := 1; i < attempt && delay < s.retryMax; i++ {
		delay *= 2
	}
	return min(delay, s.retryMax)
}

func (s *ViewInvalidationSubscriber) markDone() {
	s.doneOnce.Do(func() {
		close(s.doneCh)
	})
}

// Close stops a running subscription and waits for it to exit
func (s *ViewInvalidationSubscriber) Close() error {
	s.mu.Lock()
	cancelFn := s.cancelFn
	s.mu.Unlock()

	if cancelFn == nil {
		return nil
	}
	cancelFn()

	select {
	case <-s.doneCh:
	case <-time.After(defaultCloseTimeout):
		s.logger.Warn("Timeout waiting for view invalidation subscription to stop")
	}
	return nil
}
