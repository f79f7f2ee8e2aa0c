// Package eventbus publishes graph merge and removal events over Redis.
//
// Each event is published on a pub/sub channel for live subscribers and
// appended to a capped journal list so late readers can replay recent
// history. RedisBus implements graph.EventSink.
package eventbus

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hc1839/crul-sub003/graph"
	"github.com/hc1839/crul-sub003/hgerr"
)

// Defaults applied by New to zero-valued options.
const (
	DefaultURL            = "redis://localhost:6379"
	DefaultChannel        = "crul:events"
	DefaultJournalKey     = "crul:journal"
	DefaultConnectTimeout = 5 * time.Second
	DefaultPublishTimeout = 2 * time.Second
)

// Options configures the Redis connection and key layout.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// PublishTimeout bounds a single Publish when the caller's context has no
	// deadline
	PublishTimeout time.Duration

	// Channel is the pub/sub channel events are published on
	Channel string

	// JournalKey is the list events are appended to
	JournalKey string

	// JournalLimit caps the journal length; 0 keeps every event
	JournalLimit int

	// Logger receives subscription decode failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// RedisBus publishes and replays graph events using go-redis/v9.
type RedisBus struct {
	client *redis.Client
	opts   Options
}

var _ graph.EventSink = (*RedisBus)(nil)

// New connects to Redis and returns a bus.
func New(opts Options) (*RedisBus, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.PublishTimeout == 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.JournalKey == "" {
		opts.JournalKey = DefaultJournalKey
	}
	if opts.JournalLimit < 0 {
		opts.JournalLimit = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, hgerr.Configuration("eventbus.New", fmt.Errorf("failed to parse Redis URL: %w", err))
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, hgerr.Unavailable("eventbus.New", fmt.Errorf("failed to connect to Redis: %w", err))
	}

	return &RedisBus{client: client, opts: opts}, nil
}

// Publish sends the event to subscribers and appends it to the journal in a
// single transaction.
func (b *RedisBus) Publish(ctx context.Context, event graph.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.PublishTimeout)
		defer cancel()
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, b.opts.Channel, data)
		pipe.LPush(ctx, b.opts.JournalKey, data)
		if b.opts.JournalLimit > 0 {
			pipe.LTrim(ctx, b.opts.JournalKey, 0, int64(b.opts.JournalLimit-1))
		}
		return nil
	})
	if err != nil {
		return hgerr.Unavailable("RedisBus.Publish", fmt.Errorf("failed to publish to channel %s: %w", b.opts.Channel, err))
	}
	return nil
}

// Subscribe streams events published after the subscription is confirmed.
// The returned channel is closed when ctx is cancelled or the bus is closed.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan graph.Event, error) {
	pubsub := b.client.Subscribe(ctx, b.opts.Channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, hgerr.Unavailable("RedisBus.Subscribe", fmt.Errorf("failed to subscribe to channel %s: %w", b.opts.Channel, err))
	}

	events := make(chan graph.Event)

	go func() {
		defer close(events)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event graph.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.opts.Logger.Warn("dropping malformed event",
						"component", "eventbus",
						"channel", msg.Channel,
						"error", err,
					)
					continue
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// History returns up to n of the most recent journal entries, oldest first.
// n <= 0 returns the whole journal.
func (b *RedisBus) History(ctx context.Context, n int) ([]graph.Event, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}

	raw, err := b.client.LRange(ctx, b.opts.JournalKey, 0, stop).Result()
	if err != nil {
		return nil, hgerr.Unavailable("RedisBus.History", fmt.Errorf("failed to read journal %s: %w", b.opts.JournalKey, err))
	}

	events := make([]graph.Event, 0, len(raw))
	for _, payload := range raw {
		var event graph.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal journal entry: %w", err)
		}
		events = append(events, event)
	}
	slices.Reverse(events)
	return events, nil
}

// Close closes the Redis connection.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
