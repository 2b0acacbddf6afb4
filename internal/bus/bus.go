// Package bus implements the notification bus over Redis pub/sub.
//
// Channels are keyed by content hash. Delivery is at-most-once with no
// backlog: a subscriber that was not listening at publish time never sees
// that event. Waiting clients therefore subscribe before checking the result
// cache, and fall back to the cache when they suspect a race.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Edgar454/WhoIsTalking/internal/logger"
	"github.com/Edgar454/WhoIsTalking/internal/redis"
)

// ResultChannel returns the pub/sub channel name for a content hash. It is
// intentionally the same name the result cache uses as its key.
func ResultChannel(fileHash string) string {
	return "task_result:" + fileHash
}

// Bus publishes and subscribes to job completion notifications.
type Bus struct {
	client *redis.Client
	log    *logger.Logger
}

// New creates a notification bus on top of the given Redis client.
func New(client *redis.Client, log *logger.Logger) *Bus {
	return &Bus{
		client: client,
		log:    log.WithComponent("bus"),
	}
}

// Publish delivers payload (JSON-encoded) to all current subscribers of
// channel. Subscribers that connect later receive nothing.
func (b *Bus) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bus marshal: %w", err)
	}
	if err := b.client.Publish(ctx, channel, string(data)); err != nil {
		return fmt.Errorf("bus publish %q: %w", channel, err)
	}
	b.log.Debug("Notification published", map[string]interface{}{
		"channel": channel,
		"bytes":   len(data),
	})
	return nil
}

// Subscribe opens a subscription on channel. It blocks until the server has
// confirmed the subscription, so a publish issued after Subscribe returns is
// guaranteed to be seen by Next.
func (b *Bus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("bus subscribe %q: %w", channel, err)
	}
	return &Subscription{ps: ps, channel: channel}, nil
}

// Subscription is a single-event subscription on one channel.
type Subscription struct {
	ps      *goredis.PubSub
	channel string
}

// Next blocks until one message arrives and returns its payload. Callers
// expecting single-event semantics close the subscription after the first
// message. Cancelling ctx aborts the wait.
func (s *Subscription) Next(ctx context.Context) ([]byte, error) {
	msg, err := s.ps.ReceiveMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("bus receive %q: %w", s.channel, err)
	}
	return []byte(msg.Payload), nil
}

// Close tears down the subscription.
func (s *Subscription) Close() error {
	return s.ps.Close()
}
