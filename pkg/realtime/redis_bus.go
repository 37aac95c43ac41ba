package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus over redis pub/sub.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus builds a redis-backed change bus.
func NewRedisBus(addr, password string) *RedisBus {
	return &RedisBus{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Publish signals a change on the channel.
func (b *RedisBus) Publish(ctx context.Context, channel string) error {
	if err := b.client.Publish(ctx, channel, "1").Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a standing listener on the channel.
func (b *RedisBus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, channel)
	// Confirm the subscription before handing it out, so a publish
	// immediately after Subscribe returns is not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	sub := newSubscription(ps.Close)
	go func() {
		for range ps.Channel() {
			sub.notify()
		}
	}()
	return sub, nil
}

// Ping verifies connectivity.
func (b *RedisBus) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
