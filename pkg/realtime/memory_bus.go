package realtime

import (
	"context"
	"sync"
)

// MemoryBus implements Bus in-process for tests and single-binary setups.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// NewMemoryBus initializes an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*Subscription]struct{})}
}

// Publish signals every subscription on the channel.
func (b *MemoryBus) Publish(ctx context.Context, channel string) error {
	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.subs[channel]))
	for sub := range b.subs[channel] {
		targets = append(targets, sub)
	}
	b.mu.Unlock()
	for _, sub := range targets {
		sub.notify()
	}
	return nil
}

// Subscribe opens a listener on the channel.
func (b *MemoryBus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sub *Subscription
	sub = newSubscription(func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[channel], sub)
		return nil
	})
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*Subscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	return sub, nil
}
