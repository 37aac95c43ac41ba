package realtime

import (
	"context"
	"sync"
)

// Channel names mirror the table-plus-filter keys the change feed is
// scoped by: one channel per principal's directory, one per conversation.
func DirectoryChannel(userID string) string { return "user_chats:user_id=" + userID }
func MessagesChannel(chatID string) string  { return "messages:chat_id=" + chatID }

// Bus is the realtime change feed: writers publish an opaque "something
// changed" signal on a channel, subscribers react by reloading in full.
// No payload crosses the bus.
type Bus interface {
	Publish(ctx context.Context, channel string) error
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
}

// Subscription is one standing listener on a channel. Changes delivers
// coalesced signals; a burst of publishes may surface as a single receive,
// which is sound because receivers reload wholesale. Close releases the
// underlying listener and closes the Changes channel; it must be called
// exactly once per Subscribe.
type Subscription struct {
	ch      chan struct{}
	release func() error

	mu     sync.Mutex
	closed bool
}

func newSubscription(release func() error) *Subscription {
	return &Subscription{ch: make(chan struct{}, 1), release: release}
}

// Changes returns the signal channel. It is closed by Close.
func (s *Subscription) Changes() <-chan struct{} { return s.ch }

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	if s.release != nil {
		return s.release()
	}
	return nil
}

// notify delivers one coalesced signal; drops it if one is already
// pending or the subscription is closed.
func (s *Subscription) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}
