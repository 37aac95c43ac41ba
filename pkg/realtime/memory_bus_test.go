package realtime

import (
	"context"
	"testing"
	"time"
)

func recvSignal(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case _, ok := <-sub.Changes():
		if !ok {
			t.Fatalf("subscription closed unexpectedly")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for signal")
	}
}

func TestMemoryBusDelivers(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	sub, err := bus.Subscribe(ctx, DirectoryChannel("u1"))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if err := bus.Publish(ctx, DirectoryChannel("u1")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	recvSignal(t, sub)
}

func TestMemoryBusChannelIsolation(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	sub, err := bus.Subscribe(ctx, MessagesChannel("c1"))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if err := bus.Publish(ctx, MessagesChannel("c2")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-sub.Changes():
		t.Fatalf("received signal for a different channel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionCoalescesBursts(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	sub, err := bus.Subscribe(ctx, MessagesChannel("c1"))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	for i := 0; i < 10; i++ {
		if err := bus.Publish(ctx, MessagesChannel("c1")); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	// A burst collapses to at most one pending signal.
	recvSignal(t, sub)
	select {
	case _, ok := <-sub.Changes():
		if ok {
			t.Fatalf("expected at most one pending signal after burst")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionClose(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	sub, err := bus.Subscribe(ctx, DirectoryChannel("u1"))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	// Publishing after close must neither panic nor deliver.
	if err := bus.Publish(ctx, DirectoryChannel("u1")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, ok := <-sub.Changes(); ok {
		t.Fatalf("expected closed Changes channel")
	}
}
