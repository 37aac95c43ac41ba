package realtime

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const amqpExchange = "realtime"

// AMQPBus implements Bus over a RabbitMQ direct exchange: the channel name
// is the routing key, each subscription is an exclusive auto-delete queue.
// Drop-in alternative to RedisBus for deployments already running a broker.
type AMQPBus struct {
	conn *amqp.Connection

	mu  sync.Mutex
	pub *amqp.Channel // publishing channel; amqp channels are not goroutine safe
}

// NewAMQPBus dials the broker and declares the exchange.
func NewAMQPBus(url string) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := pub.ExchangeDeclare(amqpExchange, "direct", false, true, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPBus{conn: conn, pub: pub}, nil
}

// Publish signals a change on the channel.
func (b *AMQPBus) Publish(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.pub.PublishWithContext(ctx, amqpExchange, channel, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte("1"),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a standing listener on the channel.
func (b *AMQPBus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, channel, amqpExchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", channel, err)
	}
	sub := newSubscription(ch.Close)
	go func() {
		for range deliveries {
			sub.notify()
		}
	}()
	return sub, nil
}

// Close releases the broker connection and every open channel.
func (b *AMQPBus) Close() error {
	return b.conn.Close()
}
