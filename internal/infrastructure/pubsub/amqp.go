package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AMQP publishes to a durable direct exchange with the broker channel as the
// routing key. Each subscription gets its own exclusive auto-delete queue.
type AMQP struct {
	conn     *amqp.Connection
	exchange string
	buffer   int
	logger   *logrus.Logger

	mu  sync.Mutex
	pub *amqp.Channel
}

func NewAMQP(url, exchange string, buffer int, logger *logrus.Logger) (*AMQP, error) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeDirect,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}
	return &AMQP{conn: conn, exchange: exchange, buffer: buffer, logger: logger, pub: ch}, nil
}

func (a *AMQP) Close() {
	if a == nil {
		return
	}
	if a.pub != nil {
		_ = a.pub.Close()
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
}

func (a *AMQP) Publish(ctx context.Context, channel string, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pub.PublishWithContext(ctx,
		a.exchange,
		channel, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now().UTC(),
			Body:        payload,
		},
	)
}

func (a *AMQP) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, channel, a.exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue bind: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	out := make(chan []byte, a.buffer)
	go func() {
		defer close(out)
		defer func() { _ = ch.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					if a.logger != nil {
						a.logger.WithField("channel", channel).Warn("amqp deliveries closed")
					}
					return
				}
				select {
				case out <- d.Body:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
