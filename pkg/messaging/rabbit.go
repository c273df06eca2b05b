package messaging

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the outbound half of a message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// RabbitPublisher publishes JSON messages to a durable direct exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewRabbitPublisher dials the broker and declares exchange, queue and the binding for routingKeys.
func NewRabbitPublisher(url, exchange, queue string, routingKeys []string, logger *zap.Logger) (*RabbitPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	p := &RabbitPublisher{conn: conn, channel: ch, exchange: exchange, logger: logger}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("bind queue %s to %s: %w", queue, key, err)
		}
	}

	logger.Info("rabbitmq publisher ready", zap.String("exchange", exchange), zap.String("queue", queue))
	return p, nil
}

// Publish sends a persistent JSON message.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.Debug("message published", zap.String("exchange", p.exchange), zap.String("routing_key", routingKey))
	return nil
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && err != amqp.ErrClosed {
			return fmt.Errorf("close rabbitmq: %w", err)
		}
	}
	return nil
}

// LogPublisher is used when no broker is configured; messages are only logged.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher builds a publisher that writes messages to the logger.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the routing key and payload size.
func (p *LogPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	p.logger.Info("notification", zap.String("routing_key", routingKey), zap.ByteString("body", body))
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
