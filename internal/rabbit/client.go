package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"eventportal/internal/metrics"
	"eventportal/internal/model"
)

type Config struct {
	URL      string
	Exchange string
	Queue    string
	Prefetch int
}

type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	log      *zerolog.Logger

	mu sync.Mutex
}

// NewRabbit connects and declares a delayed-message exchange bound to one
// durable queue. The broker needs the rabbitmq_delayed_message_exchange
// plugin.
func NewRabbit(cfg Config, log *zerolog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open RabbitMQ channel: %w", err)
	}

	client := &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		log:      log,
	}

	if err := client.declare(cfg.Prefetch); err != nil {
		client.Close()
		return nil, err
	}

	log.Info().Msgf("RabbitMQ initialized (exchange=%s, queue=%s)", cfg.Exchange, cfg.Queue)
	return client, nil
}

func (c *Client) declare(prefetch int) error {
	args := amqp.Table{"x-delayed-type": "direct"}
	if err := c.channel.ExchangeDeclare(
		c.exchange,
		"x-delayed-message",
		true,
		false,
		false,
		false,
		args,
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}

	if _, err := c.channel.QueueDeclare(
		c.queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}

	if err := c.channel.QueueBind(
		c.queue,
		"",
		c.exchange,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.queue, err)
	}

	if prefetch > 0 {
		if err := c.channel.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set prefetch: %w", err)
		}
	}
	return nil
}

func (c *Client) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.log.Info().Msg("RabbitMQ connection closed")
}

// Publish sends message to the exchange; the broker holds it for delay
// before routing it to the queue.
func (c *Client) Publish(ctx context.Context, message []byte, delay time.Duration) error {
	headers := delayHeaders(delay)

	c.mu.Lock()
	err := c.channel.PublishWithContext(ctx,
		c.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         message,
			Timestamp:    time.Now(),
			Headers:      headers,
		},
	)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("publish to %s: %w", c.exchange, err)
	}
	c.log.Debug().Msgf("Message published to exchange=%s delay=%s", c.exchange, delay)
	return nil
}

func delayHeaders(delay time.Duration) amqp.Table {
	headers := amqp.Table{}
	if ms := delay.Milliseconds(); ms > 0 {
		headers["x-delay"] = int32(ms)
	}
	return headers
}

// Notify publishes n as JSON so the mail worker picks it up after delay.
func (c *Client) Notify(ctx context.Context, n model.Notification, delay time.Duration) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := c.Publish(ctx, body, delay); err != nil {
		metrics.Notifications.WithLabelValues(n.Kind, "publish_failed").Inc()
		return err
	}
	metrics.Notifications.WithLabelValues(n.Kind, "published").Inc()
	return nil
}

// Consume hands every delivery to handler until ctx is done. A handler
// error requeues the message once; a redelivered message that fails again
// is dropped.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	msgs, err := c.channel.ConsumeWithContext(ctx,
		c.queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.log.Info().Msgf("Started consuming from queue %s", c.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := handler(ctx, d.Body); err != nil {
				c.log.Warn().Err(err).Bool("redelivered", d.Redelivered).Msg("failed to process message")
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
