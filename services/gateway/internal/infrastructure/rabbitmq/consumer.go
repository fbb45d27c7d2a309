package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/orderpay/orderpay/internal/contracts/event"
	"github.com/orderpay/orderpay/internal/pkg/amqpx"
	"github.com/orderpay/orderpay/internal/pkg/logger"
)

const consumerTag = "gateway-fanout"

// Broadcaster is the slice of the ws hub the consumer needs.
type Broadcaster interface {
	Broadcast(orderID int64, v any) int
}

// Consumer forwards order.status_changed events to live websocket
// subscribers. Deliveries are always acked after the best-effort send loop:
// subscribers are ephemeral and not part of durability.
type Consumer struct {
	url      string
	exchange string
	hub      Broadcaster
}

func NewConsumer(url, exchange string, hub Broadcaster) *Consumer {
	return &Consumer{url: url, exchange: exchange, hub: hub}
}

func (c *Consumer) Start(ctx context.Context) {
	go func() {
		log := logger.Logger.With().Str("component", "rabbitmq_consumer").Logger()
		for ctx.Err() == nil {
			if err := c.consume(ctx, log); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("consume session ended; reconnecting")
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
				}
			}
		}
		log.Info().Msg("stopped")
	}()
}

func (c *Consumer) consume(ctx context.Context, log zerolog.Logger) error {
	conn, err := amqpx.DialWithRetry(ctx, c.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := amqpx.DeclareDirect(ch, c.exchange); err != nil {
		return err
	}
	q, err := amqpx.DeclareBoundQueue(ch, c.exchange, event.QueueOrderStatusChanged, event.RKOrderStatusChanged)
	if err != nil {
		return err
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(q.Name, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}

	log.Info().Str("queue", q.Name).Msg("consumer started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(d)
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleDelivery(d amqp.Delivery) {
	log := logger.Logger.With().
		Str("component", "rabbitmq_consumer").
		Str("routing_key", d.RoutingKey).
		Logger()

	var msg event.OrderStatusChanged
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Warn().Err(err).Msg("invalid status change payload; dropping")
		return
	}
	if msg.OrderID <= 0 {
		log.Warn().Msg("status change missing order_id; dropping")
		return
	}

	sent := c.hub.Broadcast(msg.OrderID, msg)
	if sent > 0 {
		log.Info().
			Int64("order_id", msg.OrderID).
			Str("status", msg.Status).
			Int("subscribers", sent).
			Msg("status fanned out")
	}
}
