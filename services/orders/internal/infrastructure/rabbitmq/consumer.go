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

const consumerTag = "orders-consumer"

// errPoison marks an unparseable delivery: nack without requeue so the broker
// does not redeliver it forever.
var errPoison = errors.New("poison message")

// ResultApplier is the slice of the repository the consumer needs.
type ResultApplier interface {
	ApplyPaymentResult(ctx context.Context, msg event.PaymentResult, raw []byte) (bool, error)
}

// Consumer applies payment.result events to order rows.
type Consumer struct {
	url      string
	exchange string
	repo     ResultApplier
}

func NewConsumer(url, exchange string, repo ResultApplier) *Consumer {
	return &Consumer{url: url, exchange: exchange, repo: repo}
}

// Start runs the consume loop in its own goroutine, reconnecting with backoff
// whenever the broker connection drops, until ctx is canceled.
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

// consume runs one broker session: declare topology, then process deliveries
// sequentially until the channel closes or ctx is canceled.
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
	q, err := amqpx.DeclareBoundQueue(ch, c.exchange, event.QueuePaymentResult, event.RKPaymentResult)
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
			switch err := c.handleDelivery(ctx, d); {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, errPoison):
				_ = d.Nack(false, false)
			default:
				_ = d.Nack(false, true)
			}
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) error {
	log := logger.Logger.With().
		Str("component", "rabbitmq_consumer").
		Str("routing_key", d.RoutingKey).
		Logger()

	var msg event.PaymentResult
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Warn().Err(err).Msg("invalid payment result payload")
		return errPoison
	}
	if msg.MessageID == "" || msg.OrderID <= 0 {
		log.Warn().Msg("payment result missing message_id or order_id")
		return errPoison
	}

	processed, err := c.repo.ApplyPaymentResult(ctx, msg, d.Body)
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.MessageID).Msg("apply failed (requeue)")
		return err
	}
	if !processed {
		log.Info().Str("message_id", msg.MessageID).Msg("duplicate delivery ignored")
		return nil
	}

	log.Info().
		Str("message_id", msg.MessageID).
		Int64("order_id", msg.OrderID).
		Str("status", msg.Status).
		Msg("order status updated")
	return nil
}
