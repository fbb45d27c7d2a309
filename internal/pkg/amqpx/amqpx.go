// Package amqpx holds the small amount of RabbitMQ plumbing every service
// shares: connecting with a capped backoff and declaring the direct topology.
package amqpx

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/orderpay/orderpay/internal/pkg/logger"
)

const (
	dialBackoffStart = 1 * time.Second
	dialBackoffCap   = 10 * time.Second
)

// DialWithRetry dials the broker, retrying with exponential backoff (capped at
// 10s) until it succeeds or ctx is canceled. The broker is usually the last
// piece of infrastructure to come up, so startup must tolerate it being away.
func DialWithRetry(ctx context.Context, url string) (*amqp.Connection, error) {
	log := logger.Logger.With().Str("component", "amqp_dial").Logger()

	delay := dialBackoffStart
	for {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}

		log.Warn().Err(err).Dur("retry_in", delay).Msg("rabbitmq not ready")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > dialBackoffCap {
			delay = dialBackoffCap
		}
	}
}

// DeclareDirect declares the durable direct exchange. Idempotent.
func DeclareDirect(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil)
}

// DeclareBoundQueue declares a durable queue and binds it to the exchange
// with the given routing key. Idempotent.
func DeclareBoundQueue(ch *amqp.Channel, exchange, queue, routingKey string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return amqp.Queue{}, err
	}
	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return amqp.Queue{}, err
	}
	return q, nil
}
