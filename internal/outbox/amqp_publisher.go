package outbox

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/orderpay/orderpay/internal/pkg/amqpx"
)

// AMQPPublisher publishes persistent JSON messages to the events exchange.
// The channel is opened lazily and dropped on publish failure, so the relay's
// error backoff doubles as the reconnect schedule.
type AMQPPublisher struct {
	url      string
	exchange string
	appID    string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, exchange, appID string) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: exchange, appID: appID}
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		AppId:        p.appID,
		Body:         body,
	})
	if err != nil {
		p.reset()
	}
	return err
}

func (p *AMQPPublisher) Close() {
	p.reset()
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		return p.ch, nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := amqpx.DeclareDirect(ch, p.exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	p.conn = conn
	p.ch = ch
	return p.ch, nil
}

func (p *AMQPPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
