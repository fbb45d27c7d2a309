// Package outbox implements the publisher half of the transactional outbox:
// a polling relay that moves committed outbox rows to the broker with
// at-least-once delivery. Rows are never deleted; published_at flipping from
// NULL is the single observable transition, and duplicate publication (crash
// between publish and mark) is expected and suppressed by consumer inboxes.
package outbox

import (
	"context"
	"time"

	"github.com/orderpay/orderpay/internal/contracts/event"
	"github.com/orderpay/orderpay/internal/pkg/logger"
)

const (
	DefaultBatchSize    = 20
	DefaultPollInterval = 1 * time.Second
	DefaultErrBackoff   = 2 * time.Second
)

// Row is one unpublished outbox entry.
type Row struct {
	ID          int64
	EventType   string
	AggregateID int64
	Payload     []byte
}

// Store is the per-service persistence the relay polls.
type Store interface {
	// FetchUnpublished returns up to limit rows with published_at IS NULL,
	// ordered by id ascending.
	FetchUnpublished(ctx context.Context, limit int) ([]Row, error)
	// MarkPublished sets published_at for the given ids in one statement.
	MarkPublished(ctx context.Context, ids []int64) error
}

// Publisher sends one persistent message to the events exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type Relay struct {
	store Store
	pub   Publisher
	name  string

	BatchSize    int
	PollInterval time.Duration
	ErrBackoff   time.Duration
}

func NewRelay(store Store, pub Publisher, name string) *Relay {
	return &Relay{
		store:        store,
		pub:          pub,
		name:         name,
		BatchSize:    DefaultBatchSize,
		PollInterval: DefaultPollInterval,
		ErrBackoff:   DefaultErrBackoff,
	}
}

// Start runs the relay loop in its own goroutine until ctx is canceled.
func (r *Relay) Start(ctx context.Context) {
	go r.Run(ctx)
}

// Run polls the outbox until ctx is canceled. Transient DB or broker errors
// are logged and retried after ErrBackoff; the relay never drops a row.
func (r *Relay) Run(ctx context.Context) {
	log := logger.Logger.With().Str("component", "outbox_relay").Str("service", r.name).Logger()
	log.Info().Msg("started")

	for {
		n, err := r.cycle(ctx)
		delay := r.PollInterval
		if err != nil {
			log.Warn().Err(err).Msg("outbox cycle failed")
			delay = r.ErrBackoff
		} else if n > 0 {
			log.Info().Int("published", n).Msg("outbox batch published")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("stopped")
			return
		case <-time.After(delay):
		}
	}
}

// cycle publishes one batch and marks it published. Publish order follows id
// order, which preserves per-aggregate FIFO because ids are assigned inside
// the transaction that wrote the state change.
func (r *Relay) cycle(ctx context.Context) (int, error) {
	rows, err := r.store.FetchUnpublished(ctx, r.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	log := logger.Logger.With().Str("component", "outbox_relay").Str("service", r.name).Logger()

	published := make([]int64, 0, len(rows))
	var pubErr error
	for _, row := range rows {
		rk := event.RoutingKeyFor(row.EventType)
		if rk == "" {
			// Malformed row: surface and skip. It stays unpublished until an
			// administrator marks it published manually.
			log.Error().
				Int64("outbox_id", row.ID).
				Str("event_type", row.EventType).
				Msg("unknown event type; row left unpublished")
			continue
		}

		if err := r.pub.Publish(ctx, rk, row.Payload); err != nil {
			pubErr = err
			break
		}
		published = append(published, row.ID)
	}

	if len(published) > 0 {
		if err := r.store.MarkPublished(ctx, published); err != nil {
			// The messages are already out; next cycle republishes and the
			// consumer inbox suppresses. Intentional, not a bug to fix.
			return len(published), err
		}
	}
	return len(published), pubErr
}
