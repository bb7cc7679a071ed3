package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/prometheus/client_golang/prometheus"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Relay moves pending outbox events to a Publisher. Delivery is at least once: an event is
// marked sent only after Publish returns nil.
type Relay struct {
	store     port.Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	relayed   *prometheus.CounterVec
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) { r.interval = d }
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) { r.batchSize = n }
}

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = logger }
}

// WithCounter counts relayed events by result label "sent" or "failed".
func WithCounter(c *prometheus.CounterVec) RelayOption {
	return func(r *Relay) { r.relayed = c }
}

func NewRelay(store port.Store, publisher Publisher, opts ...RelayOption) (*Relay, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if publisher == nil {
		return nil, errors.New("publisher is nil")
	}

	r := &Relay{
		store:     store,
		publisher: publisher,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.interval <= 0 || r.batchSize <= 0 {
		return nil, errors.New("interval and batch size must be positive")
	}

	return r, nil
}

// Run relays batches every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "outbox relay failed", slog.Any("error", err))
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events were marked sent. A publish failure
// stops the batch; events published before it are still marked. Publishing happens outside any
// store transaction, a short transaction marks the published events afterwards.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	records, err := r.store.Outbox().FetchPendingEvents(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("FetchPendingEvents: %w", err)
	}

	var (
		published  = make([]int64, 0, len(records))
		publishErr error
	)

	for _, record := range records {
		if err := r.publisher.Publish(ctx, record.Event); err != nil {
			publishErr = fmt.Errorf("publisher.Publish[%d]: %w", record.ID, err)
			r.count("failed")
			break
		}
		published = append(published, record.ID)
	}

	if len(published) == 0 {
		return 0, publishErr
	}

	err = r.store.InTx(ctx, func(tx port.Store) error {
		for _, id := range published {
			if err := tx.Outbox().MarkEventSent(ctx, id); err != nil {
				return fmt.Errorf("MarkEventSent[%d]: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		// the events go out again on the next run
		return 0, errors.Join(fmt.Errorf("store.InTx: %w", err), publishErr)
	}

	for range published {
		r.count("sent")
	}

	r.logger.DebugContext(ctx, "outbox events relayed", slog.Int("count", len(published)))

	return len(published), publishErr
}

func (r *Relay) count(result string) {
	if r.relayed != nil {
		r.relayed.WithLabelValues(result).Inc()
	}
}
