package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

type outboxRepository struct {
	q *db.Queries
}

func NewOutbox(dbtx db.DBTX) port.OutboxRepository {
	return &outboxRepository{
		q: db.New(dbtx),
	}
}

func (r *outboxRepository) InsertEvent(ctx context.Context, event domain.Event) error {
	if event.ID == uuid.Nil {
		return fmt.Errorf("event id is empty")
	}

	if event.Type == "" {
		return fmt.Errorf("event type is empty")
	}

	if err := r.q.InsertOutbox(ctx, db.InsertOutboxParams{
		EventID:   event.ID,
		EventType: event.Type,
		Key:       event.Key,
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}); err != nil {
		return fmt.Errorf("q.InsertOutbox: %w", err)
	}

	return nil
}

func (r *outboxRepository) FetchPendingEvents(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.q.FetchPendingOutbox(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("q.FetchPendingOutbox: %w", err)
	}

	records := make([]domain.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.OutboxRecord{
			ID: row.ID,
			Event: domain.Event{
				ID:        row.EventID,
				Type:      row.EventType,
				Key:       row.Key,
				Payload:   row.Payload,
				CreatedAt: row.CreatedAt,
			},
			SentAt: row.SentAt,
		})
	}

	return records, nil
}

func (r *outboxRepository) MarkEventSent(ctx context.Context, id int64) error {
	if _, err := r.q.MarkOutboxSent(ctx, id); err != nil {
		return fmt.Errorf("q.MarkOutboxSent: %w", err)
	}
	return nil
}
