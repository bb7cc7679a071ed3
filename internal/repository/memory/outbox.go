package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type outboxRepository struct {
	v *view
}

func (r *outboxRepository) InsertEvent(_ context.Context, event domain.Event) error {
	if event.ID == uuid.Nil {
		return fmt.Errorf("event id is empty")
	}

	if event.Type == "" {
		return fmt.Errorf("event type is empty")
	}

	return r.v.apply(func(st *state) error {
		st.outboxSeq++
		st.outbox = append(st.outbox, domain.OutboxRecord{ID: st.outboxSeq, Event: event})
		return nil
	})
}

func (r *outboxRepository) FetchPendingEvents(_ context.Context, limit int) ([]domain.OutboxRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	var result []domain.OutboxRecord

	err := r.v.apply(func(st *state) error {
		for _, record := range st.outbox {
			if record.SentAt != nil {
				continue
			}
			result = append(result, record)
			if len(result) == limit {
				break
			}
		}
		return nil
	})

	return result, err
}

func (r *outboxRepository) MarkEventSent(_ context.Context, id int64) error {
	return r.v.apply(func(st *state) error {
		for i, record := range st.outbox {
			if record.ID == id && record.SentAt == nil {
				now := r.v.now()
				st.outbox[i].SentAt = &now
			}
		}
		return nil
	})
}
