package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

type OutboxRepository interface {
	InsertEvent(ctx context.Context, event domain.Event) error

	FetchPendingEvents(ctx context.Context, limit int) ([]domain.OutboxRecord, error)

	MarkEventSent(ctx context.Context, id int64) error
}
