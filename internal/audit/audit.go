// Package audit builds entries for the order status audit trail.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"go.opentelemetry.io/otel/trace"
)

// NewStatusChange builds an audit entry for a committed transition, taking the
// trace_id and span_id of the active span in ctx when there is one.
func NewStatusChange(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, actor domain.Actor, reason string, at time.Time) domain.StatusChange {
	change := domain.StatusChange{
		OrderID:   orderID,
		From:      from,
		To:        to,
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Reason:    reason,
		ChangedAt: at.UTC(),
	}

	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		change.TraceID = sc.TraceID().String()
		change.SpanID = sc.SpanID().String()
	}

	return change
}
