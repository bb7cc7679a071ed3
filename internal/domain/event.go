package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
)

// Event is published to subscribers through the outbox. Key is the partitioning key.
type Event struct {
	ID        uuid.UUID
	Type      string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
}

type OutboxRecord struct {
	ID     int64
	Event  Event
	SentAt *time.Time
}

// StatusChange is one audited order transition.
type StatusChange struct {
	OrderID   uuid.UUID
	From      OrderStatus
	To        OrderStatus
	ActorID   string
	ActorRole Role
	Reason    string
	TraceID   string
	SpanID    string
	ChangedAt time.Time
}
