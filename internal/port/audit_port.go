package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

// AuditLog is an append-only trail of order status changes.
type AuditLog interface {
	Save(ctx context.Context, change domain.StatusChange) error
}
