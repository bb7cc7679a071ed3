package domain_test

import (
	"testing"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	const ownerID = "customer-1"

	admin := domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	owner := domain.Actor{UserID: ownerID, Role: domain.RoleCustomer}
	stranger := domain.Actor{UserID: "customer-2", Role: domain.RoleCustomer}

	tests := []struct {
		name    string
		from    domain.OrderStatus
		to      domain.OrderStatus
		actor   domain.Actor
		wantErr bool
	}{
		{name: "pending to processing by admin: ok", from: domain.OrderStatusPending, to: domain.OrderStatusProcessing, actor: admin},
		{name: "pending to processing by owner: fail", from: domain.OrderStatusPending, to: domain.OrderStatusProcessing, actor: owner, wantErr: true},
		{name: "pending to cancelled by owner: ok", from: domain.OrderStatusPending, to: domain.OrderStatusCancelled, actor: owner},
		{name: "pending to cancelled by other customer: fail", from: domain.OrderStatusPending, to: domain.OrderStatusCancelled, actor: stranger, wantErr: true},
		{name: "pending to cancelled by admin: ok", from: domain.OrderStatusPending, to: domain.OrderStatusCancelled, actor: admin},
		{name: "pending to delivered by admin: fail", from: domain.OrderStatusPending, to: domain.OrderStatusDelivered, actor: admin, wantErr: true},
		{name: "pending to shipped by admin: fail", from: domain.OrderStatusPending, to: domain.OrderStatusShipped, actor: admin, wantErr: true},
		{name: "processing to shipped by admin: ok", from: domain.OrderStatusProcessing, to: domain.OrderStatusShipped, actor: admin},
		{name: "processing to cancelled by admin: ok", from: domain.OrderStatusProcessing, to: domain.OrderStatusCancelled, actor: admin},
		{name: "processing to cancelled by owner: fail", from: domain.OrderStatusProcessing, to: domain.OrderStatusCancelled, actor: owner, wantErr: true},
		{name: "shipped to delivered by admin: ok", from: domain.OrderStatusShipped, to: domain.OrderStatusDelivered, actor: admin},
		{name: "shipped to cancelled by admin: ok", from: domain.OrderStatusShipped, to: domain.OrderStatusCancelled, actor: admin},
		{name: "shipped to pending by admin: fail", from: domain.OrderStatusShipped, to: domain.OrderStatusPending, actor: admin, wantErr: true},
		{name: "delivered to cancelled by admin: fail", from: domain.OrderStatusDelivered, to: domain.OrderStatusCancelled, actor: admin, wantErr: true},
		{name: "cancelled to pending by admin: fail", from: domain.OrderStatusCancelled, to: domain.OrderStatusPending, actor: admin, wantErr: true},
		{name: "cancelled to cancelled by admin: fail", from: domain.OrderStatusCancelled, to: domain.OrderStatusCancelled, actor: admin, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.CheckTransition(tt.from, tt.to, tt.actor, ownerID)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidTransition)
				assert.Equal(t, domain.KindState, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	admin := domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}

	for _, status := range domain.OrderStatuses() {
		next := domain.NextStatuses(status, admin, "")
		if status.IsTerminal() {
			assert.Empty(t, next, status)
		} else {
			assert.Contains(t, next, domain.OrderStatusCancelled, status)
		}
	}
}

func TestToOrderStatus(t *testing.T) {
	status, err := domain.ToOrderStatus("processing")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, status)

	_, err = domain.ToOrderStatus("returned")
	require.EqualError(t, err, "invalid order status")
}
