package checkout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/pkg/metrics"
	"github.com/nikolayk812/storefront/internal/pricing"
	"github.com/nikolayk812/storefront/internal/repository/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/currency"
)

var now = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

var (
	admin = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}

	hcmAddress = domain.Address{FullName: "Nguyen Van An", Phone: "0901234567", Line1: "1 Le Loi", Province: "TP. Hồ Chí Minh"}
)

type serviceSuite struct {
	suite.Suite

	store    *memory.Store
	service  *checkout.Service
	metrics  *metrics.CheckoutMetrics
	auditLog *fakeAuditLog
	customer domain.Actor
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(serviceSuite))
}

func (suite *serviceSuite) SetupTest() {
	suite.store = memory.NewStore()
	suite.metrics = metrics.NewCheckoutMetrics(prometheus.NewRegistry())
	suite.auditLog = &fakeAuditLog{}
	suite.customer = domain.Actor{UserID: gofakeit.UUID(), Role: domain.RoleCustomer}

	table, err := pricing.NewShippingTable(dong, []pricing.Zone{
		{Name: "hcm", Fee: decimal.NewFromInt(30_000), Provinces: []string{"Hồ Chí Minh"}},
		{Name: "north", Fee: decimal.NewFromInt(45_000), Provinces: []string{"Hà Nội"}},
	}, nil)
	suite.Require().NoError(err)

	calc, err := pricing.NewCalculator(dong, table, pricing.WithClock(func() time.Time { return now }))
	suite.Require().NoError(err)

	suite.service, err = checkout.NewService(suite.store, calc,
		checkout.WithMetrics(suite.metrics),
		checkout.WithAuditLog(suite.auditLog),
		checkout.WithClock(func() time.Time { return now }),
	)
	suite.Require().NoError(err)
}

func (suite *serviceSuite) TestCreateOrder_WithVoucher() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	hat := suite.insertVariant(100_000, 5)
	voucherID := suite.insertVoucher(summerVoucher())

	order, err := suite.service.CreateOrder(ctx, suite.customer, checkout.CreateOrderInput{
		Items: []checkout.ItemInput{
			{VariantID: shirt, Quantity: 2},
			{VariantID: hat, Quantity: 1},
		},
		ShippingAddress: hcmAddress,
		PaymentMethod:   domain.PaymentCOD,
		VoucherCode:     " summer20 ",
	})
	suite.Require().NoError(err)

	suite.NotEqual(uuid.Nil, order.ID)
	suite.Equal(domain.OrderStatusPending, order.Status)
	suite.Equal(suite.customer.UserID, order.OwnerID)
	suite.Equal(lo.ToPtr("SUMMER20"), order.VoucherCode)
	assertTotals(suite.T(), order.Totals(), 500_000, 30_000, 80_000, 450_000)

	suite.Equal(8, suite.stock(shirt))
	suite.Equal(4, suite.stock(hat))

	usage, err := suite.store.Vouchers().GetVoucherUsage(ctx, voucherID, suite.customer.UserID)
	suite.Require().NoError(err)
	suite.Equal(domain.VoucherUsage{Total: 1, ForUser: 1}, usage)

	pending, err := suite.store.Outbox().FetchPendingEvents(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.Equal(domain.EventOrderCreated, pending[0].Event.Type)
	suite.Equal(order.ID.String(), pending[0].Event.Key)

	suite.InDelta(1, testutil.ToFloat64(suite.metrics.OrdersCreated), 0)
	suite.InDelta(1, testutil.ToFloat64(suite.metrics.VouchersUsed), 0)
}

func (suite *serviceSuite) TestCreateOrder_MergesDuplicateVariants() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(150_000, 3)

	order, err := suite.service.CreateOrder(ctx, suite.customer, checkout.CreateOrderInput{
		Items: []checkout.ItemInput{
			{VariantID: shirt, Quantity: 1},
			{VariantID: shirt, Quantity: 2},
		},
		ShippingAddress: hcmAddress,
		PaymentMethod:   domain.PaymentBankTransfer,
	})
	suite.Require().NoError(err)

	suite.Require().Len(order.Items, 1)
	suite.Equal(3, order.Items[0].Quantity)
	assertTotals(suite.T(), order.Totals(), 450_000, 30_000, 0, 480_000)
	suite.Equal(0, suite.stock(shirt))
}

func (suite *serviceSuite) TestCreateOrder_Failures() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	scarce := suite.insertVariant(100_000, 1)
	inactive := suite.insertVariantWith(func(v *domain.ProductVariant) { v.IsActive = false })
	suite.insertVoucher(summerVoucher())

	expired := summerVoucher()
	expired.Code = "EXPIRED"
	expired.StartDate = now.Add(-48 * time.Hour)
	expired.EndDate = now.Add(-24 * time.Hour)
	suite.insertVoucher(expired)

	tests := []struct {
		name    string
		input   checkout.CreateOrderInput
		wantErr error
	}{
		{
			name:    "no items: fail",
			input:   checkout.CreateOrderInput{ShippingAddress: hcmAddress, PaymentMethod: domain.PaymentCOD},
			wantErr: domain.ErrEmptyOrder,
		},
		{
			name: "zero quantity: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
			},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name: "quantity beyond the storable range: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 1<<32 + 1}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
			},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name: "merged quantity beyond the storable range: fail",
			input: checkout.CreateOrderInput{
				Items: []checkout.ItemInput{
					{VariantID: shirt, Quantity: domain.MaxQuantity},
					{VariantID: shirt, Quantity: 1},
				},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
			},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name: "out of stock: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 2}, {VariantID: scarce, Quantity: 2}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
			},
			wantErr: domain.ErrOutOfStock,
		},
		{
			name: "inactive variant: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 1}, {VariantID: inactive, Quantity: 1}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
			},
			wantErr: domain.ErrOutOfStock,
		},
		{
			name: "unknown variant: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: uuid.New(), Quantity: 1}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
			},
			wantErr: domain.ErrVariantNotFound,
		},
		{
			name: "unknown voucher: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 2}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
				VoucherCode:     "NOPE",
			},
			wantErr: domain.ErrVoucherNotFound,
		},
		{
			name: "expired voucher: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 2}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
				VoucherCode:     "expired",
			},
			wantErr: domain.ErrVoucherInactive,
		},
		{
			name: "below voucher minimum: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 1}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
				VoucherCode:     "SUMMER20",
			},
			wantErr: domain.ErrVoucherBelowMinimum,
		},
		{
			name: "unknown province: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 1}},
				ShippingAddress: domain.Address{Line1: "1 Tran Phu", Province: "Atlantis"},
				PaymentMethod:   domain.PaymentCOD,
			},
			wantErr: domain.ErrUnresolvableAddress,
		},
		{
			name: "missing address: fail",
			input: checkout.CreateOrderInput{
				Items:         []checkout.ItemInput{{VariantID: shirt, Quantity: 1}},
				PaymentMethod: domain.PaymentCOD,
			},
			wantErr: domain.ErrInvalidAddress,
		},
		{
			name: "unknown payment method: fail",
			input: checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 1}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   "barter",
			},
			wantErr: domain.ErrInvalidPayment,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.CreateOrder(ctx, suite.customer, tt.input)
			suite.ErrorIs(err, tt.wantErr)
		})
	}

	// every failure rolled back its reservations
	suite.Equal(10, suite.stock(shirt))
	suite.Equal(1, suite.stock(scarce))

	page, err := suite.service.ListOrders(ctx, admin, domain.OrderFilter{}, domain.PageRequest{})
	suite.Require().NoError(err)
	suite.Zero(page.TotalItems)

	voucher, err := suite.store.Vouchers().GetVoucherByCode(ctx, "SUMMER20")
	suite.Require().NoError(err)
	suite.Zero(voucher.UsedCount)
}

func (suite *serviceSuite) TestCreateOrder_OneTimeVoucher() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)

	v := summerVoucher()
	v.IsOneTimePerUser = true
	suite.insertVoucher(v)

	input := checkout.CreateOrderInput{
		Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 2}},
		ShippingAddress: hcmAddress,
		PaymentMethod:   domain.PaymentCOD,
		VoucherCode:     "SUMMER20",
	}

	_, err := suite.service.CreateOrder(ctx, suite.customer, input)
	suite.Require().NoError(err)

	_, err = suite.service.CreateOrder(ctx, suite.customer, input)
	suite.ErrorIs(err, domain.ErrVoucherUsageExceeded)
	suite.Equal(8, suite.stock(shirt))

	other := domain.Actor{UserID: gofakeit.UUID(), Role: domain.RoleCustomer}
	_, err = suite.service.CreateOrder(ctx, other, input)
	suite.NoError(err)
	suite.Equal(6, suite.stock(shirt))
}

func (suite *serviceSuite) TestCreateOrder_ConcurrentLastUnit() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 1)

	const buyers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			buyer := domain.Actor{UserID: gofakeit.UUID(), Role: domain.RoleCustomer}
			_, err := suite.service.CreateOrder(ctx, buyer, checkout.CreateOrderInput{
				Items:           []checkout.ItemInput{{VariantID: shirt, Quantity: 1}},
				ShippingAddress: hcmAddress,
				PaymentMethod:   domain.PaymentCOD,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			suite.ErrorIs(err, domain.ErrOutOfStock)
		}()
	}
	wg.Wait()

	suite.Equal(1, succeeded)
	suite.Equal(0, suite.stock(shirt))
}

func (suite *serviceSuite) TestComputeTotal_IsReadOnly() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	hat := suite.insertVariant(100_000, 5)
	suite.insertVoucher(summerVoucher())

	totals, err := suite.service.ComputeTotal(ctx, suite.customer, checkout.QuoteInput{
		Items: []checkout.ItemInput{
			{VariantID: shirt, Quantity: 2},
			{VariantID: hat, Quantity: 1},
		},
		ShippingAddress: domain.Address{Line1: "2 Hang Bai", Province: "ha noi"},
		VoucherCode:     "SUMMER20",
	})
	suite.Require().NoError(err)

	assertTotals(suite.T(), totals, 500_000, 45_000, 80_000, 465_000)

	suite.Equal(10, suite.stock(shirt))
	suite.Equal(5, suite.stock(hat))

	voucher, err := suite.store.Vouchers().GetVoucherByCode(ctx, "SUMMER20")
	suite.Require().NoError(err)
	suite.Zero(voucher.UsedCount)
}

func (suite *serviceSuite) TestChangeStatus_CancelRestoresStockOnce() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	order := suite.createOrder(shirt, 3)
	suite.Equal(7, suite.stock(shirt))

	cancelled, err := suite.service.ChangeStatus(ctx, suite.customer, order.ID, domain.OrderStatusCancelled, "changed my mind")
	suite.Require().NoError(err)

	suite.Equal(domain.OrderStatusCancelled, cancelled.Status)
	suite.Equal(lo.ToPtr("changed my mind"), cancelled.CancelReason)
	suite.Equal(10, suite.stock(shirt))

	_, err = suite.service.ChangeStatus(ctx, admin, order.ID, domain.OrderStatusCancelled, "")
	suite.ErrorIs(err, domain.ErrInvalidTransition)
	suite.Equal(10, suite.stock(shirt))

	suite.InDelta(3, testutil.ToFloat64(suite.metrics.StockRestored), 0)
	suite.InDelta(1, testutil.ToFloat64(suite.metrics.Transitions.WithLabelValues("pending", "cancelled")), 0)
	suite.InDelta(1, testutil.ToFloat64(suite.metrics.Failures.WithLabelValues("change_status", "state")), 0)

	changes := suite.auditLog.changes()
	suite.Require().Len(changes, 1)
	suite.Equal(domain.OrderStatusPending, changes[0].From)
	suite.Equal(domain.OrderStatusCancelled, changes[0].To)
	suite.Equal(suite.customer.UserID, changes[0].ActorID)
	suite.Equal("changed my mind", changes[0].Reason)
}

func (suite *serviceSuite) TestChangeStatus_ConcurrentCancel() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	order := suite.createOrder(shirt, 4)

	const cancellers = 5

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for range cancellers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := suite.service.ChangeStatus(ctx, admin, order.ID, domain.OrderStatusCancelled, "")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	suite.Equal(1, succeeded)
	suite.Equal(10, suite.stock(shirt))
}

func (suite *serviceSuite) TestChangeStatus_Lifecycle() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	order := suite.createOrder(shirt, 1)

	_, err := suite.service.ChangeStatus(ctx, suite.customer, order.ID, domain.OrderStatusProcessing, "")
	suite.ErrorIs(err, domain.ErrInvalidTransition)

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		updated, err := suite.service.ChangeStatus(ctx, admin, order.ID, status, "")
		suite.Require().NoError(err)
		suite.Equal(status, updated.Status)
	}

	_, err = suite.service.ChangeStatus(ctx, admin, order.ID, domain.OrderStatusCancelled, "")
	suite.ErrorIs(err, domain.ErrInvalidTransition)

	_, err = suite.service.ChangeStatus(ctx, admin, order.ID, "lost", "")
	suite.Equal(domain.KindValidation, domain.KindOf(err))

	suite.Equal(9, suite.stock(shirt))
	suite.Len(suite.auditLog.changes(), 3)
}

func (suite *serviceSuite) TestChangeStatus_CustomerCannotCancelProcessing() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	order := suite.createOrder(shirt, 1)

	_, err := suite.service.ChangeStatus(ctx, admin, order.ID, domain.OrderStatusProcessing, "")
	suite.Require().NoError(err)

	_, err = suite.service.ChangeStatus(ctx, suite.customer, order.ID, domain.OrderStatusCancelled, "")
	suite.ErrorIs(err, domain.ErrInvalidTransition)

	cancelled, err := suite.service.ChangeStatus(ctx, admin, order.ID, domain.OrderStatusCancelled, "warehouse fire")
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCancelled, cancelled.Status)
	suite.Equal(10, suite.stock(shirt))
}

func (suite *serviceSuite) TestOrderVisibility() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	order := suite.createOrder(shirt, 1)

	stranger := domain.Actor{UserID: gofakeit.UUID(), Role: domain.RoleCustomer}

	_, err := suite.service.GetOrder(ctx, stranger, order.ID)
	suite.ErrorIs(err, domain.ErrOrderNotFound)

	_, err = suite.service.ChangeStatus(ctx, stranger, order.ID, domain.OrderStatusCancelled, "")
	suite.ErrorIs(err, domain.ErrOrderNotFound)

	got, err := suite.service.GetOrder(ctx, suite.customer, order.ID)
	suite.Require().NoError(err)
	suite.Equal(order.ID, got.ID)

	got, err = suite.service.GetOrder(ctx, admin, order.ID)
	suite.Require().NoError(err)
	suite.Equal(order.ID, got.ID)

	page, err := suite.service.ListOrders(ctx, stranger, domain.OrderFilter{OwnerIDs: []string{suite.customer.UserID}}, domain.PageRequest{})
	suite.Require().NoError(err)
	suite.Empty(page.Items)

	page, err = suite.service.ListOrders(ctx, suite.customer, domain.OrderFilter{}, domain.PageRequest{})
	suite.Require().NoError(err)
	suite.Require().Len(page.Items, 1)
	suite.Equal(order.ID, page.Items[0].ID)
}

func (suite *serviceSuite) TestListOrders_Paging() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(100_000, 100)
	for range 5 {
		suite.createOrder(shirt, 1)
	}

	page, err := suite.service.ListOrders(ctx, admin, domain.OrderFilter{}, domain.PageRequest{Page: 2, Limit: 2})
	suite.Require().NoError(err)

	suite.Len(page.Items, 2)
	suite.Equal(2, page.Page)
	suite.Equal(2, page.Limit)
	suite.Equal(3, page.TotalPages)
	suite.Equal(5, page.TotalItems)

	page, err = suite.service.ListOrders(ctx, admin, domain.OrderFilter{Statuses: []domain.OrderStatus{domain.OrderStatusShipped}}, domain.PageRequest{})
	suite.Require().NoError(err)
	suite.Empty(page.Items)
	suite.Zero(page.TotalPages)
}

func (suite *serviceSuite) TestDeleteOrder() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	order := suite.createOrder(shirt, 1)

	err := suite.service.DeleteOrder(ctx, suite.customer, order.ID)
	suite.ErrorIs(err, domain.ErrForbidden)

	err = suite.service.DeleteOrder(ctx, admin, order.ID)
	suite.ErrorIs(err, domain.ErrInvalidState)

	_, err = suite.service.ChangeStatus(ctx, admin, order.ID, domain.OrderStatusCancelled, "")
	suite.Require().NoError(err)

	err = suite.service.DeleteOrder(ctx, admin, order.ID)
	suite.Require().NoError(err)

	_, err = suite.service.GetOrder(ctx, admin, order.ID)
	suite.ErrorIs(err, domain.ErrOrderNotFound)

	err = suite.service.DeleteOrder(ctx, admin, order.ID)
	suite.ErrorIs(err, domain.ErrOrderNotFound)
}

func (suite *serviceSuite) TestPurgeOrder() {
	ctx := suite.T().Context()

	shirt := suite.insertVariant(200_000, 10)
	order := suite.createOrder(shirt, 1)

	_, err := suite.service.ChangeStatus(ctx, admin, order.ID, domain.OrderStatusCancelled, "")
	suite.Require().NoError(err)

	err = suite.service.PurgeOrder(ctx, admin, order.ID)
	suite.Require().NoError(err)

	_, err = suite.store.Orders().GetOrder(ctx, order.ID)
	suite.ErrorIs(err, domain.ErrOrderNotFound)

	pending, err := suite.store.Outbox().FetchPendingEvents(ctx, 10)
	suite.Require().NoError(err)

	types := lo.Map(pending, func(r domain.OutboxRecord, _ int) string { return r.Event.Type })
	suite.Equal([]string{domain.EventOrderCreated, domain.EventOrderStatusChanged, domain.EventOrderDeleted}, types)
}

func TestNewService(t *testing.T) {
	table, err := pricing.NewShippingTable(dong, nil, lo.ToPtr(decimal.NewFromInt(25_000)))
	require.NoError(t, err)

	calc, err := pricing.NewCalculator(dong, table)
	require.NoError(t, err)

	_, err = checkout.NewService(nil, calc)
	assert.Error(t, err)

	_, err = checkout.NewService(memory.NewStore(), nil)
	assert.Error(t, err)

	_, err = checkout.NewService(memory.NewStore(), calc)
	assert.NoError(t, err)
}

func (suite *serviceSuite) createOrder(variantID uuid.UUID, quantity int) domain.Order {
	order, err := suite.service.CreateOrder(suite.T().Context(), suite.customer, checkout.CreateOrderInput{
		Items:           []checkout.ItemInput{{VariantID: variantID, Quantity: quantity}},
		ShippingAddress: hcmAddress,
		PaymentMethod:   domain.PaymentCOD,
	})
	suite.Require().NoError(err)
	return order
}

func (suite *serviceSuite) insertVariant(price int64, stock int) uuid.UUID {
	return suite.insertVariantWith(func(v *domain.ProductVariant) {
		v.Price = vnd(price)
		v.Stock = stock
	})
}

func (suite *serviceSuite) insertVariantWith(modify func(v *domain.ProductVariant)) uuid.UUID {
	variant := domain.ProductVariant{
		ProductID: uuid.New(),
		Color:     gofakeit.Color(),
		Size:      gofakeit.RandomString([]string{"S", "M", "L", "XL"}),
		Price:     vnd(100_000),
		Stock:     10,
		IsActive:  true,
	}
	modify(&variant)

	id, err := suite.store.Variants().InsertVariant(suite.T().Context(), variant)
	suite.Require().NoError(err)
	return id
}

func (suite *serviceSuite) insertVoucher(v domain.Voucher) uuid.UUID {
	id, err := suite.store.Vouchers().InsertVoucher(suite.T().Context(), v)
	suite.Require().NoError(err)
	return id
}

func (suite *serviceSuite) stock(variantID uuid.UUID) int {
	v, err := suite.store.Variants().GetVariant(suite.T().Context(), variantID)
	suite.Require().NoError(err)
	return v.Stock
}

func summerVoucher() domain.Voucher {
	return domain.Voucher{
		Code:                  "SUMMER20",
		DiscountPercent:       decimal.NewFromInt(20),
		MinimumOrderValue:     decimal.NewFromInt(300_000),
		MaximumDiscountAmount: lo.ToPtr(decimal.NewFromInt(80_000)),
		StartDate:             now.Add(-24 * time.Hour),
		EndDate:               now.Add(24 * time.Hour),
		IsActive:              true,
	}
}

var dong = currency.MustParseISO("VND")

func vnd(amount int64) domain.Money {
	return domain.NewMoney(decimal.NewFromInt(amount), dong)
}

func assertTotals(t *testing.T, got domain.TotalBreakdown, subtotal, shipping, discount, final int64) {
	t.Helper()

	assert.True(t, decimal.NewFromInt(subtotal).Equal(got.Subtotal.Amount), "subtotal %s", got.Subtotal)
	assert.True(t, decimal.NewFromInt(shipping).Equal(got.ShippingFee.Amount), "shipping %s", got.ShippingFee)
	assert.True(t, decimal.NewFromInt(discount).Equal(got.DiscountAmount.Amount), "discount %s", got.DiscountAmount)
	assert.True(t, decimal.NewFromInt(final).Equal(got.FinalTotal.Amount), "final %s", got.FinalTotal)
	assert.Equal(t, dong, got.FinalTotal.Currency)
}

type fakeAuditLog struct {
	mu      sync.Mutex
	entries []domain.StatusChange
}

func (f *fakeAuditLog) Save(_ context.Context, change domain.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append(f.entries, change)
	return nil
}

func (f *fakeAuditLog) changes() []domain.StatusChange {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]domain.StatusChange(nil), f.entries...)
}
