package repository_test

import (
	"sort"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"golang.org/x/text/currency"
)

type orderRepositorySuite struct {
	suite.Suite

	repo      port.OrderRepository
	pool      *pgxpool.Pool
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestOrderRepositorySuite(t *testing.T) {
	suite.Run(t, new(orderRepositorySuite))
}

// before all tests in the suite
func (suite *orderRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = startPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	suite.repo = repository.NewOrder(suite.pool)
}

// after all tests in the suite
func (suite *orderRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(testcontainers.TerminateContainer(suite.container))
	}
}

func (suite *orderRepositorySuite) TestInsertOrder() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		orderFunc func() domain.Order
		wantError error
	}{
		{
			name:      "valid order with all fields: ok",
			orderFunc: randomOrder,
		},
		{
			name: "invalid order, no items: fail",
			orderFunc: func() domain.Order {
				o := randomOrder()
				o.Items = nil
				return o
			},
			wantError: domain.ErrEmptyOrder,
		},
		{
			name: "valid order, no voucher, minimal address: ok",
			orderFunc: func() domain.Order {
				o := randomOrder()
				o.VoucherCode = nil
				o.ShippingAddress = domain.Address{Line1: gofakeit.Street(), Province: "Ha Noi"}
				return o
			},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			ttOrder := tt.orderFunc()

			orderID, err := suite.repo.InsertOrder(ctx, ttOrder)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actualOrder, err := suite.repo.GetOrder(ctx, orderID)
			require.NoError(t, err)

			expected := ttOrder
			expected.Status = domain.OrderStatusPending

			assertOrder(t, expected, actualOrder)
		})
	}
}

func (suite *orderRepositorySuite) TestGetOrder() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		orderID   func() uuid.UUID
		wantError error
	}{
		{
			name: "existing order: ok",
			orderID: func() uuid.UUID {
				return suite.insertOrders(randomOrder())[0]
			},
		},
		{
			name: "non-existing order: not found",
			orderID: func() uuid.UUID {
				return uuid.MustParse(gofakeit.UUID())
			},
			wantError: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			order, err := suite.repo.GetOrder(t.Context(), tt.orderID())
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, order.Items)
		})
	}
}

func (suite *orderRepositorySuite) TestUpdateOrderStatus() {
	defer suite.deleteAll()

	tests := []struct {
		name         string
		from         domain.OrderStatus
		newStatus    domain.OrderStatus
		cancelReason *string
		prepareFunc  func(uuid.UUID) error // prepare a test case before updating the status, i.e. soft-delete the order
		targetIDFunc func() uuid.UUID      // which order ID to update, if nil use the inserted one
		wantError    error
		wantErrorMsg string
	}{
		{
			name:      "update status of existing order: ok",
			from:      domain.OrderStatusPending,
			newStatus: domain.OrderStatusProcessing,
		},
		{
			name:         "cancel with reason: ok",
			from:         domain.OrderStatusPending,
			newStatus:    domain.OrderStatusCancelled,
			cancelReason: lo.ToPtr("changed my mind"),
		},
		{
			name:      "stale from status: invalid transition",
			from:      domain.OrderStatusProcessing,
			newStatus: domain.OrderStatusShipped,
			wantError: domain.ErrInvalidTransition,
		},
		{
			name:      "update status of non-existing order: not found",
			from:      domain.OrderStatusPending,
			newStatus: domain.OrderStatusProcessing,
			targetIDFunc: func() uuid.UUID {
				return uuid.MustParse(gofakeit.UUID())
			},
			wantError: domain.ErrOrderNotFound,
		},
		{
			name:      "update status with empty order ID: error",
			from:      domain.OrderStatusPending,
			newStatus: domain.OrderStatusProcessing,
			targetIDFunc: func() uuid.UUID {
				return uuid.Nil
			},
			wantErrorMsg: "orderID is empty",
		},
		{
			name:         "update status with empty status: error",
			from:         domain.OrderStatusPending,
			newStatus:    "",
			wantErrorMsg: "status is empty",
		},
		{
			name:      "update status of soft-deleted order: not found",
			from:      domain.OrderStatusPending,
			newStatus: domain.OrderStatusProcessing,
			prepareFunc: func(u uuid.UUID) error {
				return suite.repo.SoftDeleteOrder(suite.T().Context(), u)
			},
			wantError: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			defer suite.deleteAll()

			t := suite.T()
			ctx := t.Context()

			ttOrder := randomOrder()

			orderID, err := suite.repo.InsertOrder(ctx, ttOrder)
			require.NoError(t, err)

			if tt.prepareFunc != nil {
				require.NoError(t, tt.prepareFunc(orderID))
			}

			targetOrderID := orderID
			if tt.targetIDFunc != nil {
				targetOrderID = tt.targetIDFunc()
			}

			err = suite.repo.UpdateOrderStatus(ctx, targetOrderID, tt.from, tt.newStatus, tt.cancelReason)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			if tt.wantErrorMsg != "" {
				require.EqualError(t, err, tt.wantErrorMsg)
				return
			}
			require.NoError(t, err)

			updatedOrder, err := suite.repo.GetOrder(ctx, orderID)
			require.NoError(t, err)

			expected := ttOrder
			expected.Status = tt.newStatus
			expected.CancelReason = tt.cancelReason

			assertOrder(t, expected, updatedOrder)
		})
	}
}

func (suite *orderRepositorySuite) TestUpdateOrderStatusConcurrent() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	orderID := suite.insertOrders(randomOrder())[0]

	const writers = 8
	errs := make(chan error, writers)

	for range writers {
		go func() {
			errs <- suite.repo.UpdateOrderStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusCancelled, nil)
		}()
	}

	var succeeded int
	for range writers {
		err := <-errs
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}

	assert.Equal(t, 1, succeeded)
}

func (suite *orderRepositorySuite) TestSearchOrders() {
	defer suite.deleteAll()

	order1 := randomOrder()
	order2 := randomOrder()
	orderIDs := suite.insertOrders(order1, order2)
	order1.ID, order2.ID = orderIDs[0], orderIDs[1]

	firstPage := domain.PageRequest{Page: 1, Limit: 10}

	tests := []struct {
		name       string
		filter     domain.OrderFilter
		page       domain.PageRequest
		wantOrders []domain.Order
		wantTotal  int
		wantError  string
	}{
		{
			name:      "empty filter: error",
			filter:    domain.OrderFilter{},
			page:      firstPage,
			wantError: "filter.Validate: all fields are empty",
		},
		{
			name: "search by ids: 1 found",
			filter: domain.OrderFilter{
				IDs: []uuid.UUID{orderIDs[0]},
			},
			page:       firstPage,
			wantOrders: []domain.Order{order1},
			wantTotal:  1,
		},
		{
			name: "search by ids: 2 found",
			filter: domain.OrderFilter{
				IDs: orderIDs,
			},
			page:       firstPage,
			wantOrders: []domain.Order{order1, order2},
			wantTotal:  2,
		},
		{
			name: "search by ids: not found",
			filter: domain.OrderFilter{
				IDs: []uuid.UUID{uuid.MustParse(gofakeit.UUID())},
			},
			page: firstPage,
		},
		{
			name: "search by owner ids: 1 found",
			filter: domain.OrderFilter{
				OwnerIDs: []string{order1.OwnerID},
			},
			page:       firstPage,
			wantOrders: []domain.Order{order1},
			wantTotal:  1,
		},
		{
			name: "search by owner ids: not found",
			filter: domain.OrderFilter{
				OwnerIDs: []string{"not found"},
			},
			page: firstPage,
		},
		{
			name: "search by status pending: 2 found",
			filter: domain.OrderFilter{
				Statuses: []domain.OrderStatus{domain.OrderStatusPending},
			},
			page:       firstPage,
			wantOrders: []domain.Order{order1, order2},
			wantTotal:  2,
		},
		{
			name: "search by status shipped: not found",
			filter: domain.OrderFilter{
				Statuses: []domain.OrderStatus{domain.OrderStatusShipped},
			},
			page: firstPage,
		},
		{
			name: "search by status, page size 1: 1 of 2",
			filter: domain.OrderFilter{
				Statuses: []domain.OrderStatus{domain.OrderStatusPending},
			},
			page:      domain.PageRequest{Page: 2, Limit: 1},
			wantTotal: 2,
		},
		{
			name: "search by createdAt after: 2 found",
			filter: domain.OrderFilter{
				CreatedAt: lo.ToPtr(domain.TimeRange{
					After: lo.ToPtr(time.Now().UTC().Add(-1 * time.Minute)),
				}),
			},
			page:       firstPage,
			wantOrders: []domain.Order{order1, order2},
			wantTotal:  2,
		},
		{
			name: "search by createdAt after: not found",
			filter: domain.OrderFilter{
				CreatedAt: lo.ToPtr(domain.TimeRange{
					After: lo.ToPtr(time.Now().UTC().Add(1 * time.Minute)),
				}),
			},
			page: firstPage,
		},
		{
			name: "search by createdAt empty: error",
			filter: domain.OrderFilter{
				CreatedAt: lo.ToPtr(domain.TimeRange{}),
			},
			page:      firstPage,
			wantError: "filter.Validate: createdAt: both Before and After are nil",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			page, err := suite.repo.SearchOrders(t.Context(), tt.filter, tt.page)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantTotal, page.TotalItems)
			if tt.wantOrders != nil {
				assertOrders(t, tt.wantOrders, page.Items)
			} else if tt.page.Page == 1 {
				assert.Empty(t, page.Items)
			} else {
				assert.Len(t, page.Items, 1)
			}
		})
	}
}

func (suite *orderRepositorySuite) TestDeleteOrder() {
	defer suite.deleteAll()

	tests := []struct {
		name         string
		prepareFunc  func(uuid uuid.UUID) error // prepare a test case before deleting the order, i.e. soft-delete the order
		targetIDFunc func() uuid.UUID           // which order ID to delete, if nil use the inserted one
		wantError    error
		wantErrorMsg string
	}{
		{
			name: "delete existing order: ok",
		},
		{
			name: "delete non-existing order: not found",
			targetIDFunc: func() uuid.UUID {
				return uuid.MustParse(gofakeit.UUID())
			},
			wantError: domain.ErrOrderNotFound,
		},
		{
			name: "delete with empty order ID: error",
			targetIDFunc: func() uuid.UUID {
				return uuid.Nil
			},
			wantErrorMsg: "orderID is empty",
		},
		{
			name: "delete soft-deleted order: ok",
			prepareFunc: func(orderID uuid.UUID) error {
				return suite.repo.SoftDeleteOrder(suite.T().Context(), orderID)
			},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			orderID, err := suite.repo.InsertOrder(ctx, randomOrder())
			require.NoError(t, err)

			if tt.prepareFunc != nil {
				require.NoError(t, tt.prepareFunc(orderID))
			}

			toDeleteOrderID := orderID
			if tt.targetIDFunc != nil {
				toDeleteOrderID = tt.targetIDFunc()
			}

			err = suite.repo.DeleteOrder(ctx, toDeleteOrderID)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			if tt.wantErrorMsg != "" {
				require.EqualError(t, err, tt.wantErrorMsg)
				return
			}
			require.NoError(t, err)

			_, err = suite.repo.GetOrder(ctx, orderID)
			require.ErrorIs(t, err, domain.ErrOrderNotFound)
		})
	}
}

func (suite *orderRepositorySuite) TestSoftDeleteOrder() {
	defer suite.deleteAll()

	tests := []struct {
		name         string
		targetIDFunc func() uuid.UUID      // which order ID to soft-delete, if nil use the inserted one
		prepareFunc  func(uuid.UUID) error // prepare a test case before soft-deleting the order, i.e. delete the order
		wantError    error
	}{
		{
			name: "soft-delete existing order: ok",
		},
		{
			name: "soft-delete non-existing order: not found",
			targetIDFunc: func() uuid.UUID {
				return uuid.MustParse(gofakeit.UUID())
			},
			wantError: domain.ErrOrderNotFound,
		},
		{
			name: "soft-delete twice: not found",
			prepareFunc: func(orderID uuid.UUID) error {
				return suite.repo.SoftDeleteOrder(suite.T().Context(), orderID)
			},
			wantError: domain.ErrOrderNotFound,
		},
		{
			name: "soft-delete deleted order: not found",
			prepareFunc: func(orderID uuid.UUID) error {
				return suite.repo.DeleteOrder(suite.T().Context(), orderID)
			},
			wantError: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			orderID, err := suite.repo.InsertOrder(ctx, randomOrder())
			require.NoError(t, err)

			toDeleteOrderID := orderID
			if tt.targetIDFunc != nil {
				toDeleteOrderID = tt.targetIDFunc()
			}

			if tt.prepareFunc != nil {
				require.NoError(t, tt.prepareFunc(orderID))
			}

			err = suite.repo.SoftDeleteOrder(ctx, toDeleteOrderID)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			_, err = suite.repo.GetOrder(ctx, orderID)
			require.ErrorIs(t, err, domain.ErrOrderNotFound)
		})
	}
}

func (suite *orderRepositorySuite) insertOrders(orders ...domain.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(orders))

	for _, order := range orders {
		id, err := suite.repo.InsertOrder(suite.T().Context(), order)
		suite.Require().NoError(err)
		ids = append(ids, id)
	}

	return ids
}

func (suite *orderRepositorySuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(), "TRUNCATE TABLE orders, order_items CASCADE")
	suite.NoError(err)
}

var vnd = currency.MustParseISO("VND")

func randomOrder() domain.Order {
	subtotal := decimal.Zero

	var items []domain.OrderItem
	for range gofakeit.Number(1, 5) {
		item := randomOrderItem()
		subtotal = subtotal.Add(item.LineTotal.Amount)
		items = append(items, item)
	}

	shippingFee := decimal.NewFromInt(int64(gofakeit.Number(1, 5) * 10_000))
	discount := subtotal.Div(decimal.NewFromInt(10)).Round(0)

	return domain.Order{
		OwnerID: gofakeit.UUID(),
		Items:   items,
		ShippingAddress: domain.Address{
			FullName: gofakeit.Name(),
			Phone:    gofakeit.Phone(),
			Line1:    gofakeit.Street(),
			District: gofakeit.City(),
			Province: "Ho Chi Minh",
		},
		PaymentMethod:  domain.PaymentCOD,
		VoucherCode:    lo.ToPtr(gofakeit.LetterN(8)),
		Subtotal:       domain.NewMoney(subtotal, vnd),
		ShippingFee:    domain.NewMoney(shippingFee, vnd),
		DiscountAmount: domain.NewMoney(discount, vnd),
		FinalTotal:     domain.NewMoney(subtotal.Add(shippingFee).Sub(discount), vnd),
	}
}

func randomOrderItem() domain.OrderItem {
	price := decimal.NewFromInt(int64(gofakeit.Number(1, 500) * 1_000))
	quantity := gofakeit.Number(1, 4)

	return domain.OrderItem{
		VariantID: uuid.MustParse(gofakeit.UUID()),
		ProductID: uuid.MustParse(gofakeit.UUID()),
		Quantity:  quantity,
		UnitPrice: domain.NewMoney(price, vnd),
		LineTotal: domain.NewMoney(price.Mul(decimal.NewFromInt(int64(quantity))), vnd),
	}
}

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	currencyComparer := cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})

	decimalComparer := cmp.Comparer(func(x, y decimal.Decimal) bool {
		return x.Equal(y)
	})

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Order{}, "CreatedAt", "UpdatedAt", "ID", "Status"),
		cmpopts.SortSlices(func(a, b domain.OrderItem) bool {
			return a.VariantID.String() < b.VariantID.String()
		}),
		currencyComparer,
		decimalComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
	assert.Nil(t, actual.DeletedAt)
	assert.NotEqual(t, uuid.Nil, actual.ID)
	if expected.Status != "" {
		assert.Equal(t, expected.Status, actual.Status)
	}
}

func assertOrders(t *testing.T, expected, actual []domain.Order) {
	t.Helper()

	sortOrders := func(orders []domain.Order) {
		sort.Slice(orders, func(i, j int) bool {
			return orders[i].OwnerID < orders[j].OwnerID
		})
	}

	sortOrders(expected)
	sortOrders(actual)

	require.Equal(t, len(expected), len(actual))

	for i := range expected {
		assertOrder(t, expected[i], actual[i])
	}
}
