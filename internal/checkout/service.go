// Package checkout orchestrates order creation, pricing quotes and status changes on top of a
// transactional port.Store.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/audit"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/events"
	"github.com/nikolayk812/storefront/internal/pkg/metrics"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/pricing"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nikolayk812/storefront/internal/checkout"

type ItemInput struct {
	VariantID uuid.UUID
	Quantity  int
}

type QuoteInput struct {
	Items           []ItemInput
	ShippingAddress domain.Address
	VoucherCode     string
}

type CreateOrderInput struct {
	Items           []ItemInput
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethod
	VoucherCode     string
}

type Service struct {
	store      port.Store
	calculator *pricing.Calculator
	auditLog   port.AuditLog
	metrics    *metrics.CheckoutMetrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

type Option func(*Service)

// WithAuditLog records every committed status change. Audit failures are logged, not returned.
func WithAuditLog(log port.AuditLog) Option {
	return func(s *Service) { s.auditLog = log }
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store port.Store, calculator *pricing.Calculator, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}

	if calculator == nil {
		return nil, errors.New("calculator is nil")
	}

	s := &Service{
		store:      store,
		calculator: calculator,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// CreateOrder reserves stock, prices the items, consumes the voucher and persists the order in
// pending status. Everything happens in one transaction: any failure leaves stock and voucher
// usage untouched.
func (s *Service) CreateOrder(ctx context.Context, actor domain.Actor, in CreateOrderInput) (_ domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.CreateOrder")
	defer func() { s.end(ctx, span, "create_order", err) }()

	if err := actor.Validate(); err != nil {
		return domain.Order{}, err
	}

	if _, err := domain.ToPaymentMethod(string(in.PaymentMethod)); err != nil {
		return domain.Order{}, err
	}

	requests, err := toStockRequests(in.Items)
	if err != nil {
		return domain.Order{}, err
	}

	if err := in.ShippingAddress.Validate(); err != nil {
		return domain.Order{}, err
	}

	var created domain.Order

	err = s.store.InTx(ctx, func(tx port.Store) error {
		items, err := priceItems(ctx, tx.Variants(), requests)
		if err != nil {
			return err
		}

		for _, req := range requests {
			if err := tx.Variants().DecrementStock(ctx, req.VariantID, req.Quantity); err != nil {
				return fmt.Errorf("DecrementStock: %w", err)
			}
		}

		applied, err := lockVoucher(ctx, tx.Vouchers(), in.VoucherCode, actor.UserID)
		if err != nil {
			return err
		}

		quote, err := s.calculator.Compute(items, in.ShippingAddress, applied)
		if err != nil {
			return fmt.Errorf("calculator.Compute: %w", err)
		}

		order := domain.Order{
			OwnerID:         actor.UserID,
			Items:           quote.Items,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			Status:          domain.OrderStatusPending,
		}
		order.ApplyTotals(quote.Totals)
		if applied != nil {
			order.VoucherCode = lo.ToPtr(applied.Voucher.Code)
		}

		orderID, err := tx.Orders().InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("InsertOrder: %w", err)
		}

		if applied != nil {
			redemption := domain.VoucherRedemption{
				VoucherID: applied.Voucher.ID,
				UserID:    actor.UserID,
				OrderID:   orderID,
				Discount:  quote.Totals.DiscountAmount.Amount,
				UsedAt:    s.now().UTC(),
			}
			if err := tx.Vouchers().RecordRedemption(ctx, redemption); err != nil {
				return fmt.Errorf("RecordRedemption: %w", err)
			}
		}

		created, err = tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("GetOrder: %w", err)
		}

		event, err := events.NewOrderCreated(created, s.now())
		if err != nil {
			return err
		}

		if err := tx.Outbox().InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("InsertEvent: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("store.InTx: %w", err)
	}

	span.SetAttributes(attribute.String("order.id", created.ID.String()))

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
		if created.VoucherCode != nil {
			s.metrics.VouchersUsed.Inc()
		}
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", created.ID.String()),
		slog.String("owner_id", created.OwnerID),
		slog.String("final_total", created.FinalTotal.String()))

	return created, nil
}

// ComputeTotal prices the items at current variant prices without reserving stock or consuming
// the voucher.
func (s *Service) ComputeTotal(ctx context.Context, actor domain.Actor, in QuoteInput) (_ domain.TotalBreakdown, err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.ComputeTotal")
	defer func() { s.end(ctx, span, "compute_total", err) }()

	if err := actor.Validate(); err != nil {
		return domain.TotalBreakdown{}, err
	}

	requests, err := toStockRequests(in.Items)
	if err != nil {
		return domain.TotalBreakdown{}, err
	}

	items, err := priceItems(ctx, s.store.Variants(), requests)
	if err != nil {
		return domain.TotalBreakdown{}, err
	}

	var applied *pricing.AppliedVoucher
	if code := domain.NormalizeVoucherCode(in.VoucherCode); code != "" {
		voucher, err := s.store.Vouchers().GetVoucherByCode(ctx, code)
		if err != nil {
			return domain.TotalBreakdown{}, fmt.Errorf("GetVoucherByCode: %w", err)
		}

		usage, err := s.store.Vouchers().GetVoucherUsage(ctx, voucher.ID, actor.UserID)
		if err != nil {
			return domain.TotalBreakdown{}, fmt.Errorf("GetVoucherUsage: %w", err)
		}

		applied = &pricing.AppliedVoucher{Voucher: voucher, Usage: usage}
	}

	quote, err := s.calculator.Compute(items, in.ShippingAddress, applied)
	if err != nil {
		return domain.TotalBreakdown{}, fmt.Errorf("calculator.Compute: %w", err)
	}

	return quote.Totals, nil
}

// ChangeStatus moves the order to target if the transition table allows it for actor.
// Cancelling returns the reserved stock. The status is compare-and-set, so of two concurrent
// changes from the same status only one wins.
func (s *Service) ChangeStatus(ctx context.Context, actor domain.Actor, orderID uuid.UUID, target domain.OrderStatus, reason string) (_ domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.ChangeStatus", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("order.target_status", string(target)),
	))
	defer func() { s.end(ctx, span, "change_status", err) }()

	if err := actor.Validate(); err != nil {
		return domain.Order{}, err
	}

	if _, err := domain.ToOrderStatus(string(target)); err != nil {
		return domain.Order{}, domain.ValidationError(fmt.Sprintf("status %q is unknown", target))
	}

	var (
		updated  domain.Order
		change   domain.StatusChange
		restored int
	)

	err = s.store.InTx(ctx, func(tx port.Store) error {
		order, err := tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("GetOrder: %w", err)
		}

		if !visibleTo(actor, order) {
			return domain.ErrOrderNotFound
		}

		if err := domain.CheckTransition(order.Status, target, actor, order.OwnerID); err != nil {
			return err
		}

		var cancelReason *string
		if target == domain.OrderStatusCancelled && reason != "" {
			cancelReason = &reason
		}

		if err := tx.Orders().UpdateOrderStatus(ctx, orderID, order.Status, target, cancelReason); err != nil {
			return fmt.Errorf("UpdateOrderStatus: %w", err)
		}

		if target == domain.OrderStatusCancelled {
			for _, req := range order.StockRequests() {
				if err := tx.Variants().RestoreStock(ctx, req.VariantID, req.Quantity); err != nil {
					return fmt.Errorf("RestoreStock: %w", err)
				}
				restored += req.Quantity
			}
		}

		change = audit.NewStatusChange(ctx, orderID, order.Status, target, actor, reason, s.now())

		event, err := events.NewStatusChanged(change)
		if err != nil {
			return err
		}

		if err := tx.Outbox().InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("InsertEvent: %w", err)
		}

		updated, err = tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("GetOrder: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("store.InTx: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(change.From), string(change.To)).Inc()
		if restored > 0 {
			s.metrics.StockRestored.Add(float64(restored))
		}
	}

	if s.auditLog != nil {
		if err := s.auditLog.Save(ctx, change); err != nil {
			s.logger.ErrorContext(ctx, "audit save failed",
				slog.String("order_id", orderID.String()), slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID.String()),
		slog.String("from", string(change.From)),
		slog.String("to", string(change.To)),
		slog.String("actor_id", actor.UserID))

	return updated, nil
}

// GetOrder returns the order. Customers asking for an order of another user get
// domain.ErrOrderNotFound.
func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (domain.Order, error) {
	if err := actor.Validate(); err != nil {
		return domain.Order{}, err
	}

	order, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("GetOrder: %w", err)
	}

	if !visibleTo(actor, order) {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return order, nil
}

// ListOrders pages through orders matching filter, newest first. Customers only ever see their
// own orders whatever the filter says. An empty filter matches every status.
func (s *Service) ListOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	if err := actor.Validate(); err != nil {
		return domain.Page[domain.Order]{}, err
	}

	if !actor.IsAdmin() {
		filter.OwnerIDs = []string{actor.UserID}
	}

	if len(filter.Statuses) == 0 {
		filter.Statuses = domain.OrderStatuses()
	}

	result, err := s.store.Orders().SearchOrders(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("SearchOrders: %w", err)
	}

	return result, nil
}

// DeleteOrder hides a cancelled order from every query.
func (s *Service) DeleteOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) error {
	return s.deleteOrder(ctx, actor, orderID, false)
}

// PurgeOrder removes a cancelled order and its items for good.
func (s *Service) PurgeOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) error {
	return s.deleteOrder(ctx, actor, orderID, true)
}

func (s *Service) deleteOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID, hard bool) (err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.DeleteOrder", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.Bool("order.hard_delete", hard),
	))
	defer func() { s.end(ctx, span, "delete_order", err) }()

	if err := actor.Validate(); err != nil {
		return err
	}

	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	err = s.store.InTx(ctx, func(tx port.Store) error {
		order, err := tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("GetOrder: %w", err)
		}

		if order.Status != domain.OrderStatusCancelled {
			return fmt.Errorf("status %s: %w", order.Status, domain.ErrInvalidState)
		}

		if hard {
			err = tx.Orders().DeleteOrder(ctx, orderID)
		} else {
			err = tx.Orders().SoftDeleteOrder(ctx, orderID)
		}
		if err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		event, err := events.NewOrderDeleted(orderID, hard, s.now())
		if err != nil {
			return err
		}

		if err := tx.Outbox().InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("InsertEvent: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("store.InTx: %w", err)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", orderID.String()), slog.Bool("hard", hard))

	return nil
}

func (s *Service) end(ctx context.Context, span trace.Span, operation string, err error) {
	defer span.End()

	if err == nil {
		return
	}

	kind := domain.KindOf(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, kind.String())

	if s.metrics != nil {
		s.metrics.Failures.WithLabelValues(operation, kind.String()).Inc()
	}

	if kind == domain.KindUnknown {
		s.logger.ErrorContext(ctx, "checkout operation failed",
			slog.String("operation", operation), slog.Any("error", err))
	}
}

func visibleTo(actor domain.Actor, order domain.Order) bool {
	return actor.IsAdmin() || order.OwnerID == actor.UserID
}

func toStockRequests(items []ItemInput) ([]domain.StockRequest, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		if item.VariantID == uuid.Nil {
			return nil, domain.ValidationError("variant id is empty")
		}

		if !domain.ValidQuantity(item.Quantity) {
			return nil, fmt.Errorf("variant[%s]: %w", item.VariantID, domain.ErrInvalidQuantity)
		}

		orderItems = append(orderItems, domain.OrderItem{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	requests := domain.MergeStockRequests(orderItems)
	for _, req := range requests {
		// merged duplicates can overflow a single line
		if !domain.ValidQuantity(req.Quantity) {
			return nil, fmt.Errorf("variant[%s]: %w", req.VariantID, domain.ErrInvalidQuantity)
		}
	}

	return requests, nil
}

// priceItems turns stock requests into order lines priced at the current variant price.
func priceItems(ctx context.Context, variants port.VariantRepository, requests []domain.StockRequest) ([]domain.OrderItem, error) {
	ids := lo.Map(requests, func(r domain.StockRequest, _ int) uuid.UUID { return r.VariantID })

	found, err := variants.GetVariants(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("GetVariants: %w", err)
	}

	byID := lo.KeyBy(found, func(v domain.ProductVariant) uuid.UUID { return v.ID })

	items := make([]domain.OrderItem, 0, len(requests))
	for _, req := range requests {
		variant, ok := byID[req.VariantID]
		if !ok {
			return nil, fmt.Errorf("variant[%s]: %w", req.VariantID, domain.ErrVariantNotFound)
		}

		items = append(items, domain.OrderItem{
			VariantID: variant.ID,
			ProductID: variant.ProductID,
			Quantity:  req.Quantity,
			UnitPrice: variant.Price,
		})
	}

	return items, nil
}

// lockVoucher returns nil when no code was given.
func lockVoucher(ctx context.Context, vouchers port.VoucherRepository, code, userID string) (*pricing.AppliedVoucher, error) {
	code = domain.NormalizeVoucherCode(code)
	if code == "" {
		return nil, nil
	}

	voucher, err := vouchers.LockVoucherByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("LockVoucherByCode: %w", err)
	}

	usage, err := vouchers.GetVoucherUsage(ctx, voucher.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("GetVoucherUsage: %w", err)
	}

	return &pricing.AppliedVoucher{Voucher: voucher, Usage: usage}, nil
}
