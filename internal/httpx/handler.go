package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/catalog"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/httpx/middlewares"
	"github.com/nikolayk812/storefront/internal/pkg/cache"
	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	idempotencyPending  = "pending"
	idempotencyClaimTTL = time.Minute

	maxBodyBytes = 1 << 20
)

// Handler adapts HTTP requests to the checkout and catalog services.
type Handler struct {
	checkout       *checkout.Service
	catalog        *catalog.Service
	cache          cache.Cache // nil-safe: Idempotency-Key is ignored if nil
	idempotencyTTL time.Duration
}

func NewHandler(checkoutService *checkout.Service, catalogService *catalog.Service, c cache.Cache, idempotencyTTL time.Duration) *Handler {
	return &Handler{
		checkout:       checkoutService,
		catalog:        catalogService,
		cache:          c,
		idempotencyTTL: idempotencyTTL,
	}
}

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// CreateOrder places an order. With an Idempotency-Key the request first claims the key; the
// successful response replaces the claim and is replayed for repeated requests of the same user.
// A duplicate arriving while the first one is still running gets 409.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}

	idempKey := h.idempotencyKey(r, actor)
	if idempKey != "" {
		claimed, done := h.claim(w, r, idempKey)
		if done {
			return
		}
		if !claimed {
			idempKey = ""
		}
	}

	order, err := h.createOrder(r, actor)
	if err != nil {
		if idempKey != "" {
			h.release(r.Context(), idempKey)
		}
		writeDomainError(w, r, err)
		return
	}

	resp := mapOrderToResponse(order)

	if idempKey != "" {
		h.remember(r.Context(), idempKey, http.StatusCreated, resp)
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) createOrder(r *http.Request, actor domain.Actor) (domain.Order, error) {
	var req CreateOrderRequest
	if err := decodeBody(r, createOrderSchema, &req); err != nil {
		return domain.Order{}, err
	}

	items, err := mapItemRequests(req.Items)
	if err != nil {
		return domain.Order{}, err
	}

	slog.InfoContext(r.Context(), "creating order", "owner_id", actor.UserID, "items", len(items))

	return h.checkout.CreateOrder(r.Context(), actor, checkout.CreateOrderInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		VoucherCode:     req.VoucherCode,
	})
}

func (h *Handler) QuoteOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}

	var req QuoteRequest
	if err := decodeBody(r, quoteSchema, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	items, err := mapItemRequests(req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	totals, err := h.checkout.ComputeTotal(r.Context(), actor, checkout.QuoteInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		VoucherCode:     req.VoucherCode,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapTotalsToResponse(totals))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}

	orderID, err := orderIDParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// ListOrders accepts page, limit, status (comma separated), owner_id, created_after and
// created_before (RFC 3339) query parameters.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}

	filter, page, err := parseListQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.checkout.ListOrders(r.Context(), actor, filter, page)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapPageToResponse(result, mapOrderToResponse))
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}

	orderID, err := orderIDParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req ChangeStatusRequest
	if err := decodeBody(r, changeStatusSchema, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	order, err := h.checkout.ChangeStatus(r.Context(), actor, orderID, domain.OrderStatus(req.Status), req.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// DeleteOrder soft-deletes, or purges with ?hard=true.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}

	orderID, err := orderIDParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	hard := false
	if v := r.URL.Query().Get("hard"); v != "" {
		hard, err = strconv.ParseBool(v)
		if err != nil {
			writeDomainError(w, r, domain.ValidationError("hard must be a boolean"))
			return
		}
	}

	if hard {
		err = h.checkout.PurgeOrder(r.Context(), actor, orderID)
	} else {
		err = h.checkout.DeleteOrder(r.Context(), actor, orderID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	arrivals, err := h.catalog.NewArrivals(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(arrivals, func(a domain.NewArrival, _ int) NewArrivalResponse {
		return mapNewArrivalToResponse(a)
	}))
}

func (h *Handler) idempotencyKey(r *http.Request, actor domain.Actor) string {
	if h.cache == nil {
		return ""
	}

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if key == "" {
		return ""
	}

	return h.cache.GenerateKey("create_order", actor.UserID+":"+key)
}

// claim reserves key for this request. done reports that the response was already written: a
// replay of the stored response or a conflict with a request still in flight. A cache failure
// returns claimed=false and the request proceeds without idempotency.
func (h *Handler) claim(w http.ResponseWriter, r *http.Request, key string) (claimed, done bool) {
	ok, err := h.cache.SetNX(r.Context(), key, idempotencyPending, min(h.idempotencyTTL, idempotencyClaimTTL))
	if err != nil {
		slog.WarnContext(r.Context(), "idempotency claim failed", slog.Any("error", err))
		return false, false
	}
	if ok {
		return true, false
	}

	raw, err := h.cache.Get(r.Context(), key)
	if err != nil {
		slog.WarnContext(r.Context(), "idempotency lookup failed", slog.Any("error", err))
		return false, false
	}

	if raw == "" || raw == idempotencyPending {
		writeError(w, http.StatusConflict, "idempotency_conflict", "a request with this Idempotency-Key is in progress")
		return false, true
	}

	var cached cachedResponse
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		slog.WarnContext(r.Context(), "idempotency entry is corrupt", slog.String("key", key), slog.Any("error", err))
		writeError(w, http.StatusConflict, "idempotency_conflict", "a request with this Idempotency-Key is in progress")
		return false, true
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)

	return false, true
}

// release drops the claim of a failed request so the client can retry with the same key.
func (h *Handler) release(ctx context.Context, key string) {
	if err := h.cache.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "idempotency release failed", slog.String("key", key), slog.Any("error", err))
	}
}

// remember replaces the claim with the response.
func (h *Handler) remember(ctx context.Context, key string, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		slog.WarnContext(ctx, "idempotency marshal failed", slog.Any("error", err))
		h.release(ctx, key)
		return
	}

	entry, err := json.Marshal(cachedResponse{Status: status, Body: data})
	if err != nil {
		slog.WarnContext(ctx, "idempotency marshal failed", slog.Any("error", err))
		h.release(ctx, key)
		return
	}

	if err := h.cache.Set(ctx, key, string(entry), h.idempotencyTTL); err != nil {
		slog.WarnContext(ctx, "idempotency store failed", slog.String("key", key), slog.Any("error", err))
	}
}

func actorOf(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middlewares.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing actor")
		return domain.Actor{}, false
	}
	return actor, true
}

func decodeBody(r *http.Request, schema *gojsonschema.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("read body: %v", err))
	}

	if len(body) > maxBodyBytes {
		return domain.ValidationError("request body is too large")
	}

	if err := validateJSONSchema(schema, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return domain.ValidationError(fmt.Sprintf("invalid json: %v", err))
	}

	return nil
}

func mapItemRequests(items []ItemRequest) ([]checkout.ItemInput, error) {
	result := make([]checkout.ItemInput, 0, len(items))
	for _, item := range items {
		id, err := uuid.Parse(item.VariantID)
		if err != nil {
			return nil, domain.ValidationError(fmt.Sprintf("variant_id %q is not a uuid", item.VariantID))
		}
		result = append(result, checkout.ItemInput{VariantID: id, Quantity: item.Quantity})
	}
	return result, nil
}

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ValidationError("order id is not a uuid")
	}
	return id, nil
}

func parseListQuery(r *http.Request) (domain.OrderFilter, domain.PageRequest, error) {
	var (
		filter domain.OrderFilter
		page   domain.PageRequest
		errs   []error
	)

	q := r.URL.Query()

	atoi := func(name string) int {
		v := q.Get(name)
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, fmt.Errorf("%s must be a positive integer", name))
		}
		return n
	}

	page.Page = atoi("page")
	page.Limit = atoi("limit")

	for _, s := range splitComma(q.Get("status")) {
		status, err := domain.ToOrderStatus(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("status %q is unknown", s))
			continue
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	filter.OwnerIDs = splitComma(q.Get("owner_id"))

	parseTime := func(name string) *time.Time {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be RFC 3339", name))
			return nil
		}
		return &t
	}

	after, before := parseTime("created_after"), parseTime("created_before")
	if after != nil || before != nil {
		filter.CreatedAt = &domain.TimeRange{After: after, Before: before}
		if err := filter.CreatedAt.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return filter, page, domain.ValidationError(errors.Join(errs...).Error())
	}

	return filter, page, nil
}

func splitComma(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
