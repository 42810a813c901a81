package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brewline/cafe-kiosk/internal/domain"
	"github.com/brewline/cafe-kiosk/internal/messaging"
)

type Handler struct {
	repo      *OrderRepository
	analytics *AnalyticsRepository
	created   *messaging.Producer
	status    *messaging.Producer
	logger    *slog.Logger
}

// NewHandler takes one producer per topic; either may be nil when Kafka is not
// configured, in which case the corresponding events are simply not published.
func NewHandler(repo *OrderRepository, analytics *AnalyticsRepository, created, status *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		analytics: analytics,
		created:   created,
		status:    status,
		logger:    logger,
	}
}

// createOrderRequest mirrors what the checkout client actually sends, which
// historically includes prices as strings and line items with no quantity.
// The raw fields go through the domain parse boundary before anything is
// persisted.
type createOrderRequest struct {
	ID            string          `json:"id"`
	Items         json.RawMessage `json:"items"`
	Subtotal      json.RawMessage `json:"subtotal"`
	Total         json.RawMessage `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	CustomerName  string          `json:"customer_name"`
	TableNumber   string          `json:"table_number"`
	RoomNumber    string          `json:"room_number"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := domain.ParseItems(req.Items)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "invalid order items")
		return
	}
	if len(items) == 0 {
		h.writeError(w, http.StatusUnprocessableEntity, "order must contain at least one item")
		return
	}

	subtotal := domain.CoerceDecimal(req.Subtotal)
	if subtotal.IsZero() {
		for _, item := range items {
			subtotal = subtotal.Add(item.LineTotal())
		}
	}

	total := domain.CoerceDecimal(req.Total)
	if total.IsZero() {
		total = subtotal
	}
	if !total.IsPositive() {
		h.writeError(w, http.StatusUnprocessableEntity, "order total must be positive")
		return
	}

	var method domain.PaymentMethod
	if req.PaymentMethod != "" {
		method = domain.PaymentMethod(req.PaymentMethod)
		if !method.Valid() {
			h.writeError(w, http.StatusUnprocessableEntity, "unknown payment method")
			return
		}
	}

	now := time.Now().UTC()
	id := req.ID
	if id == "" {
		id = domain.NewOrderID(now)
	}

	order := &domain.Order{
		ID:            id,
		Items:         items,
		Subtotal:      subtotal,
		Taxes:         decimal.Zero,
		Total:         total,
		PaymentMethod: method,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
		CustomerName:  req.CustomerName,
		TableNumber:   req.TableNumber,
		RoomNumber:    req.RoomNumber,
	}

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create order", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.created != nil {
		event := domain.OrderCreatedEvent{
			OrderID:     order.ID,
			Items:       order.Items,
			TableNumber: order.TableNumber,
			RoomNumber:  order.RoomNumber,
			Timestamp:   order.CreatedAt,
		}
		if err := h.created.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order created", "order_id", order.ID, "total", order.Total, "table", order.TableNumber)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var status domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status = domain.OrderStatus(s)
		if !status.Valid() {
			h.writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
	}

	orders, err := h.repo.ListByStatus(r.Context(), status)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders), "status", status)
	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type updateStatusResponse struct {
	Changed bool          `json:"changed"`
	Order   *domain.Order `json:"order"`
}

// HandleUpdateStatus is the staff approval operation: the single write an
// order receives after creation.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Status != domain.OrderStatusApproved && req.Status != domain.OrderStatusRejected {
		h.writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	order, changed, err := h.repo.Transition(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, ErrInvalidTransition):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("failed to update order status", "error", err, "order_id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if !changed {
		h.logger.Info("order already in requested status", "order_id", id, "status", req.Status)
		h.writeJSON(w, http.StatusOK, updateStatusResponse{Changed: false, Order: order})
		return
	}

	if h.status != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:    order.ID,
			OldStatus:  domain.OrderStatusPending,
			NewStatus:  order.Status,
			ApprovedAt: order.ApprovedAt,
			Order:      *order,
			Timestamp:  time.Now().UTC(),
		}
		if err := h.status.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish status change", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, updateStatusResponse{Changed: true, Order: order})
}

func (h *Handler) HandleSalesSummary(w http.ResponseWriter, r *http.Request) {
	days := 7
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := parseDays(d)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	summary, err := h.analytics.SalesSummary(r.Context(), days)
	if err != nil {
		h.logger.Error("failed to compute sales summary", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
