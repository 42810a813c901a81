package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

// Handler turns order events into emails for the counter staff. It never
// touches order state; the admin transition endpoint is the only writer.
type Handler struct {
	emailServiceURL string
	counterAddress  string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL, counterAddress string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: emailServiceURL,
		counterAddress:  counterAddress,
		httpClient:      client,
		logger:          logger,
	}
}

// HandleOrderCreated alerts the counter about a freshly placed order.
func (h *Handler) HandleOrderCreated(ctx context.Context, key string, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID)

	where := "pickup"
	switch {
	case event.TableNumber != "":
		where = "table " + event.TableNumber
	case event.RoomNumber != "":
		where = "room " + event.RoomNumber
	}

	body := fmt.Sprintf("New order %s for %s with %d line(s). Awaiting approval.",
		event.OrderID, where, len(event.Items))

	if err := h.sendEmail(ctx, "New order: "+event.OrderID, body); err != nil {
		h.logger.Error("failed to send new order alert", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send new order alert: %w", err)
	}

	return nil
}

// HandleStatusChanged emails a receipt on approval and a short alert on
// rejection. Non-terminal statuses are ignored.
func (h *Handler) HandleStatusChanged(ctx context.Context, key string, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order status event: %w", err)
	}

	switch event.NewStatus {
	case domain.OrderStatusApproved:
		if err := h.sendEmail(ctx, "Receipt: "+event.OrderID, formatReceipt(event.Order)); err != nil {
			h.logger.Error("failed to send receipt", "error", err, "order_id", event.OrderID)
			return fmt.Errorf("send receipt: %w", err)
		}
	case domain.OrderStatusRejected:
		body := fmt.Sprintf("Order %s was rejected. Refund the customer if already charged.", event.OrderID)
		if err := h.sendEmail(ctx, "Order rejected: "+event.OrderID, body); err != nil {
			h.logger.Error("failed to send rejection alert", "error", err, "order_id", event.OrderID)
			return fmt.Errorf("send rejection alert: %w", err)
		}
	default:
		h.logger.Debug("ignoring status event", "order_id", event.OrderID, "status", event.NewStatus)
	}

	return nil
}

func formatReceipt(order domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s approved.\n\n", order.ID)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "%dx %s", item.Quantity, item.Name)
		if item.Size != "" {
			fmt.Fprintf(&b, " (%s)", item.Size)
		}
		fmt.Fprintf(&b, "  %s\n", item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", order.Total.StringFixed(2))
	return b.String()
}

func (h *Handler) sendEmail(ctx context.Context, subject, body string) error {
	data, err := json.Marshal(map[string]string{
		"to":      h.counterAddress,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
