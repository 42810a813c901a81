package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The backing store grew up under a loosely typed client: prices arrive as
// numbers or strings, quantities go missing, and items are sometimes stored as
// a JSON-encoded string instead of an array. ParseOrder is the single place
// where that mess is coerced into a typed Order; everything past this boundary
// can trust the field types.

type rawOrder struct {
	ID            string          `json:"id"`
	Items         json.RawMessage `json:"items"`
	Subtotal      json.RawMessage `json:"subtotal"`
	Taxes         json.RawMessage `json:"taxes"`
	Total         json.RawMessage `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ApprovedAt    *time.Time      `json:"approved_at"`
	CustomerName  string          `json:"customer_name"`
	TableNumber   string          `json:"table_number"`
	RoomNumber    string          `json:"room_number"`
}

type rawItem struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity json.RawMessage `json:"quantity"`
	Size     string          `json:"size"`
	Category string          `json:"category"`
}

// ParseOrder decodes an order payload read back from the store.
func ParseOrder(data []byte) (Order, error) {
	var raw rawOrder
	if err := json.Unmarshal(data, &raw); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}

	if raw.ID == "" {
		return Order{}, fmt.Errorf("order has no id")
	}

	status := OrderStatus(raw.Status)
	if raw.Status == "" {
		status = OrderStatusPending
	}
	if !status.Valid() {
		return Order{}, fmt.Errorf("order %s: unknown status %q", raw.ID, raw.Status)
	}

	items, err := ParseItems(raw.Items)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: %w", raw.ID, err)
	}

	order := Order{
		ID:           raw.ID,
		Items:        items,
		Subtotal:     CoerceDecimal(raw.Subtotal),
		Taxes:        CoerceDecimal(raw.Taxes),
		Total:        CoerceDecimal(raw.Total),
		Status:       status,
		CreatedAt:    raw.CreatedAt,
		ApprovedAt:   raw.ApprovedAt,
		CustomerName: raw.CustomerName,
		TableNumber:  raw.TableNumber,
		RoomNumber:   raw.RoomNumber,
	}

	if raw.PaymentMethod != "" {
		method := PaymentMethod(raw.PaymentMethod)
		if !method.Valid() {
			return Order{}, fmt.Errorf("order %s: unknown payment method %q", raw.ID, raw.PaymentMethod)
		}
		order.PaymentMethod = method
	}

	// approved_at is only meaningful on approved orders
	if order.Status != OrderStatusApproved {
		order.ApprovedAt = nil
	}

	return order, nil
}

// ParseItems decodes an order's line items. The value may be a JSON array or,
// from older rows, a string containing a JSON array.
func ParseItems(data json.RawMessage) ([]OrderItem, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	// double-encoded: "[{...}]"
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decode items string: %w", err)
		}
		data = json.RawMessage(inner)
	}

	var raws []rawItem
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items := make([]OrderItem, 0, len(raws))
	for _, r := range raws {
		items = append(items, OrderItem{
			ID:       coerceString(r.ID),
			Name:     r.Name,
			Price:    CoerceDecimal(r.Price),
			Quantity: CoerceQuantity(r.Quantity),
			Size:     ItemSize(r.Size),
			Category: r.Category,
		})
	}

	return items, nil
}

// CoerceDecimal reads a JSON value that should be a non-negative decimal but
// may be a number, a numeric string, null, or garbage. Anything unusable
// becomes zero rather than poisoning downstream totals.
func CoerceDecimal(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil || d.IsNegative() {
			return decimal.Zero
		}
		return d
	}

	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// CoerceQuantity reads a quantity that may be a number, a numeric string, or
// absent. Missing or unusable values default to one unit.
func CoerceQuantity(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 1
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 1
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return 1
		}
		f, _ = d.Float64()
	}

	q := int(f)
	if q < 1 {
		return 1
	}
	return q
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// numeric ids from older rows
	return strings.Trim(string(raw), `"`)
}
