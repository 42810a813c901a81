package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// NewOrderID returns a short time-based token like ORD483920. It is meant to
// be read aloud at a counter, not to be globally unique; collisions across
// restarts are acceptable for this domain.
func NewOrderID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	return "ORD" + ms[len(ms)-6:]
}

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusRejected OrderStatus = "rejected"
)

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// Terminal statuses never transition again; the only permitted writes are
// pending -> approved and pending -> rejected.
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	return from == OrderStatusPending && to.IsTerminal()
}

type PaymentMethod string

const (
	PaymentMethodQR   PaymentMethod = "qr"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodQR, PaymentMethodCard, PaymentMethodCash:
		return true
	}
	return false
}

type ItemSize string

const (
	ItemSizeSmall   ItemSize = "S"
	ItemSizeRegular ItemSize = "R"
	ItemSizeLarge   ItemSize = "L"
)

type OrderItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Size     ItemSize        `json:"size,omitempty"`
	Category string          `json:"category,omitempty"`
}

// LineTotal is price * quantity for one line.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID            string          `json:"id"`
	Items         []OrderItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Taxes         decimal.Decimal `json:"taxes"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	TableNumber   string          `json:"table_number,omitempty"`
	RoomNumber    string          `json:"room_number,omitempty"`
}
