package domain

import "time"

type OrderCreatedEvent struct {
	OrderID     string      `json:"order_id"`
	Items       []OrderItem `json:"items"`
	TableNumber string      `json:"table_number,omitempty"`
	RoomNumber  string      `json:"room_number,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// OrderStatusChangedEvent is published on every status transition and carries
// the full updated order so subscribers do not need a follow-up read.
type OrderStatusChangedEvent struct {
	OrderID    string      `json:"order_id"`
	OldStatus  OrderStatus `json:"old_status"`
	NewStatus  OrderStatus `json:"new_status"`
	ApprovedAt *time.Time  `json:"approved_at,omitempty"`
	Order      Order       `json:"order"`
	Timestamp  time.Time   `json:"timestamp"`
}
