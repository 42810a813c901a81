package localstate

import (
	"encoding/json"
	"fmt"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

const (
	keyLastApprovedOrderID = "lastApprovedOrderId"
	keyCurrentOrderData    = "currentOrderData"
	keyPendingOrders       = "pendingOrders"
	keyTableNumber         = "tableNumber"
	keyRoomNumber          = "roomNumber"
)

// SaveOrderSnapshot overwrites the cached copy of the last-known order. The
// snapshot is never authoritative; it exists so the receipt view can render
// after a reload or while the store is unreachable.
func SaveOrderSnapshot(s Store, order domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.Set(keyCurrentOrderData, data)
}

// OrderSnapshot reads the cached order back through the defensive parse
// boundary, since old snapshots may predate the typed representation.
func OrderSnapshot(s Store) (domain.Order, bool, error) {
	data, ok, err := s.Get(keyCurrentOrderData)
	if err != nil || !ok {
		return domain.Order{}, false, err
	}

	order, err := domain.ParseOrder(data)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("cached order snapshot: %w", err)
	}
	return order, true, nil
}

func SetLastApprovedOrderID(s Store, orderID string) error {
	data, err := json.Marshal(orderID)
	if err != nil {
		return err
	}
	return s.Set(keyLastApprovedOrderID, data)
}

func LastApprovedOrderID(s Store) (string, bool, error) {
	data, ok, err := s.Get(keyLastApprovedOrderID)
	if err != nil || !ok {
		return "", false, err
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", false, err
	}
	return id, id != "", nil
}

// EnqueuePendingOrder appends an order that failed to reach the backend to the
// best-effort local queue. Nothing drains this queue automatically; staff
// reconcile it by hand.
func EnqueuePendingOrder(s Store, order domain.Order) error {
	queue, err := PendingOrders(s)
	if err != nil {
		return err
	}

	queue = append(queue, order)
	data, err := json.Marshal(queue)
	if err != nil {
		return err
	}
	return s.Set(keyPendingOrders, data)
}

func PendingOrders(s Store) ([]domain.Order, error) {
	data, ok, err := s.Get(keyPendingOrders)
	if err != nil || !ok {
		return nil, err
	}

	var queue []domain.Order
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("pending orders queue: %w", err)
	}
	return queue, nil
}

func ClearPendingOrders(s Store) error {
	return s.Delete(keyPendingOrders)
}

func SetTableNumber(s Store, table string) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return s.Set(keyTableNumber, data)
}

func TableNumber(s Store) (string, bool, error) {
	return getString(s, keyTableNumber)
}

func SetRoomNumber(s Store, room string) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.Set(keyRoomNumber, data)
}

func RoomNumber(s Store) (string, bool, error) {
	return getString(s, keyRoomNumber)
}

func getString(s Store, key string) (string, bool, error) {
	data, ok, err := s.Get(key)
	if err != nil || !ok {
		return "", false, err
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return "", false, err
	}
	return value, value != "", nil
}
