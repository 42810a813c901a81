package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

var (
	// ErrNotFound means the order id has no matching row. Callers treat this
	// differently from a transient failure: no retry will resolve it.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition means the order is already in a terminal status
	// different from the requested one.
	ErrInvalidTransition = errors.New("order status can no longer change")
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, status, subtotal, taxes, total, payment_method,
			customer_name, table_number, room_number, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)
	`, order.ID, order.Status, order.Subtotal, order.Taxes, order.Total,
		string(order.PaymentMethod), order.CustomerName, order.TableNumber,
		order.RoomNumber, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		rowID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, item_id, name, price, quantity, size, category)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		`, rowID, order.ID, item.ID, item.Name, item.Price, item.Quantity,
			string(item.Size), item.Category)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := r.scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id, status, subtotal, taxes, total, payment_method,
			customer_name, table_number, room_number, created_at, approved_at
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, name, price, quantity, size, category
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		var size, category sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Quantity, &size, &category); err != nil {
			return nil, err
		}
		item.Size = domain.ItemSize(size.String)
		item.Category = category.String
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByStatus returns orders newest first, optionally filtered by status.
// An empty status lists everything (the admin screen's "all" filter).
func (r *OrderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	query := `
		SELECT id, status, subtotal, taxes, total, payment_method,
			customer_name, table_number, room_number, created_at, approved_at
		FROM orders
	`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, item_id, name, price, quantity, size, category
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		var size, category sql.NullString
		if err := itemRows.Scan(&orderID, &item.ID, &item.Name, &item.Price, &item.Quantity, &size, &category); err != nil {
			return nil, err
		}
		item.Size = domain.ItemSize(size.String)
		item.Category = category.String
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// Transition applies the single permitted status change. It reads the current
// status first: if the order already holds the target status no write is
// issued and changed is false. approved_at is set on approval and cleared on
// anything else. The UPDATE is guarded on status = 'pending' so a terminal
// order can never be rewritten, even under a racing second operator.
func (r *OrderRepository) Transition(ctx context.Context, id string, to domain.OrderStatus) (order *domain.Order, changed bool, err error) {
	var current domain.OrderStatus
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}

	if current == to {
		order, err = r.GetByID(ctx, id)
		return order, false, err
	}

	if !domain.CanTransition(current, to) {
		return nil, false, fmt.Errorf("%w: %s is already %s", ErrInvalidTransition, id, current)
	}

	var approvedAt sql.NullTime
	if to == domain.OrderStatusApproved {
		approvedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, approved_at = $2
		WHERE id = $3 AND status = 'pending'
	`, to, approvedAt, id)
	if err != nil {
		return nil, false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	if rowsAffected == 0 {
		// lost a race with another transition between the read and the write
		return nil, false, fmt.Errorf("%w: %s resolved concurrently", ErrInvalidTransition, id)
	}

	order, err = r.GetByID(ctx, id)
	return order, true, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OrderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var paymentMethod sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(&order.ID, &order.Status, &order.Subtotal, &order.Taxes,
		&order.Total, &paymentMethod, &order.CustomerName, &order.TableNumber,
		&order.RoomNumber, &order.CreatedAt, &approvedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	order.PaymentMethod = domain.PaymentMethod(paymentMethod.String)
	if approvedAt.Valid {
		t := approvedAt.Time
		order.ApprovedAt = &t
	}

	return order, nil
}
