// Package checkout builds the initial pending order from a cart and hands it
// to the orders service, falling back to a local queue when the backend is
// unreachable so the customer is never blocked at the counter.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brewline/cafe-kiosk/internal/domain"
	"github.com/brewline/cafe-kiosk/internal/localstate"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidTotal         = errors.New("order total must be positive")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
)

// OrderPlacer is the write path to the orders service.
type OrderPlacer interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
}

// DeliveryContext is the optional where-to-bring-it information. Values given
// here become the sticky defaults for the next order; blank values fall back
// to whatever was remembered from last time.
type DeliveryContext struct {
	CustomerName string
	TableNumber  string
	RoomNumber   string
}

type Checkout struct {
	placer OrderPlacer
	state  localstate.Store
	logger *slog.Logger
}

func New(placer OrderPlacer, state localstate.Store, logger *slog.Logger) *Checkout {
	return &Checkout{
		placer: placer,
		state:  state,
		logger: logger,
	}
}

// Submit validates the cart, builds the pending order, and persists it.
// queued is true when the backend write failed and the order went to the
// local pending queue instead; the caller still proceeds to the waiting
// screen, where the lifecycle countdown will eventually expire it.
// The cart is cleared on every successful handoff, queued or not.
func (c *Checkout) Submit(ctx context.Context, cart *Cart, method domain.PaymentMethod, delivery DeliveryContext) (order domain.Order, queued bool, err error) {
	if cart.Empty() {
		return domain.Order{}, false, ErrEmptyCart
	}
	if !method.Valid() {
		return domain.Order{}, false, ErrInvalidPaymentMethod
	}

	summary := cart.Summarize()
	if !summary.Total.IsPositive() {
		return domain.Order{}, false, ErrInvalidTotal
	}

	delivery = c.resolveDelivery(delivery)

	now := time.Now().UTC()
	order = domain.Order{
		ID:            domain.NewOrderID(now),
		Items:         cart.Items(),
		Subtotal:      summary.Subtotal,
		Taxes:         summary.Taxes,
		Total:         summary.Total,
		PaymentMethod: method,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
		CustomerName:  delivery.CustomerName,
		TableNumber:   delivery.TableNumber,
		RoomNumber:    delivery.RoomNumber,
	}

	created, err := c.placer.Create(ctx, order)
	if err != nil {
		c.logger.Error("failed to persist order, queueing locally", "error", err, "order_id", order.ID)
		if qerr := localstate.EnqueuePendingOrder(c.state, order); qerr != nil {
			c.logger.Error("failed to queue order locally", "error", qerr, "order_id", order.ID)
		}
		cart.Clear()
		return order, true, nil
	}

	if err := localstate.SaveOrderSnapshot(c.state, created); err != nil {
		c.logger.Error("failed to persist order snapshot", "error", err, "order_id", created.ID)
	}

	cart.Clear()
	return created, false, nil
}

// resolveDelivery fills blanks from the sticky values and remembers anything
// newly provided.
func (c *Checkout) resolveDelivery(delivery DeliveryContext) DeliveryContext {
	if delivery.TableNumber == "" {
		if table, ok, err := localstate.TableNumber(c.state); err == nil && ok {
			delivery.TableNumber = table
		}
	} else if err := localstate.SetTableNumber(c.state, delivery.TableNumber); err != nil {
		c.logger.Error("failed to remember table number", "error", err)
	}

	if delivery.RoomNumber == "" {
		if room, ok, err := localstate.RoomNumber(c.state); err == nil && ok {
			delivery.RoomNumber = room
		}
	} else if err := localstate.SetRoomNumber(c.state, delivery.RoomNumber); err != nil {
		c.logger.Error("failed to remember room number", "error", err)
	}

	return delivery
}
