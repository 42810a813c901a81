package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/cafe-kiosk/internal/domain"
	"github.com/brewline/cafe-kiosk/internal/localstate"
)

type fakePlacer struct {
	created []domain.Order
	err     error
}

func (p *fakePlacer) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	if p.err != nil {
		return domain.Order{}, p.err
	}
	p.created = append(p.created, order)
	return order, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func espresso(quantity int) domain.OrderItem {
	return domain.OrderItem{
		ID:       "1",
		Name:     "Espresso",
		Price:    decimal.NewFromInt(100),
		Quantity: quantity,
		Size:     domain.ItemSizeRegular,
	}
}

func TestCartMergesLines(t *testing.T) {
	cart := NewCart()
	cart.Add(espresso(1))
	cart.Add(espresso(2))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	large := espresso(1)
	large.Size = domain.ItemSizeLarge
	cart.Add(large)
	assert.Len(t, cart.Items(), 2, "different sizes are separate lines")
}

func TestCartSetQuantity(t *testing.T) {
	cart := NewCart()
	cart.Add(espresso(2))

	cart.SetQuantity("1", domain.ItemSizeRegular, 5)
	assert.Equal(t, 5, cart.Items()[0].Quantity)

	cart.SetQuantity("1", domain.ItemSizeRegular, 0)
	assert.True(t, cart.Empty(), "quantity zero removes the line")
}

func TestCartSummarize(t *testing.T) {
	cart := NewCart()
	cart.Add(domain.OrderItem{ID: "1", Name: "Cappuccino", Price: decimal.RequireFromString("120.50"), Quantity: 2})
	cart.Add(domain.OrderItem{ID: "2", Name: "Croissant", Price: decimal.NewFromInt(80), Quantity: 1})

	summary := cart.Summarize()
	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("321.00")), "got %s", summary.Subtotal)
	assert.True(t, summary.Taxes.IsZero())
	assert.True(t, summary.Total.Equal(summary.Subtotal), "total carries no tax")
}

func TestCartCoercedLineItems(t *testing.T) {
	// a menu payload with a string price and no quantity still prices correctly
	raw := json.RawMessage(`[{"id": "7", "name": "Flat White", "price": "12.50"}]`)
	items, err := domain.ParseItems(raw)
	require.NoError(t, err)

	cart := NewCart()
	for _, item := range items {
		cart.Add(item)
	}

	summary := cart.Summarize()
	assert.True(t, summary.Total.Equal(decimal.RequireFromString("12.50")), "got %s", summary.Total)
}

func TestSubmitCreatesPendingOrder(t *testing.T) {
	placer := &fakePlacer{}
	state := localstate.NewMemStore()
	co := New(placer, state, testLogger())

	cart := NewCart()
	cart.Add(espresso(2))

	order, queued, err := co.Submit(context.Background(), cart, domain.PaymentMethodCash, DeliveryContext{TableNumber: "7"})
	require.NoError(t, err)
	assert.False(t, queued)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Nil(t, order.ApprovedAt)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "7", order.TableNumber)
	assert.True(t, cart.Empty(), "cart clears after handoff")
	require.Len(t, placer.created, 1)

	// a snapshot is written so the order survives an immediate reload
	snapshot, ok, err := localstate.OrderSnapshot(state)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, order.ID, snapshot.ID)
}

func TestSubmitValidation(t *testing.T) {
	co := New(&fakePlacer{}, localstate.NewMemStore(), testLogger())

	t.Run("empty cart", func(t *testing.T) {
		_, _, err := co.Submit(context.Background(), NewCart(), domain.PaymentMethodCash, DeliveryContext{})
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		cart := NewCart()
		cart.Add(espresso(1))
		_, _, err := co.Submit(context.Background(), cart, domain.PaymentMethod("crypto"), DeliveryContext{})
		assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})

	t.Run("zero total", func(t *testing.T) {
		cart := NewCart()
		cart.Add(domain.OrderItem{ID: "9", Name: "Water", Price: decimal.Zero, Quantity: 1})
		_, _, err := co.Submit(context.Background(), cart, domain.PaymentMethodCash, DeliveryContext{})
		assert.ErrorIs(t, err, ErrInvalidTotal)
	})
}

func TestSubmitQueuesLocallyOnStoreFailure(t *testing.T) {
	placer := &fakePlacer{err: errors.New("backend unreachable")}
	state := localstate.NewMemStore()
	co := New(placer, state, testLogger())

	cart := NewCart()
	cart.Add(espresso(1))

	order, queued, err := co.Submit(context.Background(), cart, domain.PaymentMethodQR, DeliveryContext{})
	require.NoError(t, err, "a store failure must not block the customer")
	assert.True(t, queued)
	assert.NotEmpty(t, order.ID)
	assert.True(t, cart.Empty())

	pending, err := localstate.PendingOrders(state)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, order.ID, pending[0].ID)
}

func TestSubmitStickyDeliveryContext(t *testing.T) {
	placer := &fakePlacer{}
	state := localstate.NewMemStore()
	co := New(placer, state, testLogger())

	cart := NewCart()
	cart.Add(espresso(1))
	_, _, err := co.Submit(context.Background(), cart, domain.PaymentMethodCash, DeliveryContext{TableNumber: "12"})
	require.NoError(t, err)

	// next order with no explicit table reuses the remembered one
	cart.Add(espresso(1))
	order, _, err := co.Submit(context.Background(), cart, domain.PaymentMethodCash, DeliveryContext{})
	require.NoError(t, err)
	assert.Equal(t, "12", order.TableNumber)
}
