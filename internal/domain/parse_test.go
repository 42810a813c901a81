package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrder(t *testing.T) {
	t.Run("well-formed payload", func(t *testing.T) {
		payload := `{
			"id": "ORD123456",
			"items": [{"id": "1", "name": "Cappuccino", "price": 120, "quantity": 2, "size": "R"}],
			"subtotal": 240,
			"total": 240,
			"payment_method": "cash",
			"status": "pending",
			"created_at": "2026-08-01T10:00:00Z",
			"table_number": "4"
		}`

		order, err := ParseOrder([]byte(payload))
		require.NoError(t, err)

		assert.Equal(t, "ORD123456", order.ID)
		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, PaymentMethodCash, order.PaymentMethod)
		assert.Equal(t, "4", order.TableNumber)
		require.Len(t, order.Items, 1)
		assert.Equal(t, 2, order.Items[0].Quantity)
		assert.True(t, order.Total.Equal(decimal.NewFromInt(240)))
	})

	t.Run("price as string and missing quantity", func(t *testing.T) {
		payload := `{
			"id": "ORD000001",
			"items": [{"id": "7", "name": "Espresso", "price": "12.50"}],
			"status": "pending",
			"created_at": "2026-08-01T10:00:00Z"
		}`

		order, err := ParseOrder([]byte(payload))
		require.NoError(t, err)

		require.Len(t, order.Items, 1)
		assert.Equal(t, 1, order.Items[0].Quantity)
		assert.True(t, order.Items[0].Price.Equal(decimal.RequireFromString("12.50")))
		assert.True(t, order.Items[0].LineTotal().Equal(decimal.RequireFromString("12.50")))
	})

	t.Run("items stored as a JSON string", func(t *testing.T) {
		payload := `{
			"id": "ORD000002",
			"items": "[{\"id\": \"3\", \"name\": \"Cold Brew\", \"price\": \"160\", \"quantity\": \"2\"}]",
			"status": "approved",
			"created_at": "2026-08-01T10:00:00Z",
			"approved_at": "2026-08-01T10:05:00Z"
		}`

		order, err := ParseOrder([]byte(payload))
		require.NoError(t, err)

		require.Len(t, order.Items, 1)
		assert.Equal(t, "Cold Brew", order.Items[0].Name)
		assert.Equal(t, 2, order.Items[0].Quantity)
		require.NotNil(t, order.ApprovedAt)
	})

	t.Run("approved_at dropped unless approved", func(t *testing.T) {
		payload := `{
			"id": "ORD000003",
			"status": "rejected",
			"created_at": "2026-08-01T10:00:00Z",
			"approved_at": "2026-08-01T10:05:00Z"
		}`

		order, err := ParseOrder([]byte(payload))
		require.NoError(t, err)
		assert.Nil(t, order.ApprovedAt)
	})

	t.Run("missing status defaults to pending", func(t *testing.T) {
		order, err := ParseOrder([]byte(`{"id": "ORD000004", "created_at": "2026-08-01T10:00:00Z"}`))
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPending, order.Status)
	})

	t.Run("unknown status is an error", func(t *testing.T) {
		_, err := ParseOrder([]byte(`{"id": "ORD000005", "status": "shipped"}`))
		assert.Error(t, err)
	})

	t.Run("missing id is an error", func(t *testing.T) {
		_, err := ParseOrder([]byte(`{"status": "pending"}`))
		assert.Error(t, err)
	})
}

func TestCoerceDecimal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"number", `120`, "120"},
		{"decimal number", `12.5`, "12.5"},
		{"numeric string", `"12.50"`, "12.50"},
		{"padded string", `" 99 "`, "99"},
		{"garbage string", `"twelve"`, "0"},
		{"null", `null`, "0"},
		{"negative clamped", `-5`, "0"},
		{"object", `{}`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceDecimal(json.RawMessage(tt.raw))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}

	t.Run("absent", func(t *testing.T) {
		assert.True(t, CoerceDecimal(nil).IsZero())
	})
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"number", `3`, 3},
		{"float truncated", `2.9`, 2},
		{"numeric string", `"4"`, 4},
		{"garbage string", `"many"`, 1},
		{"null", `null`, 1},
		{"zero", `0`, 1},
		{"negative", `-2`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceQuantity(json.RawMessage(tt.raw)))
		})
	}

	t.Run("absent", func(t *testing.T) {
		assert.Equal(t, 1, CoerceQuantity(nil))
	})
}
