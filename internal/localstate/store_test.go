package localstate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

func testOrder() domain.Order {
	approvedAt := time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC)
	return domain.Order{
		ID: "ORD123456",
		Items: []domain.OrderItem{
			{ID: "1", Name: "Cappuccino", Price: decimal.NewFromInt(120), Quantity: 2, Size: domain.ItemSizeRegular},
		},
		Subtotal:      decimal.NewFromInt(240),
		Taxes:         decimal.Zero,
		Total:         decimal.NewFromInt(240),
		PaymentMethod: domain.PaymentMethodCash,
		Status:        domain.OrderStatusApproved,
		CreatedAt:     time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		ApprovedAt:    &approvedAt,
		TableNumber:   "4",
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk", "state.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Set("key", []byte(`"value"`)))

	got, ok, err := store.Get("key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"value"`, string(got))

	require.NoError(t, store.Delete("key"))
	_, ok, err = store.Get("key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshotSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	original := testOrder()
	require.NoError(t, SaveOrderSnapshot(store, original))
	require.NoError(t, SetLastApprovedOrderID(store, original.ID))

	// simulate a fresh process opening the same state file
	reloaded, err := NewFileStore(path)
	require.NoError(t, err)

	id, ok, err := LastApprovedOrderID(reloaded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, original.ID, id)

	snapshot, ok, err := OrderSnapshot(reloaded)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, original.ID, snapshot.ID)
	assert.Equal(t, domain.OrderStatusApproved, snapshot.Status)
	assert.True(t, snapshot.Total.Equal(original.Total), "totals must survive the round trip")
	assert.True(t, snapshot.Subtotal.Equal(original.Subtotal))
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 2, snapshot.Items[0].Quantity)
	require.NotNil(t, snapshot.ApprovedAt)
}

func TestSnapshotOverwritten(t *testing.T) {
	store := NewMemStore()

	first := testOrder()
	require.NoError(t, SaveOrderSnapshot(store, first))

	second := first
	second.ID = "ORD654321"
	require.NoError(t, SaveOrderSnapshot(store, second))

	snapshot, ok, err := OrderSnapshot(store)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ORD654321", snapshot.ID)
}

func TestPendingOrdersQueue(t *testing.T) {
	store := NewMemStore()

	queue, err := PendingOrders(store)
	require.NoError(t, err)
	assert.Empty(t, queue)

	first := testOrder()
	first.Status = domain.OrderStatusPending
	require.NoError(t, EnqueuePendingOrder(store, first))

	second := first
	second.ID = "ORD999999"
	require.NoError(t, EnqueuePendingOrder(store, second))

	queue, err = PendingOrders(store)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "ORD123456", queue[0].ID)
	assert.Equal(t, "ORD999999", queue[1].ID)

	require.NoError(t, ClearPendingOrders(store))
	queue, err = PendingOrders(store)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestStickyDeliveryContext(t *testing.T) {
	store := NewMemStore()

	_, ok, err := TableNumber(store)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetTableNumber(store, "12"))
	require.NoError(t, SetRoomNumber(store, "204"))

	table, ok, err := TableNumber(store)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "12", table)

	room, ok, err := RoomNumber(store)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "204", room)
}
