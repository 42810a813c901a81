package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/brewline/cafe-kiosk/internal/domain"
)

// Cart accumulates line items before checkout. Lines merge on item id + size,
// so adding the same drink twice bumps the quantity instead of duplicating the
// line.
type Cart struct {
	items []domain.OrderItem
}

func NewCart() *Cart {
	return &Cart{}
}

// Add sanitizes the line before storing it: quantities below one become one
// and negative prices become zero, matching the coercion applied when order
// payloads are read back from the store.
func (c *Cart) Add(item domain.OrderItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.Price.IsNegative() {
		item.Price = decimal.Zero
	}

	for i := range c.items {
		if c.items[i].ID == item.ID && c.items[i].Size == item.Size {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

func (c *Cart) Remove(id string, size domain.ItemSize) {
	for i := range c.items {
		if c.items[i].ID == id && c.items[i].Size == size {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Cart) SetQuantity(id string, size domain.ItemSize, quantity int) {
	if quantity < 1 {
		c.Remove(id, size)
		return
	}
	for i := range c.items {
		if c.items[i].ID == id && c.items[i].Size == size {
			c.items[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Items() []domain.OrderItem {
	items := make([]domain.OrderItem, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

func (c *Cart) Clear() {
	c.items = nil
}

type Summary struct {
	Subtotal decimal.Decimal
	Taxes    decimal.Decimal
	Total    decimal.Decimal
}

// Summarize computes the cart totals. Taxes are currently always zero and the
// total equals the subtotal; the field stays so a tax rule can land without a
// schema change.
func (c *Cart) Summarize() Summary {
	subtotal := decimal.Zero
	for _, item := range c.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return Summary{
		Subtotal: subtotal,
		Taxes:    decimal.Zero,
		Total:    subtotal,
	}
}
