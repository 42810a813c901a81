package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Sizes     []ItemSize      `json:"sizes,omitempty"`
	Available bool            `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
}

type InventoryItem struct {
	ID          string    `json:"id"`
	ProductName string    `json:"product_name"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	IsAvailable bool      `json:"is_available"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type FAQ struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	DisplayOrder int    `json:"display_order"`
}

type RatingSource struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	DisplayOrder int    `json:"display_order"`
}
