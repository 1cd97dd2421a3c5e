package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ListActive    = "active"
	ListCompleted = "completed"
	ListArchived  = "archived"
)

type ShoppingList struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Month          *string         `json:"month"`
	Status         string          `json:"status"`
	TotalEstimated decimal.Decimal `json:"total_estimated"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	Items          []ShoppingItem  `json:"items"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type ShoppingItem struct {
	ID             int64            `json:"id"`
	ShoppingListID int64            `json:"shopping_list_id"`
	Name           string           `json:"name"`
	Category       string           `json:"category"`
	Quantity       string           `json:"quantity"`
	EstimatedPrice decimal.Decimal  `json:"estimated_price"`
	ActualPrice    *decimal.Decimal `json:"actual_price"`
	IsPurchased    bool             `json:"is_purchased"`
	Notes          *string          `json:"notes"`
	Order          int              `json:"order"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// SpentPrice is the price an item contributes once purchased: the actual
// price when recorded, the estimate otherwise.
func (i ShoppingItem) SpentPrice() decimal.Decimal {
	if i.ActualPrice != nil {
		return *i.ActualPrice
	}
	return i.EstimatedPrice
}
