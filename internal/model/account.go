package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Bank        string          `json:"bank"`
	Balance     decimal.Decimal `json:"balance"`
	Investments decimal.Decimal `json:"investments"`
	Color       string          `json:"color,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
