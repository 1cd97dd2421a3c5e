package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Investment struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	ReturnRate decimal.Decimal `json:"return_rate"`
	Color      string          `json:"color,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
