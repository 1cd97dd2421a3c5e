package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreditCard struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Bank      string          `json:"bank"`
	Used      decimal.Decimal `json:"used"`
	Limit     decimal.Decimal `json:"limit"`
	Color     string          `json:"color,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
