package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Goal struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Target    decimal.Decimal `json:"target"`
	Current   decimal.Decimal `json:"current"`
	Color     string          `json:"color,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
