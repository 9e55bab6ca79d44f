package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is one persisted price reading for a product on an exchange.
// Rows are append-only and never mutated.
type Observation struct {
	ID         int64           `json:"id"`
	Exchange   string          `json:"exchange"`
	Product    string          `json:"product"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
}
