package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateRecord is the live price of one canonical currency, expressed as
// base-units (USD) per 1 unit of the currency. At most one live rate exists
// per currency; writes are upserts and the latest write wins.
type RateRecord struct {
	CurrencyID string          `json:"currencyID"`
	Rate       decimal.Decimal `json:"rate"`
	Source     string          `json:"source"` // Provenance; derived rates note their parent
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// StaleRate describes a rate older than the freshness window, for the
// end-of-cycle report.
type StaleRate struct {
	CurrencyCode string    `json:"currencyCode"`
	Source       string    `json:"source"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Age          time.Duration
}
