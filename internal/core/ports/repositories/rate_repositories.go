package repositories

import (
	"context"
	"time"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// RateRepository manages the rate table. At most one live rate exists per
// currency; UpsertRate implements latest-write-wins.
type RateRepository interface {
	UpsertRate(ctx context.Context, rate domain.RateRecord) error

	// FindRate retrieves the live rate for a currency. Returns
	// apperrors.ErrNotFound when the currency has no rate yet.
	FindRate(ctx context.Context, currencyID string) (*domain.RateRecord, error)

	// ListRates retrieves the full rate table.
	ListRates(ctx context.Context) ([]domain.RateRecord, error)

	// ListStaleRates retrieves rates last updated before the cutoff.
	ListStaleRates(ctx context.Context, olderThan time.Duration) ([]domain.StaleRate, error)
}
