// Package repositories defines the persistence interfaces consumed by the
// core services. Implementations live under internal/adapters/database.
package repositories

import (
	"context"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// CurrencyRepository manages the canonical currency registry.
type CurrencyRepository interface {
	// SaveCurrency inserts a new canonical currency. Returns
	// apperrors.ErrDuplicate when the code is already taken.
	SaveCurrency(ctx context.Context, currency domain.Currency) error

	// SetParentCurrency links a currency to the parent whose rate it
	// inherits. Returns apperrors.ErrNotFound when the currency is absent.
	SetParentCurrency(ctx context.Context, currencyID, parentCurrencyID string) error

	// FindCurrencyByCode retrieves a currency by code, matched
	// case-insensitively. Returns apperrors.ErrNotFound when absent.
	FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)

	// FindCurrencyByID retrieves a currency by primary key.
	FindCurrencyByID(ctx context.Context, currencyID string) (*domain.Currency, error)

	// ListCurrencies retrieves all currencies ordered by code.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)

	// ListChildCurrencies retrieves currencies with a parent reference,
	// excluding degenerate self-references.
	ListChildCurrencies(ctx context.Context) ([]domain.Currency, error)

	// CurrencyTypeExists reports whether the classification taxonomy has the
	// given type. A missing required type is a fatal configuration error.
	CurrencyTypeExists(ctx context.Context, t domain.CurrencyType) (bool, error)
}
