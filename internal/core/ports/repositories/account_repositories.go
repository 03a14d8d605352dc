package repositories

import (
	"context"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// AccountRepository manages the account registry.
type AccountRepository interface {
	// SaveAccount upserts an account by name (bootstrap path).
	SaveAccount(ctx context.Context, account domain.Account) error

	// FindAccountByName retrieves an active account by its unique name.
	// Returns apperrors.ErrNotFound when absent or deactivated.
	FindAccountByName(ctx context.Context, name string) (*domain.Account, error)

	// ListActiveAccounts retrieves all active accounts.
	ListActiveAccounts(ctx context.Context) ([]domain.Account, error)

	// DeactivateAccount soft-deletes an account; rows referencing it remain.
	DeactivateAccount(ctx context.Context, accountID string) error
}
