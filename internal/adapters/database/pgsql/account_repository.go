package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPgxAccountRepository creates a new repository for the account registry.
func NewPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepository {
	return &PgxAccountRepository{pool: pool}
}

// SaveAccount upserts an account by its unique name. Seeding the same account
// twice updates type/activity instead of failing, keeping bootstrap idempotent.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO accounts (account_id, name, account_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			account_type = EXCLUDED.account_type,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		string(account.Type),
		account.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.Name, err)
	}
	return nil
}

// FindAccountByName retrieves an active account by its unique name.
func (r *PgxAccountRepository) FindAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	query := `
		SELECT account_id, name, account_type, is_active, created_at, updated_at
		FROM accounts
		WHERE name = $1 AND is_active;
	`
	var account domain.Account
	var accountType string
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&account.AccountID,
		&account.Name,
		&accountType,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by name %s: %w", name, err)
	}
	account.Type = domain.AccountType(accountType)
	return &account, nil
}

// ListActiveAccounts retrieves all active accounts ordered by name.
func (r *PgxAccountRepository) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `
		SELECT account_id, name, account_type, is_active, created_at, updated_at
		FROM accounts
		WHERE is_active
		ORDER BY name;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		var account domain.Account
		var accountType string
		err := row.Scan(
			&account.AccountID,
			&account.Name,
			&accountType,
			&account.IsActive,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		account.Type = domain.AccountType(accountType)
		return account, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect account rows: %w", err)
	}
	return accounts, nil
}

// DeactivateAccount soft-deletes an account. Historical snapshot rows keep
// referencing it.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string) error {
	query := `UPDATE accounts SET is_active = FALSE, updated_at = $2 WHERE account_id = $1;`

	tag, err := r.pool.Exec(ctx, query, accountID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
