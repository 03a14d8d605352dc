// Package pgsql implements the repository ports on PostgreSQL via pgx.
package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

type PgxCurrencyRepository struct {
	pool *pgxpool.Pool
}

// NewPgxCurrencyRepository creates a new repository for the currency registry.
func NewPgxCurrencyRepository(pool *pgxpool.Pool) portsrepo.CurrencyRepository {
	return &PgxCurrencyRepository{pool: pool}
}

// SaveCurrency inserts a new canonical currency. The code is unique; a taken
// code maps to apperrors.ErrDuplicate so the caller can re-resolve the winner.
func (r *PgxCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	query := `
		INSERT INTO currencies (currency_id, code, type_id, name, parent_currency_id, created_at)
		VALUES ($1, $2, (SELECT type_id FROM currency_types WHERE name = $3), $4, $5, $6);
	`
	var parentID sql.NullString
	if currency.ParentCurrencyID != "" {
		parentID = sql.NullString{String: currency.ParentCurrencyID, Valid: true}
	}
	createdAt := currency.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, query,
		currency.CurrencyID,
		currency.Code,
		string(currency.Type),
		currency.Name,
		parentID,
		createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return fmt.Errorf("%w: currency code %s already exists", apperrors.ErrDuplicate, currency.Code)
			}
			if pgErr.Code == "23502" { // not_null_violation (unknown currency type)
				return fmt.Errorf("%w: currency type %s is not defined", apperrors.ErrConfiguration, currency.Type)
			}
		}
		return fmt.Errorf("failed to save currency %s: %w", currency.Code, err)
	}
	return nil
}

// SetParentCurrency links a currency to the parent whose rate it inherits.
func (r *PgxCurrencyRepository) SetParentCurrency(ctx context.Context, currencyID, parentCurrencyID string) error {
	query := `UPDATE currencies SET parent_currency_id = $2 WHERE currency_id = $1;`

	tag, err := r.pool.Exec(ctx, query, currencyID, parentCurrencyID)
	if err != nil {
		return fmt.Errorf("failed to set parent of currency %s: %w", currencyID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const currencySelect = `
	SELECT c.currency_id, c.code, ct.name, c.name, c.parent_currency_id, c.created_at
	FROM currencies c
	JOIN currency_types ct ON ct.type_id = c.type_id
`

// FindCurrencyByCode retrieves a currency by code, matched case-insensitively.
func (r *PgxCurrencyRepository) FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := currencySelect + `WHERE LOWER(c.code) = LOWER($1);`

	currency, err := r.scanCurrency(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find currency by code %s: %w", code, err)
	}
	return currency, nil
}

// FindCurrencyByID retrieves a currency by primary key.
func (r *PgxCurrencyRepository) FindCurrencyByID(ctx context.Context, currencyID string) (*domain.Currency, error) {
	query := currencySelect + `WHERE c.currency_id = $1;`

	currency, err := r.scanCurrency(r.pool.QueryRow(ctx, query, currencyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find currency %s: %w", currencyID, err)
	}
	return currency, nil
}

// ListCurrencies retrieves all currencies ordered by code.
func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	query := currencySelect + `ORDER BY c.code;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	return r.collectCurrencies(rows)
}

// ListChildCurrencies retrieves currencies with a parent reference, excluding
// degenerate self-references so propagation can never loop onto itself.
func (r *PgxCurrencyRepository) ListChildCurrencies(ctx context.Context) ([]domain.Currency, error) {
	query := currencySelect + `
		WHERE c.parent_currency_id IS NOT NULL
		  AND c.parent_currency_id <> c.currency_id
		ORDER BY c.code;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query child currencies: %w", err)
	}
	defer rows.Close()

	return r.collectCurrencies(rows)
}

// CurrencyTypeExists reports whether the classification taxonomy has the type.
func (r *PgxCurrencyRepository) CurrencyTypeExists(ctx context.Context, t domain.CurrencyType) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM currency_types WHERE name = $1);`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, string(t)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check currency type %s: %w", t, err)
	}
	return exists, nil
}

func (r *PgxCurrencyRepository) scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var currency domain.Currency
	var typeName string
	var parentID sql.NullString
	err := row.Scan(
		&currency.CurrencyID,
		&currency.Code,
		&typeName,
		&currency.Name,
		&parentID,
		&currency.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	currency.Type = domain.CurrencyType(typeName)
	currency.ParentCurrencyID = parentID.String
	return &currency, nil
}

func (r *PgxCurrencyRepository) collectCurrencies(rows pgx.Rows) ([]domain.Currency, error) {
	currencies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Currency, error) {
		currency, err := r.scanCurrency(row)
		if err != nil {
			return domain.Currency{}, err
		}
		return *currency, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect currency rows: %w", err)
	}
	return currencies, nil
}
