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

type PgxRateRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRateRepository creates a new repository for the live rate table.
func NewPgxRateRepository(pool *pgxpool.Pool) portsrepo.RateRepository {
	return &PgxRateRepository{pool: pool}
}

// UpsertRate writes the live rate for a currency, latest write wins.
func (r *PgxRateRepository) UpsertRate(ctx context.Context, rate domain.RateRecord) error {
	query := `
		INSERT INTO rate_table (currency_id, rate, source, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (currency_id) DO UPDATE SET
			rate = EXCLUDED.rate,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at;
	`
	updatedAt := rate.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query, rate.CurrencyID, rate.Rate, rate.Source, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rate for %s: %w", rate.CurrencyID, err)
	}
	return nil
}

// FindRate retrieves the live rate for a currency.
func (r *PgxRateRepository) FindRate(ctx context.Context, currencyID string) (*domain.RateRecord, error) {
	query := `
		SELECT currency_id, rate, source, updated_at
		FROM rate_table
		WHERE currency_id = $1;
	`
	var record domain.RateRecord
	err := r.pool.QueryRow(ctx, query, currencyID).Scan(
		&record.CurrencyID,
		&record.Rate,
		&record.Source,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find rate for %s: %w", currencyID, err)
	}
	return &record, nil
}

// ListRates retrieves the full live rate table.
func (r *PgxRateRepository) ListRates(ctx context.Context) ([]domain.RateRecord, error) {
	query := `
		SELECT currency_id, rate, source, updated_at
		FROM rate_table;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate table: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RateRecord, error) {
		var record domain.RateRecord
		err := row.Scan(&record.CurrencyID, &record.Rate, &record.Source, &record.UpdatedAt)
		return record, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect rate rows: %w", err)
	}
	return records, nil
}

// ListStaleRates retrieves rates last updated before the cutoff, oldest first.
func (r *PgxRateRepository) ListStaleRates(ctx context.Context, olderThan time.Duration) ([]domain.StaleRate, error) {
	query := `
		SELECT c.code, rt.source, rt.updated_at
		FROM rate_table rt
		JOIN currencies c ON c.currency_id = rt.currency_id
		WHERE rt.updated_at < $1
		ORDER BY rt.updated_at;
	`
	now := time.Now().UTC()
	rows, err := r.pool.Query(ctx, query, now.Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to query stale rates: %w", err)
	}
	defer rows.Close()

	stale, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StaleRate, error) {
		var s domain.StaleRate
		err := row.Scan(&s.CurrencyCode, &s.Source, &s.UpdatedAt)
		s.Age = now.Sub(s.UpdatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect stale rate rows: %w", err)
	}
	return stale, nil
}
