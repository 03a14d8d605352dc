package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

type PgxSnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewPgxSnapshotRepository creates a new repository for the balance history
// and the daily net-worth summary.
func NewPgxSnapshotRepository(pool *pgxpool.Pool) portsrepo.SnapshotRepository {
	return &PgxSnapshotRepository{pool: pool}
}

// InsertSnapshot persists all rows of one run inside a single transaction.
// Any per-row failure rolls the whole snapshot back; a partial snapshot is
// never left visible.
func (r *PgxSnapshotRepository) InsertSnapshot(ctx context.Context, rows []domain.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	query := `
		INSERT INTO balance_snapshot (ts, account_id, currency_id, quantity, value_base, value_secondary)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query,
			row.Timestamp,
			row.AccountID,
			row.CurrencyID,
			row.Quantity,
			decimalPtr(row.ValueBase),
			decimalPtr(row.ValueSecondary),
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute snapshot batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// ListNonZeroHoldings returns the (account, currency) pairs whose most recent
// snapshot row has a positive quantity.
func (r *PgxSnapshotRepository) ListNonZeroHoldings(ctx context.Context) ([]domain.Holding, error) {
	query := `
		SELECT account_id, currency_id
		FROM (
			SELECT DISTINCT ON (account_id, currency_id) account_id, currency_id, quantity
			FROM balance_snapshot
			ORDER BY account_id, currency_id, ts DESC
		) latest
		WHERE quantity > 0;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query non-zero holdings: %w", err)
	}
	defer rows.Close()

	holdings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Holding, error) {
		var h domain.Holding
		err := row.Scan(&h.AccountID, &h.CurrencyID)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect holding rows: %w", err)
	}
	return holdings, nil
}

// ListLatestBalances returns the most recent row per (account, currency)
// joined with display data for reporting and the daily summary.
func (r *PgxSnapshotRepository) ListLatestBalances(ctx context.Context) ([]domain.LatestBalance, error) {
	query := `
		SELECT latest.ts, latest.account_id, latest.currency_id, latest.quantity,
		       latest.value_base, latest.value_secondary,
		       a.name, a.account_type, c.code
		FROM (
			SELECT DISTINCT ON (account_id, currency_id)
			       ts, account_id, currency_id, quantity, value_base, value_secondary
			FROM balance_snapshot
			ORDER BY account_id, currency_id, ts DESC
		) latest
		JOIN accounts a ON a.account_id = latest.account_id
		JOIN currencies c ON c.currency_id = latest.currency_id
		WHERE latest.quantity > 0
		ORDER BY a.name, c.code;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest balances: %w", err)
	}
	defer rows.Close()

	balances, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LatestBalance, error) {
		var b domain.LatestBalance
		var accountType string
		var valueBase, valueSecondary *decimal.Decimal
		err := row.Scan(
			&b.Timestamp,
			&b.AccountID,
			&b.CurrencyID,
			&b.Quantity,
			&valueBase,
			&valueSecondary,
			&b.AccountName,
			&accountType,
			&b.CurrencyCode,
		)
		b.AccountType = domain.AccountType(accountType)
		b.ValueBase = valueBase
		b.ValueSecondary = valueSecondary
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect latest balance rows: %w", err)
	}
	return balances, nil
}

// UpsertNetWorthSummary replaces the summary row for its calendar date.
func (r *PgxSnapshotRepository) UpsertNetWorthSummary(ctx context.Context, summary domain.NetWorthSummary) error {
	query := `
		INSERT INTO net_worth_summary (snapshot_date, assets_base, assets_secondary,
			liabilities_base, liabilities_secondary, net_worth_base, net_worth_secondary, num_balances)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (snapshot_date) DO UPDATE SET
			assets_base = EXCLUDED.assets_base,
			assets_secondary = EXCLUDED.assets_secondary,
			liabilities_base = EXCLUDED.liabilities_base,
			liabilities_secondary = EXCLUDED.liabilities_secondary,
			net_worth_base = EXCLUDED.net_worth_base,
			net_worth_secondary = EXCLUDED.net_worth_secondary,
			num_balances = EXCLUDED.num_balances;
	`
	_, err := r.pool.Exec(ctx, query,
		summary.SnapshotDate,
		summary.AssetsBase,
		summary.AssetsSecondary,
		summary.LiabilitiesBase,
		summary.LiabilitiesSecondary,
		summary.NetWorthBase,
		summary.NetWorthSecondary,
		summary.NumBalances,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert net worth summary for %s: %w",
			summary.SnapshotDate.Format("2006-01-02"), err)
	}
	return nil
}

// ListNetWorthHistory returns summaries most recent first, up to limit
// (0 = all).
func (r *PgxSnapshotRepository) ListNetWorthHistory(ctx context.Context, limit int) ([]domain.NetWorthSummary, error) {
	query := `
		SELECT snapshot_date, assets_base, assets_secondary,
		       liabilities_base, liabilities_secondary,
		       net_worth_base, net_worth_secondary, num_balances
		FROM net_worth_summary
		ORDER BY snapshot_date DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	query += `;`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query net worth history: %w", err)
	}
	defer rows.Close()

	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.NetWorthSummary, error) {
		var s domain.NetWorthSummary
		err := row.Scan(
			&s.SnapshotDate,
			&s.AssetsBase,
			&s.AssetsSecondary,
			&s.LiabilitiesBase,
			&s.LiabilitiesSecondary,
			&s.NetWorthBase,
			&s.NetWorthSecondary,
			&s.NumBalances,
		)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect net worth rows: %w", err)
	}
	return summaries, nil
}

// decimalPtr passes a nullable decimal to the driver without a custom type.
func decimalPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}
