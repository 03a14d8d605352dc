package repositories

import (
	"context"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// SnapshotRepository owns the append-only balance history and the daily
// net-worth summary.
type SnapshotRepository interface {
	// InsertSnapshot persists all rows in one transaction. Either every row
	// commits or none do; a partial snapshot is never left visible.
	InsertSnapshot(ctx context.Context, rows []domain.SnapshotRow) error

	// ListNonZeroHoldings returns the (account, currency) pairs whose most
	// recent snapshot row (max timestamp) has quantity > 0.
	ListNonZeroHoldings(ctx context.Context) ([]domain.Holding, error)

	// ListLatestBalances returns the most recent row per (account, currency)
	// joined with account and currency display data.
	ListLatestBalances(ctx context.Context) ([]domain.LatestBalance, error)

	// UpsertNetWorthSummary replaces the summary row for its calendar date.
	UpsertNetWorthSummary(ctx context.Context, summary domain.NetWorthSummary) error

	// ListNetWorthHistory returns summaries most recent first, up to limit
	// (0 = all).
	ListNetWorthHistory(ctx context.Context, limit int) ([]domain.NetWorthSummary, error)
}
