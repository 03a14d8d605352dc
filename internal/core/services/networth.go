package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// NetWorthService aggregates the latest balances into the daily net-worth
// summary. The summary is keyed by calendar date and upserted, so multiple
// runs on the same day replace the row instead of accumulating duplicates.
type NetWorthService struct {
	snapshotRepo portsrepo.SnapshotRepository
	logger       *slog.Logger
}

func NewNetWorthService(snapshotRepo portsrepo.SnapshotRepository, logger *slog.Logger) *NetWorthService {
	return &NetWorthService{
		snapshotRepo: snapshotRepo,
		logger:       logger,
	}
}

// Snapshot computes and upserts today's summary. Returns the summary, or
// apperrors-wrapped failure; a day with no balances at all is a no-op
// reported via the (nil, nil) return.
func (s *NetWorthService) Snapshot(ctx context.Context, now time.Time) (*domain.NetWorthSummary, error) {
	latest, err := s.snapshotRepo.ListLatestBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest balances: %w", err)
	}
	if len(latest) == 0 {
		s.logger.Warn("no balances found, skipping net worth snapshot")
		return nil, nil
	}

	summary := domain.NetWorthSummary{
		SnapshotDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		NumBalances:  len(latest),
	}

	for _, balance := range latest {
		base := decimal.Zero
		if balance.ValueBase != nil {
			base = *balance.ValueBase
		}
		secondary := decimal.Zero
		if balance.ValueSecondary != nil {
			secondary = *balance.ValueSecondary
		}
		switch balance.AccountType {
		case domain.Liability:
			summary.LiabilitiesBase = summary.LiabilitiesBase.Add(base)
			summary.LiabilitiesSecondary = summary.LiabilitiesSecondary.Add(secondary)
		default:
			summary.AssetsBase = summary.AssetsBase.Add(base)
			summary.AssetsSecondary = summary.AssetsSecondary.Add(secondary)
		}
	}
	summary.NetWorthBase = summary.AssetsBase.Sub(summary.LiabilitiesBase)
	summary.NetWorthSecondary = summary.AssetsSecondary.Sub(summary.LiabilitiesSecondary)

	if err := s.snapshotRepo.UpsertNetWorthSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to save net worth summary: %w", err)
	}

	s.logger.Info("net worth snapshot saved",
		slog.String("date", summary.SnapshotDate.Format("2006-01-02")),
		slog.String("assets_base", summary.AssetsBase.String()),
		slog.String("liabilities_base", summary.LiabilitiesBase.String()),
		slog.String("net_worth_base", summary.NetWorthBase.String()),
		slog.Int("num_balances", summary.NumBalances))
	return &summary, nil
}
