package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// ReconcilerService detects holdings that disappeared since the previous
// snapshot and synthesizes explicit zero-quantity rows for them, so history
// never carries a stale nonzero balance forward.
//
// It must only run when the ingestion run aggregated all configured sources.
// On a partial run, absence of a pair is ambiguous (the source simply was not
// queried), and zeroing would falsely record a sale. Within a full run a
// transient collector failure looks identical to "asset sold"; that false
// positive risk is a known limitation and is logged loudly rather than
// hidden.
type ReconcilerService struct {
	snapshotRepo portsrepo.SnapshotRepository
	logger       *slog.Logger
}

func NewReconcilerService(snapshotRepo portsrepo.SnapshotRepository, logger *slog.Logger) *ReconcilerService {
	return &ReconcilerService{
		snapshotRepo: snapshotRepo,
		logger:       logger,
	}
}

// Reconcile appends a zero-valued record for every (account, currency) pair
// whose most recent historical quantity is nonzero but which is absent from
// the current run. The comparison uses every normalized pair of the run,
// valuable or not, so an unvaluable holding is never mistaken for a sold one.
func (s *ReconcilerService) Reconcile(ctx context.Context, valued []domain.ValuedBalance) ([]domain.ValuedBalance, int, error) {
	current := make(map[domain.Holding]struct{}, len(valued))
	for _, v := range valued {
		current[domain.Holding{AccountID: v.AccountID, CurrencyID: v.CurrencyID}] = struct{}{}
	}

	historical, err := s.snapshotRepo.ListNonZeroHoldings(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load historical holdings: %w", err)
	}

	synthesized := 0
	for _, holding := range historical {
		if _, held := current[holding]; held {
			continue
		}
		zero := decimal.Zero
		valued = append(valued, domain.ValuedBalance{
			Balance: domain.Balance{
				AccountID:  holding.AccountID,
				CurrencyID: holding.CurrencyID,
				Quantity:   decimal.Zero,
			},
			ValueBase:      &zero,
			ValueSecondary: &zero,
		})
		synthesized++
	}

	if synthesized > 0 {
		// A collector that silently failed mid-run would also land here.
		s.logger.Warn("synthesized zero balances for holdings absent from this full run",
			slog.Int("count", synthesized))
	}
	return valued, synthesized, nil
}
