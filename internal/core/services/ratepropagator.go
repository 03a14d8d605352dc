package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// RatePropagatorService copies a parent currency's rate to every currency
// declared as its derivative, so wrapped/receipt tokens price against their
// underlying asset. It runs after direct rate fetching and before valuation;
// children have no direct rate source of their own.
type RatePropagatorService struct {
	currencyRepo portsrepo.CurrencyRepository
	rateRepo     portsrepo.RateRepository
	logger       *slog.Logger
}

func NewRatePropagatorService(currencyRepo portsrepo.CurrencyRepository, rateRepo portsrepo.RateRepository, logger *slog.Logger) *RatePropagatorService {
	return &RatePropagatorService{
		currencyRepo: currencyRepo,
		rateRepo:     rateRepo,
		logger:       logger,
	}
}

// Propagate upserts each child's rate to equal its parent's, tagging
// provenance with the parent code. A child whose parent has no rate yet is
// left without a rate this cycle, not zeroed. Self-referencing currencies are
// skipped so the propagation can never overwrite a directly fetched rate
// through the degenerate loop.
func (s *RatePropagatorService) Propagate(ctx context.Context) (int, error) {
	children, err := s.currencyRepo.ListChildCurrencies(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list child currencies: %w", err)
	}

	updated := 0
	for _, child := range children {
		if !child.HasParent() {
			continue
		}
		parentRate, err := s.rateRepo.FindRate(ctx, child.ParentCurrencyID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				s.logger.Warn("parent has no rate yet, child left unrated",
					slog.String("child", child.Code))
				continue
			}
			return updated, fmt.Errorf("failed to read parent rate for %s: %w", child.Code, err)
		}

		parent, err := s.currencyRepo.FindCurrencyByID(ctx, child.ParentCurrencyID)
		if err != nil {
			return updated, fmt.Errorf("failed to load parent of %s: %w", child.Code, err)
		}

		err = s.rateRepo.UpsertRate(ctx, domain.RateRecord{
			CurrencyID: child.CurrencyID,
			Rate:       parentRate.Rate,
			Source:     fmt.Sprintf("%s (from %s)", parentRate.Source, parent.Code),
			UpdatedAt:  time.Now(),
		})
		if err != nil {
			return updated, fmt.Errorf("failed to propagate rate to %s: %w", child.Code, err)
		}
		s.logger.Info("propagated parent rate",
			slog.String("child", child.Code),
			slog.String("parent", parent.Code),
			slog.String("rate", parentRate.Rate.String()))
		updated++
	}
	return updated, nil
}
