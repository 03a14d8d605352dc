package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
	portssvc "github.com/keithkandiawan/personal-finance/internal/core/ports/services"
)

// StaleRateWindow is the freshness cutoff reported by the rate cycle.
const StaleRateWindow = 24 * time.Hour

var decimalOne = decimal.NewFromInt(1)

// RateRefreshResult summarizes one rate-fetch cycle.
type RateRefreshResult struct {
	Fetched    int
	Propagated int
	Failed     []string // currency codes that could not be updated
	Stale      []domain.StaleRate
}

// RateRefreshService runs the price-fetch cycle: it fetches a quote for every
// symbol-mapped currency that has its own rate source, applies quote
// inversion, upserts the rate table, and then runs the rate propagator so
// derivative currencies inherit their parent's fresh rate.
type RateRefreshService struct {
	mappingRepo portsrepo.MappingRepository
	rateRepo    portsrepo.RateRepository
	quotes      portssvc.QuoteClient
	propagator  *RatePropagatorService
	source      string
	logger      *slog.Logger
}

func NewRateRefreshService(
	mappingRepo portsrepo.MappingRepository,
	rateRepo portsrepo.RateRepository,
	quotes portssvc.QuoteClient,
	propagator *RatePropagatorService,
	source string,
	logger *slog.Logger,
) *RateRefreshService {
	return &RateRefreshService{
		mappingRepo: mappingRepo,
		rateRepo:    rateRepo,
		quotes:      quotes,
		propagator:  propagator,
		source:      source,
		logger:      logger,
	}
}

// Refresh fetches and stores all mapped rates. A failed symbol is recorded
// and skipped; the cycle keeps going. An empty mapping table yields a zero
// result, not an error.
func (s *RateRefreshService) Refresh(ctx context.Context) (*RateRefreshResult, error) {
	mappings, err := s.mappingRepo.ListSymbolMappings(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbol mappings: %w", err)
	}

	result := &RateRefreshResult{}
	for _, mapping := range mappings {
		price, err := s.quotes.FetchPrice(ctx, mapping.Symbol)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				s.logger.Warn("no quote for symbol", slog.String("symbol", mapping.Symbol))
			} else {
				s.logger.Error("quote fetch failed",
					slog.String("symbol", mapping.Symbol),
					slog.String("error", err.Error()))
			}
			result.Failed = append(result.Failed, mapping.Symbol)
			continue
		}

		rate := price
		if mapping.IsInverted {
			if price.IsZero() {
				s.logger.Warn("zero quote cannot be inverted", slog.String("symbol", mapping.Symbol))
				result.Failed = append(result.Failed, mapping.Symbol)
				continue
			}
			rate = decimalOne.Div(price)
		}

		err = s.rateRepo.UpsertRate(ctx, domain.RateRecord{
			CurrencyID: mapping.CurrencyID,
			Rate:       rate,
			Source:     s.source,
			UpdatedAt:  time.Now(),
		})
		if err != nil {
			return result, fmt.Errorf("failed to upsert rate for %s: %w", mapping.Symbol, err)
		}
		s.logger.Info("rate updated",
			slog.String("symbol", mapping.Symbol),
			slog.String("rate", rate.String()))
		result.Fetched++
	}

	result.Propagated, err = s.propagator.Propagate(ctx)
	if err != nil {
		return result, err
	}

	result.Stale, err = s.rateRepo.ListStaleRates(ctx, StaleRateWindow)
	if err != nil {
		return result, fmt.Errorf("failed to check stale rates: %w", err)
	}
	for _, stale := range result.Stale {
		s.logger.Warn("stale rate",
			slog.String("currency", stale.CurrencyCode),
			slog.Duration("age", stale.Age))
	}
	return result, nil
}
