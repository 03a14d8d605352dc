package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// NormalizerService merges raw observations from all collectors of one run
// into one record per (account, canonical currency) pair. Quantities for the
// same pair are summed, never overwritten: one exchange account can report a
// currency from several sub-accounts, and the same wallet can be queried on
// more than one path within a run.
type NormalizerService struct {
	resolver    *ResolverService
	accountRepo portsrepo.AccountRepository
}

func NewNormalizerService(resolver *ResolverService, accountRepo portsrepo.AccountRepository) *NormalizerService {
	return &NormalizerService{
		resolver:    resolver,
		accountRepo: accountRepo,
	}
}

// Normalize resolves and merges observations. Records whose identity cannot
// be resolved are excluded and returned as unmapped, never silently dropped;
// they do not abort the run. Output order is deterministic but meaningless.
func (s *NormalizerService) Normalize(ctx context.Context, observations []domain.Observation) ([]domain.Balance, []domain.UnmappedRecord, error) {
	sums := make(map[domain.Holding]decimal.Decimal)
	var unmapped []domain.UnmappedRecord

	for _, obs := range observations {
		accountID, reason, err := s.resolveAccount(ctx, obs)
		if err != nil {
			return nil, nil, err
		}
		if reason != "" {
			unmapped = append(unmapped, domain.UnmappedRecord{
				AccountName: obs.AccountName,
				Identity:    obs.Identity(),
				Reason:      reason,
			})
			continue
		}

		currency, err := s.resolveCurrency(ctx, obs)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				unmapped = append(unmapped, domain.UnmappedRecord{
					AccountName: obs.AccountName,
					Identity:    obs.Identity(),
					Reason:      domain.ReasonUnknownCurrency,
				})
				continue
			}
			return nil, nil, err
		}

		key := domain.Holding{AccountID: accountID, CurrencyID: currency.CurrencyID}
		sums[key] = sums[key].Add(obs.Quantity)
	}

	balances := make([]domain.Balance, 0, len(sums))
	for key, quantity := range sums {
		balances = append(balances, domain.Balance{
			AccountID:  key.AccountID,
			CurrencyID: key.CurrencyID,
			Quantity:   quantity,
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].AccountID != balances[j].AccountID {
			return balances[i].AccountID < balances[j].AccountID
		}
		return balances[i].CurrencyID < balances[j].CurrencyID
	})
	return balances, unmapped, nil
}

func (s *NormalizerService) resolveAccount(ctx context.Context, obs domain.Observation) (string, domain.UnmappedReason, error) {
	if obs.AccountID != "" {
		return obs.AccountID, "", nil
	}
	account, err := s.accountRepo.FindAccountByName(ctx, obs.AccountName)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", domain.ReasonUnknownAccount, nil
		}
		return "", "", fmt.Errorf("failed to resolve account %q: %w", obs.AccountName, err)
	}
	return account.AccountID, "", nil
}

func (s *NormalizerService) resolveCurrency(ctx context.Context, obs domain.Observation) (*domain.Currency, error) {
	switch {
	case obs.Symbol != "":
		return s.resolver.ResolveSymbol(ctx, obs.Symbol)
	case obs.IsNative:
		return s.resolver.ResolveNative(ctx, obs.Network)
	default:
		return s.resolver.ResolveContract(ctx, obs.Network, obs.ContractAddress)
	}
}
