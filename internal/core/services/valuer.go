package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// ValuerService attaches point-in-time valuations to normalized balances.
//
// The rate table stores base-units (USD) per 1 unit of each currency, so
// valueBase = quantity × rate. The secondary unit is derived by dividing the
// base value by the secondary currency's own rate: with rate(IDR) being USD
// per IDR, valueSecondary = valueBase ÷ rate(IDR). No rounding is applied
// before persistence.
type ValuerService struct {
	rateRepo      portsrepo.RateRepository
	currencyRepo  portsrepo.CurrencyRepository
	accountRepo   portsrepo.AccountRepository
	secondaryCode string
}

func NewValuerService(rateRepo portsrepo.RateRepository, currencyRepo portsrepo.CurrencyRepository, accountRepo portsrepo.AccountRepository, secondaryCode string) *ValuerService {
	return &ValuerService{
		rateRepo:      rateRepo,
		currencyRepo:  currencyRepo,
		accountRepo:   accountRepo,
		secondaryCode: secondaryCode,
	}
}

// Value computes valuations against the current rate table. Balances whose
// currency has no rate are returned with nil values and reported as
// unvaluable; they pass through for visibility but are excluded from the
// committed snapshot. A missing secondary cross-rate nulls only the secondary
// value.
func (s *ValuerService) Value(ctx context.Context, balances []domain.Balance) ([]domain.ValuedBalance, []domain.UnmappedRecord, error) {
	rates, err := s.rateTable(ctx)
	if err != nil {
		return nil, nil, err
	}
	codes, err := s.currencyCodes(ctx)
	if err != nil {
		return nil, nil, err
	}
	names, err := s.accountNames(ctx)
	if err != nil {
		return nil, nil, err
	}

	var secondaryRate *decimal.Decimal
	for currencyID, code := range codes {
		if code == s.secondaryCode {
			if rate, ok := rates[currencyID]; ok && !rate.IsZero() {
				secondaryRate = &rate
			}
			break
		}
	}

	valued := make([]domain.ValuedBalance, 0, len(balances))
	var unvaluable []domain.UnmappedRecord

	for _, balance := range balances {
		rate, ok := rates[balance.CurrencyID]
		if !ok {
			valued = append(valued, domain.ValuedBalance{Balance: balance})
			unvaluable = append(unvaluable, domain.UnmappedRecord{
				AccountName: names[balance.AccountID],
				Identity:    codes[balance.CurrencyID],
				Reason:      domain.ReasonNoRate,
			})
			continue
		}

		valueBase := balance.Quantity.Mul(rate)
		vb := domain.ValuedBalance{Balance: balance, ValueBase: &valueBase}
		if secondaryRate != nil {
			valueSecondary := valueBase.Div(*secondaryRate)
			vb.ValueSecondary = &valueSecondary
		}
		valued = append(valued, vb)
	}
	return valued, unvaluable, nil
}

func (s *ValuerService) rateTable(ctx context.Context) (map[string]decimal.Decimal, error) {
	records, err := s.rateRepo.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate table: %w", err)
	}
	rates := make(map[string]decimal.Decimal, len(records))
	for _, r := range records {
		rates[r.CurrencyID] = r.Rate
	}
	return rates, nil
}

func (s *ValuerService) currencyCodes(ctx context.Context) (map[string]string, error) {
	currencies, err := s.currencyRepo.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	codes := make(map[string]string, len(currencies))
	for _, c := range currencies {
		codes[c.CurrencyID] = c.Code
	}
	return codes, nil
}

func (s *ValuerService) accountNames(ctx context.Context) (map[string]string, error) {
	accounts, err := s.accountRepo.ListActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.AccountID] = a.Name
	}
	return names, nil
}
