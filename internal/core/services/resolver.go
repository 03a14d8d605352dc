package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// ResolverService maps raw source identities (symbols, contract addresses,
// native markers) onto canonical currencies. Resolution is idempotent:
// resolving the same identity twice returns the same currency and never
// creates a duplicate.
type ResolverService struct {
	currencyRepo portsrepo.CurrencyRepository
	mappingRepo  portsrepo.MappingRepository
}

func NewResolverService(currencyRepo portsrepo.CurrencyRepository, mappingRepo portsrepo.MappingRepository) *ResolverService {
	return &ResolverService{
		currencyRepo: currencyRepo,
		mappingRepo:  mappingRepo,
	}
}

// ResolveSymbol looks up a canonical currency by ticker, case-insensitively.
// It does not create currencies: exchange- and spreadsheet-reported tickers
// with no canonical entry are a per-record mapping error for the caller.
func (s *ResolverService) ResolveSymbol(ctx context.Context, symbol string) (*domain.Currency, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", apperrors.ErrValidation)
	}
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve symbol %s: %w", symbol, err)
	}
	return currency, nil
}

// ResolveOrCreateSymbol resolves a ticker, creating a new canonical currency
// when none exists. New currencies default to the generic crypto
// classification; a missing crypto type in the taxonomy is a fatal
// configuration error, not a per-record one.
func (s *ResolverService) ResolveOrCreateSymbol(ctx context.Context, symbol, name string) (*domain.Currency, error) {
	currency, err := s.ResolveSymbol(ctx, symbol)
	if err == nil {
		return currency, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	ok, err := s.currencyRepo.CurrencyTypeExists(ctx, domain.CurrencyCrypto)
	if err != nil {
		return nil, fmt.Errorf("failed to check currency taxonomy: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: currency type %q is missing", apperrors.ErrConfiguration, domain.CurrencyCrypto)
	}

	created := domain.Currency{
		CurrencyID: uuid.NewString(),
		Code:       strings.ToUpper(strings.TrimSpace(symbol)),
		Type:       domain.CurrencyCrypto,
		Name:       name,
		CreatedAt:  time.Now(),
	}
	if err := s.currencyRepo.SaveCurrency(ctx, created); err != nil {
		// Lost a race against another creator; the existing row wins.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.ResolveSymbol(ctx, symbol)
		}
		return nil, fmt.Errorf("failed to create currency %s: %w", created.Code, err)
	}
	return &created, nil
}

// ResolveContract resolves a (network, contract address) identity. Addresses
// are normalized to lowercase before comparison.
func (s *ResolverService) ResolveContract(ctx context.Context, network, contractAddress string) (*domain.Currency, error) {
	address := strings.ToLower(strings.TrimSpace(contractAddress))
	if address == "" {
		return nil, fmt.Errorf("%w: empty contract address", apperrors.ErrValidation)
	}
	mapping, err := s.mappingRepo.FindContractMapping(ctx, network, address)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve contract %s on %s: %w", address, network, err)
	}
	return s.currencyByID(ctx, mapping.CurrencyID)
}

// ResolveNative resolves a network's gas token.
func (s *ResolverService) ResolveNative(ctx context.Context, network string) (*domain.Currency, error) {
	mapping, err := s.mappingRepo.FindNativeMapping(ctx, network)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve native token of %s: %w", network, err)
	}
	return s.currencyByID(ctx, mapping.CurrencyID)
}

// RegisterContract records a (network, contract) mapping for a currency,
// used by token discovery. Duplicate registrations are a no-op.
func (s *ResolverService) RegisterContract(ctx context.Context, currencyID, network, contractAddress string, decimals int32) error {
	err := s.mappingRepo.SaveContractMapping(ctx, domain.ContractMapping{
		CurrencyID:      currencyID,
		Network:         network,
		ContractAddress: strings.ToLower(strings.TrimSpace(contractAddress)),
		Decimals:        decimals,
	})
	if err != nil && !errors.Is(err, apperrors.ErrDuplicate) {
		return fmt.Errorf("failed to register contract mapping: %w", err)
	}
	return nil
}

func (s *ResolverService) currencyByID(ctx context.Context, currencyID string) (*domain.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByID(ctx, currencyID)
	if err != nil {
		return nil, fmt.Errorf("mapping references unknown currency %s: %w", currencyID, err)
	}
	return currency, nil
}
