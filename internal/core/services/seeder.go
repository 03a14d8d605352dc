package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// SeedData is the reference-data bootstrap document: accounts, currencies,
// the mappings that bind source identities to them, and the networks the
// wallet collector walks.
type SeedData struct {
	Accounts []SeedAccount `mapstructure:"accounts"`

	Currencies []SeedCurrency `mapstructure:"currencies"`

	SymbolMappings []SeedSymbolMapping `mapstructure:"symbolMappings"`

	Networks []SeedNetwork `mapstructure:"networks"`

	ContractMappings []SeedContractMapping `mapstructure:"contractMappings"`

	WalletAddresses []SeedWalletAddress `mapstructure:"walletAddresses"`

	// DeactivateAccounts soft-deletes by name; historical snapshot rows
	// referencing these accounts remain valid.
	DeactivateAccounts []string `mapstructure:"deactivateAccounts"`
}

type SeedAccount struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

type SeedCurrency struct {
	Code   string `mapstructure:"code"`
	Type   string `mapstructure:"type"`
	Name   string `mapstructure:"name"`
	Parent string `mapstructure:"parent"`
}

type SeedSymbolMapping struct {
	Currency   string `mapstructure:"currency"`
	Source     string `mapstructure:"source"`
	Symbol     string `mapstructure:"symbol"`
	IsInverted bool   `mapstructure:"isInverted"`
}

type SeedNetwork struct {
	Code           string `mapstructure:"code"`
	Name           string `mapstructure:"name"`
	ChainID        int64  `mapstructure:"chainId"`
	RPCEndpoint    string `mapstructure:"rpcEndpoint"`
	NativeCurrency string `mapstructure:"nativeCurrency"`
	NativeDecimals int32  `mapstructure:"nativeDecimals"`
}

type SeedContractMapping struct {
	Currency string `mapstructure:"currency"`
	Network  string `mapstructure:"network"`
	Address  string `mapstructure:"address"`
	Decimals int32  `mapstructure:"decimals"`
}

type SeedWalletAddress struct {
	Account string `mapstructure:"account"`
	Network string `mapstructure:"network"`
	Address string `mapstructure:"address"`
}

// SeederService applies a SeedData document. Applying the same document
// twice is a no-op: accounts, networks, mappings and addresses upsert, and
// already-registered currencies are left alone.
type SeederService struct {
	accountRepo  portsrepo.AccountRepository
	currencyRepo portsrepo.CurrencyRepository
	mappingRepo  portsrepo.MappingRepository
	networkRepo  portsrepo.NetworkRepository
	logger       *slog.Logger
}

func NewSeederService(
	accountRepo portsrepo.AccountRepository,
	currencyRepo portsrepo.CurrencyRepository,
	mappingRepo portsrepo.MappingRepository,
	networkRepo portsrepo.NetworkRepository,
	logger *slog.Logger,
) *SeederService {
	return &SeederService{
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
		mappingRepo:  mappingRepo,
		networkRepo:  networkRepo,
		logger:       logger,
	}
}

// Apply loads the document in dependency order: accounts and currencies
// first, then the mappings and networks that reference them by name or code.
// The first failing entry aborts with its position in the document.
func (s *SeederService) Apply(ctx context.Context, seed SeedData) error {
	for _, acc := range seed.Accounts {
		err := s.accountRepo.SaveAccount(ctx, domain.Account{
			AccountID: uuid.NewString(),
			Name:      acc.Name,
			Type:      domain.AccountType(strings.ToUpper(acc.Type)),
			IsActive:  true,
		})
		if err != nil {
			return fmt.Errorf("account %s: %w", acc.Name, err)
		}
	}

	// Currencies insert without parents first, then parent links once every
	// code resolves. A seed document may list a child before its parent.
	for _, cur := range seed.Currencies {
		err := s.currencyRepo.SaveCurrency(ctx, domain.Currency{
			CurrencyID: uuid.NewString(),
			Code:       strings.ToUpper(cur.Code),
			Type:       domain.CurrencyType(cur.Type),
			Name:       cur.Name,
		})
		if errors.Is(err, apperrors.ErrDuplicate) {
			continue
		}
		if err != nil {
			return fmt.Errorf("currency %s: %w", cur.Code, err)
		}
	}
	for _, cur := range seed.Currencies {
		if cur.Parent == "" {
			continue
		}
		child, err := s.currencyRepo.FindCurrencyByCode(ctx, cur.Code)
		if err != nil {
			return fmt.Errorf("currency %s: %w", cur.Code, err)
		}
		parent, err := s.currencyRepo.FindCurrencyByCode(ctx, cur.Parent)
		if err != nil {
			return fmt.Errorf("parent %s of %s: %w", cur.Parent, cur.Code, err)
		}
		if err := s.currencyRepo.SetParentCurrency(ctx, child.CurrencyID, parent.CurrencyID); err != nil {
			return fmt.Errorf("linking %s to %s: %w", cur.Code, cur.Parent, err)
		}
	}

	for _, sm := range seed.SymbolMappings {
		currency, err := s.currencyRepo.FindCurrencyByCode(ctx, sm.Currency)
		if err != nil {
			return fmt.Errorf("symbol mapping %s: %w", sm.Symbol, err)
		}
		err = s.mappingRepo.SaveSymbolMapping(ctx, domain.SymbolMapping{
			CurrencyID: currency.CurrencyID,
			Source:     sm.Source,
			Symbol:     sm.Symbol,
			IsInverted: sm.IsInverted,
		})
		if err != nil {
			return fmt.Errorf("symbol mapping %s: %w", sm.Symbol, err)
		}
	}

	for _, net := range seed.Networks {
		if err := s.applyNetwork(ctx, net); err != nil {
			return err
		}
	}

	for _, cm := range seed.ContractMappings {
		currency, err := s.currencyRepo.FindCurrencyByCode(ctx, cm.Currency)
		if err != nil {
			return fmt.Errorf("contract mapping %s: %w", cm.Address, err)
		}
		err = s.mappingRepo.SaveContractMapping(ctx, domain.ContractMapping{
			CurrencyID:      currency.CurrencyID,
			Network:         cm.Network,
			ContractAddress: cm.Address,
			Decimals:        cm.Decimals,
		})
		if err != nil && !errors.Is(err, apperrors.ErrDuplicate) {
			return fmt.Errorf("contract mapping %s: %w", cm.Address, err)
		}
	}

	for _, wa := range seed.WalletAddresses {
		account, err := s.accountRepo.FindAccountByName(ctx, wa.Account)
		if err != nil {
			return fmt.Errorf("wallet address %s: %w", wa.Address, err)
		}
		err = s.networkRepo.SaveWalletAddress(ctx, domain.WalletAddress{
			AccountID: account.AccountID,
			Network:   wa.Network,
			Address:   wa.Address,
			IsActive:  true,
		})
		if err != nil {
			return fmt.Errorf("wallet address %s: %w", wa.Address, err)
		}
	}

	for _, name := range seed.DeactivateAccounts {
		account, err := s.accountRepo.FindAccountByName(ctx, name)
		if err != nil {
			return fmt.Errorf("deactivating account %s: %w", name, err)
		}
		if err := s.accountRepo.DeactivateAccount(ctx, account.AccountID); err != nil {
			return fmt.Errorf("deactivating account %s: %w", name, err)
		}
		s.logger.Info("account deactivated", slog.String("account", name))
	}
	return nil
}

func (s *SeederService) applyNetwork(ctx context.Context, net SeedNetwork) error {
	nativeID := ""
	if net.NativeCurrency != "" {
		native, err := s.currencyRepo.FindCurrencyByCode(ctx, net.NativeCurrency)
		if err != nil {
			return fmt.Errorf("native currency %s of %s: %w", net.NativeCurrency, net.Code, err)
		}
		nativeID = native.CurrencyID
	}

	err := s.networkRepo.SaveNetwork(ctx, domain.Network{
		Code:             net.Code,
		Name:             net.Name,
		ChainID:          net.ChainID,
		RPCEndpoint:      net.RPCEndpoint,
		NativeCurrencyID: nativeID,
		IsEVM:            true,
		IsActive:         true,
	})
	if err != nil {
		return fmt.Errorf("network %s: %w", net.Code, err)
	}

	if nativeID == "" {
		return nil
	}
	decimals := net.NativeDecimals
	if decimals == 0 {
		decimals = 18
	}
	err = s.mappingRepo.SaveContractMapping(ctx, domain.ContractMapping{
		CurrencyID: nativeID,
		Network:    net.Code,
		Decimals:   decimals,
		IsNative:   true,
	})
	if err != nil && !errors.Is(err, apperrors.ErrDuplicate) {
		return fmt.Errorf("native mapping of %s: %w", net.Code, err)
	}
	return nil
}
