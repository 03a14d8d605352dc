package evm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// Collector reads native and ERC-20 balances for every active wallet on
// every active EVM network. It emits raw chain identities (network +
// contract, or network + native flag); the normalizer resolves them onto
// canonical currencies.
type Collector struct {
	networkRepo portsrepo.NetworkRepository
	mappingRepo portsrepo.MappingRepository
	logger      *slog.Logger
}

func NewCollector(networkRepo portsrepo.NetworkRepository, mappingRepo portsrepo.MappingRepository, logger *slog.Logger) *Collector {
	return &Collector{
		networkRepo: networkRepo,
		mappingRepo: mappingRepo,
		logger:      logger,
	}
}

func (c *Collector) Name() string            { return "evm" }
func (c *Collector) Kind() domain.SourceKind { return domain.SourceWallet }

// Collect walks every (network, wallet) pair. A network that cannot be
// dialed drops only its own observations; the remaining networks still
// report. Zero balances are skipped.
func (c *Collector) Collect(ctx context.Context) ([]domain.Observation, error) {
	networks, err := c.networkRepo.ListActiveEVMNetworks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	wallets, err := c.networkRepo.ListActiveWalletAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet addresses: %w", err)
	}

	var observations []domain.Observation
	for _, network := range networks {
		walletsOnNetwork := make([]domain.WalletAddress, 0, len(wallets))
		for _, w := range wallets {
			if w.Network == network.Code {
				walletsOnNetwork = append(walletsOnNetwork, w)
			}
		}
		if len(walletsOnNetwork) == 0 {
			continue
		}

		collected, err := c.collectNetwork(ctx, network, walletsOnNetwork)
		if err != nil {
			c.logger.Error("network unreachable this run",
				slog.String("network", network.Code),
				slog.String("error", err.Error()))
			continue
		}
		observations = append(observations, collected...)
	}
	return observations, nil
}

func (c *Collector) collectNetwork(ctx context.Context, network domain.Network, wallets []domain.WalletAddress) ([]domain.Observation, error) {
	client, err := Dial(ctx, network)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	mappings, err := c.mappingRepo.ListContractMappings(ctx, network.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to list contract mappings for %s: %w", network.Code, err)
	}
	nativeDecimals := int32(18)
	if native, err := c.mappingRepo.FindNativeMapping(ctx, network.Code); err == nil {
		nativeDecimals = native.Decimals
	}

	var observations []domain.Observation
	for _, wallet := range wallets {
		raw, err := client.NativeBalance(ctx, wallet.Address)
		if err != nil {
			c.logger.Error("native balance read failed",
				slog.String("network", network.Code),
				slog.String("address", wallet.Address),
				slog.String("error", err.Error()))
		} else if raw.Sign() > 0 {
			observations = append(observations, domain.Observation{
				Kind:      domain.SourceWallet,
				AccountID: wallet.AccountID,
				Network:   network.Code,
				IsNative:  true,
				Quantity:  decimal.NewFromBigInt(raw, -nativeDecimals),
			})
		}

		for _, mapping := range mappings {
			if mapping.IsNative || mapping.ContractAddress == "" {
				continue
			}
			raw, err := client.ERC20Balance(ctx, mapping.ContractAddress, wallet.Address)
			if err != nil {
				c.logger.Warn("token balance read failed",
					slog.String("network", network.Code),
					slog.String("contract", mapping.ContractAddress),
					slog.String("error", err.Error()))
				continue
			}
			if raw.Sign() == 0 {
				continue
			}
			observations = append(observations, domain.Observation{
				Kind:            domain.SourceWallet,
				AccountID:       wallet.AccountID,
				Network:         network.Code,
				ContractAddress: mapping.ContractAddress,
				Quantity:        decimal.NewFromBigInt(raw, -mapping.Decimals),
			})
		}
	}
	return observations, nil
}

// Scanner provides token discovery over the same RPC connections.
type Scanner struct {
	networkRepo portsrepo.NetworkRepository
}

func NewScanner(networkRepo portsrepo.NetworkRepository) *Scanner {
	return &Scanner{networkRepo: networkRepo}
}

// ScanTokens lists contract addresses that transferred tokens to the wallet
// within the scan window.
func (s *Scanner) ScanTokens(ctx context.Context, network, walletAddress string) ([]string, error) {
	client, err := s.dial(ctx, network)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.ScanTransfers(ctx, walletAddress)
}

// TokenMetadata reads ERC-20 metadata for one contract.
func (s *Scanner) TokenMetadata(ctx context.Context, network, contractAddress string) (*domain.TokenMetadata, error) {
	client, err := s.dial(ctx, network)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.Metadata(ctx, contractAddress)
}

func (s *Scanner) dial(ctx context.Context, network string) (*Client, error) {
	networks, err := s.networkRepo.ListActiveEVMNetworks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	for _, n := range networks {
		if n.Code == network {
			return Dial(ctx, n)
		}
	}
	return nil, fmt.Errorf("network %s is not configured", network)
}
