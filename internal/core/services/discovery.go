package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
	portssvc "github.com/keithkandiawan/personal-finance/internal/core/ports/services"
)

// DiscoveryService scans configured wallets for ERC-20 tokens and registers
// previously unseen ones: a canonical currency is created on first sight and
// the (network, contract) mapping recorded, so the next ingestion run can
// resolve the token's balance.
type DiscoveryService struct {
	networkRepo portsrepo.NetworkRepository
	mappingRepo portsrepo.MappingRepository
	resolver    *ResolverService
	scanner     portssvc.TokenScanner
	metadata    portssvc.TokenMetadataClient
	logger      *slog.Logger
}

func NewDiscoveryService(
	networkRepo portsrepo.NetworkRepository,
	mappingRepo portsrepo.MappingRepository,
	resolver *ResolverService,
	scanner portssvc.TokenScanner,
	metadata portssvc.TokenMetadataClient,
	logger *slog.Logger,
) *DiscoveryService {
	return &DiscoveryService{
		networkRepo: networkRepo,
		mappingRepo: mappingRepo,
		resolver:    resolver,
		scanner:     scanner,
		metadata:    metadata,
		logger:      logger,
	}
}

// Discover walks every active wallet on every active EVM network. Only
// tokens the wallets actually hold or held are considered. Returns the
// number of newly registered contract mappings. Configuration errors abort;
// per-token failures are logged and skipped.
func (s *DiscoveryService) Discover(ctx context.Context) (int, error) {
	networks, err := s.networkRepo.ListActiveEVMNetworks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list networks: %w", err)
	}
	if len(networks) == 0 {
		return 0, fmt.Errorf("%w: no active EVM networks configured", apperrors.ErrConfiguration)
	}

	wallets, err := s.networkRepo.ListActiveWalletAddresses(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list wallet addresses: %w", err)
	}

	registered := 0
	for _, network := range networks {
		known, err := s.knownContracts(ctx, network.Code)
		if err != nil {
			return registered, err
		}

		for _, wallet := range wallets {
			if wallet.Network != network.Code {
				continue
			}
			candidates, err := s.scanner.ScanTokens(ctx, network.Code, wallet.Address)
			if err != nil {
				s.logger.Error("token scan failed",
					slog.String("network", network.Code),
					slog.String("address", wallet.Address),
					slog.String("error", err.Error()))
				continue
			}

			for _, contract := range candidates {
				contract = strings.ToLower(contract)
				if _, seen := known[contract]; seen {
					continue
				}
				known[contract] = struct{}{}

				if err := s.registerToken(ctx, network.Code, contract); err != nil {
					if errors.Is(err, apperrors.ErrConfiguration) {
						return registered, err
					}
					s.logger.Warn("skipping token",
						slog.String("network", network.Code),
						slog.String("contract", contract),
						slog.String("error", err.Error()))
					continue
				}
				registered++
			}
		}
	}
	return registered, nil
}

func (s *DiscoveryService) knownContracts(ctx context.Context, network string) (map[string]struct{}, error) {
	mappings, err := s.mappingRepo.ListContractMappings(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("failed to list contract mappings for %s: %w", network, err)
	}
	known := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		known[m.ContractAddress] = struct{}{}
	}
	return known, nil
}

func (s *DiscoveryService) registerToken(ctx context.Context, network, contract string) error {
	meta, err := s.metadata.TokenMetadata(ctx, network, contract)
	if err != nil {
		return fmt.Errorf("metadata unavailable: %w", err)
	}

	currency, err := s.resolver.ResolveOrCreateSymbol(ctx, meta.Symbol, meta.Name)
	if err != nil {
		return err
	}
	if err := s.resolver.RegisterContract(ctx, currency.CurrencyID, network, contract, meta.Decimals); err != nil {
		return err
	}

	s.logger.Info("registered token",
		slog.String("network", network),
		slog.String("symbol", currency.Code),
		slog.String("contract", contract))
	return nil
}
