package repositories

import (
	"context"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// MappingRepository manages source identity mappings: quote-source symbols
// and on-chain contract addresses resolving onto canonical currencies.
type MappingRepository interface {
	// ListSymbolMappings retrieves the symbol mappings for one quote source,
	// excluding currencies that inherit their rate from a parent.
	ListSymbolMappings(ctx context.Context, source string) ([]domain.SymbolMapping, error)

	// SaveSymbolMapping upserts a (source, symbol) mapping.
	SaveSymbolMapping(ctx context.Context, m domain.SymbolMapping) error

	// FindContractMapping retrieves the mapping for a (network, contract
	// address) pair. The address is compared lowercased.
	FindContractMapping(ctx context.Context, network, contractAddress string) (*domain.ContractMapping, error)

	// FindNativeMapping retrieves the mapping for a network's gas token.
	FindNativeMapping(ctx context.Context, network string) (*domain.ContractMapping, error)

	// SaveContractMapping inserts a contract mapping. Returns
	// apperrors.ErrDuplicate when the (network, address) pair is taken.
	SaveContractMapping(ctx context.Context, m domain.ContractMapping) error

	// ListContractMappings retrieves active non-native mappings per network.
	ListContractMappings(ctx context.Context, network string) ([]domain.ContractMapping, error)
}
