package repositories

import (
	"context"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// NetworkRepository manages chain metadata and wallet addresses.
type NetworkRepository interface {
	SaveNetwork(ctx context.Context, network domain.Network) error

	// ListActiveEVMNetworks retrieves active EVM networks that have an RPC
	// endpoint configured.
	ListActiveEVMNetworks(ctx context.Context) ([]domain.Network, error)

	SaveWalletAddress(ctx context.Context, addr domain.WalletAddress) error

	// ListActiveWalletAddresses retrieves active addresses on active networks.
	ListActiveWalletAddresses(ctx context.Context) ([]domain.WalletAddress, error)
}
