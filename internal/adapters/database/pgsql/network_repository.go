package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

type PgxNetworkRepository struct {
	pool *pgxpool.Pool
}

// NewPgxNetworkRepository creates a new repository for chain metadata and
// wallet addresses.
func NewPgxNetworkRepository(pool *pgxpool.Pool) portsrepo.NetworkRepository {
	return &PgxNetworkRepository{pool: pool}
}

// SaveNetwork upserts a network by its code.
func (r *PgxNetworkRepository) SaveNetwork(ctx context.Context, network domain.Network) error {
	query := `
		INSERT INTO networks (code, name, chain_id, rpc_endpoint, native_currency_id, is_evm, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			chain_id = EXCLUDED.chain_id,
			rpc_endpoint = EXCLUDED.rpc_endpoint,
			native_currency_id = EXCLUDED.native_currency_id,
			is_evm = EXCLUDED.is_evm,
			is_active = EXCLUDED.is_active;
	`
	_, err := r.pool.Exec(ctx, query,
		network.Code,
		network.Name,
		network.ChainID,
		network.RPCEndpoint,
		network.NativeCurrencyID,
		network.IsEVM,
		network.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to save network %s: %w", network.Code, err)
	}
	return nil
}

// ListActiveEVMNetworks retrieves active EVM networks with an RPC endpoint.
func (r *PgxNetworkRepository) ListActiveEVMNetworks(ctx context.Context) ([]domain.Network, error) {
	query := `
		SELECT code, name, chain_id, rpc_endpoint, native_currency_id, is_evm, is_active
		FROM networks
		WHERE is_active AND is_evm AND rpc_endpoint <> ''
		ORDER BY code;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query networks: %w", err)
	}
	defer rows.Close()

	networks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Network, error) {
		var n domain.Network
		err := row.Scan(&n.Code, &n.Name, &n.ChainID, &n.RPCEndpoint, &n.NativeCurrencyID, &n.IsEVM, &n.IsActive)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect network rows: %w", err)
	}
	return networks, nil
}

// SaveWalletAddress upserts an address binding by (network, address).
func (r *PgxNetworkRepository) SaveWalletAddress(ctx context.Context, addr domain.WalletAddress) error {
	query := `
		INSERT INTO wallet_addresses (account_id, network, address, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (network, address) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			is_active = EXCLUDED.is_active;
	`
	_, err := r.pool.Exec(ctx, query,
		addr.AccountID,
		addr.Network,
		strings.ToLower(addr.Address),
		addr.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to save wallet address %s on %s: %w", addr.Address, addr.Network, err)
	}
	return nil
}

// ListActiveWalletAddresses retrieves active addresses on active networks.
func (r *PgxNetworkRepository) ListActiveWalletAddresses(ctx context.Context) ([]domain.WalletAddress, error) {
	query := `
		SELECT wa.account_id, wa.network, wa.address, wa.is_active
		FROM wallet_addresses wa
		JOIN networks n ON n.code = wa.network
		WHERE wa.is_active AND n.is_active
		ORDER BY wa.network, wa.address;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet addresses: %w", err)
	}
	defer rows.Close()

	addrs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.WalletAddress, error) {
		var a domain.WalletAddress
		err := row.Scan(&a.AccountID, &a.Network, &a.Address, &a.IsActive)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect wallet address rows: %w", err)
	}
	return addrs, nil
}
