package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

type PgxMappingRepository struct {
	pool *pgxpool.Pool
}

// NewPgxMappingRepository creates a new repository for symbol and contract
// mappings.
func NewPgxMappingRepository(pool *pgxpool.Pool) portsrepo.MappingRepository {
	return &PgxMappingRepository{pool: pool}
}

// ListSymbolMappings retrieves the symbol mappings for one quote source.
// Currencies that inherit their rate from a parent are excluded; the
// propagator prices them instead of the quote fetcher.
func (r *PgxMappingRepository) ListSymbolMappings(ctx context.Context, source string) ([]domain.SymbolMapping, error) {
	query := `
		SELECT sm.currency_id, sm.source, sm.symbol, sm.is_inverted
		FROM symbol_mappings sm
		JOIN currencies c ON c.currency_id = sm.currency_id
		WHERE sm.source = $1
		  AND (c.parent_currency_id IS NULL OR c.parent_currency_id = c.currency_id)
		ORDER BY sm.symbol;
	`
	rows, err := r.pool.Query(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol mappings for %s: %w", source, err)
	}
	defer rows.Close()

	mappings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SymbolMapping, error) {
		var m domain.SymbolMapping
		err := row.Scan(&m.CurrencyID, &m.Source, &m.Symbol, &m.IsInverted)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect symbol mapping rows: %w", err)
	}
	return mappings, nil
}

// SaveSymbolMapping upserts a (source, symbol) mapping.
func (r *PgxMappingRepository) SaveSymbolMapping(ctx context.Context, m domain.SymbolMapping) error {
	query := `
		INSERT INTO symbol_mappings (currency_id, source, symbol, is_inverted)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source, symbol) DO UPDATE SET
			currency_id = EXCLUDED.currency_id,
			is_inverted = EXCLUDED.is_inverted;
	`
	_, err := r.pool.Exec(ctx, query, m.CurrencyID, m.Source, m.Symbol, m.IsInverted)
	if err != nil {
		return fmt.Errorf("failed to save symbol mapping %s/%s: %w", m.Source, m.Symbol, err)
	}
	return nil
}

// FindContractMapping retrieves the mapping for a (network, contract address)
// pair. Addresses are stored and compared lowercased.
func (r *PgxMappingRepository) FindContractMapping(ctx context.Context, network, contractAddress string) (*domain.ContractMapping, error) {
	query := `
		SELECT currency_id, network, contract_address, decimals, is_native
		FROM contract_mappings
		WHERE network = $1 AND contract_address = $2;
	`
	m, err := r.scanContractMapping(r.pool.QueryRow(ctx, query, network, strings.ToLower(contractAddress)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find contract mapping %s:%s: %w", network, contractAddress, err)
	}
	return m, nil
}

// FindNativeMapping retrieves the mapping for a network's gas token.
func (r *PgxMappingRepository) FindNativeMapping(ctx context.Context, network string) (*domain.ContractMapping, error) {
	query := `
		SELECT currency_id, network, contract_address, decimals, is_native
		FROM contract_mappings
		WHERE network = $1 AND is_native;
	`
	m, err := r.scanContractMapping(r.pool.QueryRow(ctx, query, network))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find native mapping for %s: %w", network, err)
	}
	return m, nil
}

// SaveContractMapping inserts a contract mapping. A taken (network, address)
// pair maps to apperrors.ErrDuplicate; discovery treats that as already done.
func (r *PgxMappingRepository) SaveContractMapping(ctx context.Context, m domain.ContractMapping) error {
	query := `
		INSERT INTO contract_mappings (currency_id, network, contract_address, decimals, is_native)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.pool.Exec(ctx, query,
		m.CurrencyID,
		m.Network,
		strings.ToLower(m.ContractAddress),
		m.Decimals,
		m.IsNative,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: contract %s on %s already mapped", apperrors.ErrDuplicate, m.ContractAddress, m.Network)
		}
		return fmt.Errorf("failed to save contract mapping %s:%s: %w", m.Network, m.ContractAddress, err)
	}
	return nil
}

// ListContractMappings retrieves non-native mappings for one network.
func (r *PgxMappingRepository) ListContractMappings(ctx context.Context, network string) ([]domain.ContractMapping, error) {
	query := `
		SELECT currency_id, network, contract_address, decimals, is_native
		FROM contract_mappings
		WHERE network = $1 AND NOT is_native
		ORDER BY contract_address;
	`
	rows, err := r.pool.Query(ctx, query, network)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract mappings for %s: %w", network, err)
	}
	defer rows.Close()

	mappings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ContractMapping, error) {
		m, err := r.scanContractMapping(row)
		if err != nil {
			return domain.ContractMapping{}, err
		}
		return *m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect contract mapping rows: %w", err)
	}
	return mappings, nil
}

func (r *PgxMappingRepository) scanContractMapping(row pgx.Row) (*domain.ContractMapping, error) {
	var m domain.ContractMapping
	err := row.Scan(&m.CurrencyID, &m.Network, &m.ContractAddress, &m.Decimals, &m.IsNative)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
