// Package services defines the collaborator interfaces consumed by the core
// pipeline: source collectors, the price quote client, and the token
// metadata client. Implementations live under internal/adapters.
package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// SourceCollector produces raw balance observations for one source (an
// exchange account, the wallet set, the fiat spreadsheet). A collector error
// empties that source's contribution for the run; the pipeline continues with
// the remaining collectors and surfaces the failure in the run report.
type SourceCollector interface {
	// Name identifies the collector in logs and the run report.
	Name() string

	// Kind tags the source family the collector belongs to.
	Kind() domain.SourceKind

	// Collect fetches the current raw balances. Order is irrelevant and
	// duplicates are allowed; the normalizer sums them.
	Collect(ctx context.Context) ([]domain.Observation, error)
}

// QuoteClient fetches the current price for a quote-source symbol, expressed
// in base units (USD). Returns apperrors.ErrNotFound when the source has no
// quote for the symbol.
type QuoteClient interface {
	FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// TokenMetadataClient reads ERC-20 metadata for token auto-discovery.
// Returns apperrors.ErrNotFound when the contract does not answer the
// metadata calls.
type TokenMetadataClient interface {
	TokenMetadata(ctx context.Context, network, contractAddress string) (*domain.TokenMetadata, error)
}

// TokenScanner lists ERC-20 contract addresses a wallet has interacted with
// on one network, the discovery candidates.
type TokenScanner interface {
	ScanTokens(ctx context.Context, network, walletAddress string) ([]string, error)
}
