package domain

import "time"

// CurrencyType is the classification taxonomy for tracked units of value.
// The set is seeded at bootstrap; resolving a raw identity against a missing
// type is a fatal configuration error.
type CurrencyType string

const (
	CurrencyFiat       CurrencyType = "fiat"
	CurrencyCrypto     CurrencyType = "crypto"
	CurrencyStablecoin CurrencyType = "stablecoin"
	CurrencyStock      CurrencyType = "stock"
	CurrencyMetal      CurrencyType = "metal"
)

// Currency is the canonical identity of a tradable/holdable unit of value,
// regardless of how many source-specific symbols map onto it.
//
// ParentCurrencyID links a derivative/wrapped token to the currency whose
// market value it tracks 1:1 (e.g. a liquid-staking receipt token). A parent
// reference equal to the currency's own id is treated as no parent.
type Currency struct {
	CurrencyID       string       `json:"currencyID"` // Primary Key (UUID)
	Code             string       `json:"code"`       // Unique uppercase ticker (e.g. "BTC")
	Type             CurrencyType `json:"type"`
	Name             string       `json:"name"`             // Optional display name
	ParentCurrencyID string       `json:"parentCurrencyID"` // Empty when the currency has its own rate source
	CreatedAt        time.Time    `json:"createdAt"`
}

// HasParent reports whether the currency inherits its rate from another
// currency, guarding against the degenerate self-reference.
func (c Currency) HasParent() bool {
	return c.ParentCurrencyID != "" && c.ParentCurrencyID != c.CurrencyID
}

// SymbolMapping maps a quote-source symbol (e.g. a TradingView
// "VENUE:TICKER") onto a canonical currency. IsInverted marks quotes
// expressed as currency-per-base (e.g. USDIDR) that must be inverted before
// entering the rate table.
type SymbolMapping struct {
	CurrencyID string `json:"currencyID"`
	Source     string `json:"source"`
	Symbol     string `json:"symbol"`
	IsInverted bool   `json:"isInverted"`
}

// ContractMapping maps an on-chain token identity onto a canonical currency.
// Contract addresses are stored lowercase; within one network an address maps
// to at most one currency. IsNative marks the chain's gas token, which has no
// contract address.
type ContractMapping struct {
	CurrencyID      string `json:"currencyID"`
	Network         string `json:"network"`
	ContractAddress string `json:"contractAddress"` // Empty for native tokens
	Decimals        int32  `json:"decimals"`
	IsNative        bool   `json:"isNative"`
}
