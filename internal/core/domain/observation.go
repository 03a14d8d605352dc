package domain

import "github.com/shopspring/decimal"

// SourceKind tags which collector family produced an observation.
type SourceKind string

const (
	SourceExchange SourceKind = "exchange"
	SourceWallet   SourceKind = "wallet"
	SourceFiat     SourceKind = "fiat"
)

// Observation is one raw balance reported by a source collector during a
// single ingestion run. It carries exactly one of the identity forms:
//
//   - Symbol: a free-text ticker (exchange and spreadsheet sources),
//     matched case-insensitively against canonical currency codes;
//   - Network+ContractAddress: an on-chain token (wallet sources);
//   - Network with IsNative set: the chain's gas token.
//
// Observations are transient; they exist only within one run and are merged
// by the normalizer, never persisted individually.
type Observation struct {
	Kind        SourceKind
	AccountID   string
	AccountName string

	Symbol          string
	Network         string
	ContractAddress string
	IsNative        bool

	Quantity decimal.Decimal
}

// Identity renders the raw identity for logs and unmapped-record reports.
func (o Observation) Identity() string {
	switch {
	case o.Symbol != "":
		return o.Symbol
	case o.IsNative:
		return o.Network + ":native"
	default:
		return o.Network + ":" + o.ContractAddress
	}
}
