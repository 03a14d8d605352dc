package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetWorthSummary is one calendar day's aggregate. It is upserted on the
// unique date key, so re-running the snapshot on the same day replaces the
// row instead of duplicating it.
type NetWorthSummary struct {
	SnapshotDate         time.Time       `json:"snapshotDate"` // Date only, local midnight
	AssetsBase           decimal.Decimal `json:"assetsBase"`
	AssetsSecondary      decimal.Decimal `json:"assetsSecondary"`
	LiabilitiesBase      decimal.Decimal `json:"liabilitiesBase"`
	LiabilitiesSecondary decimal.Decimal `json:"liabilitiesSecondary"`
	NetWorthBase         decimal.Decimal `json:"netWorthBase"`
	NetWorthSecondary    decimal.Decimal `json:"netWorthSecondary"`
	NumBalances          int             `json:"numBalances"`
}
