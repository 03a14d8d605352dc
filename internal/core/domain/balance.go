package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is one normalized `(account, canonical currency)` quantity within a
// run. The normalizer guarantees uniqueness of the pair; duplicate
// observations are summed into it.
type Balance struct {
	AccountID  string
	CurrencyID string
	Quantity   decimal.Decimal
}

// ValuedBalance is a Balance with its point-in-time valuation attached.
// ValueBase/ValueSecondary are nil when no rate was available; such records
// stay visible in the run report but are excluded from the snapshot.
type ValuedBalance struct {
	Balance
	ValueBase      *decimal.Decimal
	ValueSecondary *decimal.Decimal
}

// Valuable reports whether the balance carries a base valuation and may be
// committed to the snapshot.
func (v ValuedBalance) Valuable() bool {
	return v.ValueBase != nil
}

// SnapshotRow is one persisted balance row. Rows are append-only: every run
// inserts new rows under its own timestamp and never updates prior ones. The
// row with the maximum timestamp per (account, currency) is that holding's
// current balance.
type SnapshotRow struct {
	Timestamp      time.Time
	AccountID      string
	CurrencyID     string
	Quantity       decimal.Decimal
	ValueBase      *decimal.Decimal
	ValueSecondary *decimal.Decimal
}

// Holding identifies one (account, currency) pair, the reconciliation key.
type Holding struct {
	AccountID  string
	CurrencyID string
}

// LatestBalance is the most recent snapshot row per (account, currency),
// joined with display data for reporting and the daily summary.
type LatestBalance struct {
	SnapshotRow
	AccountName  string
	AccountType  AccountType
	CurrencyCode string
}
