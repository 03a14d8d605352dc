package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

func TestBuildRows(t *testing.T) {
	base := decimal.NewFromInt(65000)
	secondary := decimal.NewFromInt(1_027_000_000)
	balances := []domain.LatestBalance{
		{
			SnapshotRow: domain.SnapshotRow{
				Timestamp:      time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
				Quantity:       decimal.NewFromInt(1),
				ValueBase:      &base,
				ValueSecondary: &secondary,
			},
			AccountName:  "Binance",
			CurrencyCode: "BTC",
		},
		{
			SnapshotRow: domain.SnapshotRow{Quantity: decimal.NewFromInt(500)},
			AccountName:  "Kraken",
			CurrencyCode: "DOGE",
		},
	}
	history := []domain.NetWorthSummary{
		{
			SnapshotDate:      time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			AssetsBase:        decimal.NewFromInt(68200),
			LiabilitiesBase:   decimal.NewFromInt(1200),
			NetWorthBase:      decimal.NewFromInt(67000),
			NetWorthSecondary: decimal.NewFromInt(1_058_600_000),
		},
	}

	rows := buildRows(balances, history, "USD", "IDR", time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))

	// header + 2 balances + spacer + history header + 1 summary + spacer + stamp
	require.Len(t, rows, 8)
	assert.Equal(t, []any{"Binance", "BTC", "1", "65000.00", "1027000000.00", "2026-08-31 08:00"}, rows[1])
	assert.Equal(t, "", rows[2][3], "missing valuation renders blank, not zero")
	assert.Equal(t, []any{"2026-08-31", "68200.00", "1200.00", "67000.00", "1058600000.00"}, rows[5])
	assert.Equal(t, []any{"Exported: 2026-08-31 09:00:00"}, rows[7])
}
