package sheets

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

func TestParseRows(t *testing.T) {
	c := NewCollector(Config{}, slog.Default())

	rows := [][]any{
		{"BCA", "IDR", "150,000,000"},
		{"Cash", "USD", "1200.50"},
		{"", "", ""},
		{"BCA", "IDR"},                 // short row
		{"Jenius", "IDR", "not money"}, // bad amount
	}

	observations := c.parseRows(rows)
	require.Len(t, observations, 2)

	assert.Equal(t, "BCA", observations[0].AccountName)
	assert.Equal(t, "IDR", observations[0].Symbol)
	assert.True(t, observations[0].Quantity.Equal(decimal.NewFromInt(150_000_000)))
	assert.Equal(t, domain.SourceFiat, observations[0].Kind)

	assert.Equal(t, "Cash", observations[1].AccountName)
	assert.True(t, observations[1].Quantity.Equal(decimal.RequireFromString("1200.50")))
}

func TestParseRowsDefaultAccount(t *testing.T) {
	c := NewCollector(Config{DefaultAccount: "Household"}, slog.Default())

	observations := c.parseRows([][]any{
		{"IDR", "2,500,000"},
		{"BCA", "IDR", "100"},
	})
	require.Len(t, observations, 2)
	assert.Equal(t, "Household", observations[0].AccountName)
	assert.True(t, observations[0].Quantity.Equal(decimal.NewFromInt(2_500_000)))
	assert.Equal(t, "BCA", observations[1].AccountName, "explicit account wins over the default")
}

func TestParseRowsTrimsWhitespace(t *testing.T) {
	c := NewCollector(Config{}, slog.Default())

	observations := c.parseRows([][]any{{" BCA ", " IDR ", " 100 "}})
	require.Len(t, observations, 1)
	assert.Equal(t, "BCA", observations[0].AccountName)
	assert.Equal(t, "IDR", observations[0].Symbol)
}
