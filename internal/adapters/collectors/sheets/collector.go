// Package sheets reads manually maintained balances from a Google Sheets
// range.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// Config locates the balance range: each row is
// (account name, currency code, amount). Rows may omit the account column,
// in which case DefaultAccount is used.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	ReadRange       string
	DefaultAccount  string
}

// Collector reads the fiat balance sheet. Bank and cash positions have no
// API, so the sheet is the source of record for them.
type Collector struct {
	cfg    Config
	logger *slog.Logger
}

func NewCollector(cfg Config, logger *slog.Logger) *Collector {
	return &Collector{cfg: cfg, logger: logger}
}

func (c *Collector) Name() string            { return "sheets" }
func (c *Collector) Kind() domain.SourceKind { return domain.SourceFiat }

// Collect reads the configured range. Malformed rows are logged and skipped;
// rows naming unknown accounts or currencies pass through as observations and
// surface later in the run report as unmapped.
func (c *Collector) Collect(ctx context.Context) ([]domain.Observation, error) {
	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(c.cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	resp, err := service.Spreadsheets.Values.
		Get(c.cfg.SpreadsheetID, c.cfg.ReadRange).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", c.cfg.ReadRange, err)
	}

	return c.parseRows(resp.Values), nil
}

func (c *Collector) parseRows(rows [][]any) []domain.Observation {
	var observations []domain.Observation
	for i, row := range rows {
		var account, code, amountStr string
		switch {
		case len(row) >= 3:
			account = strings.TrimSpace(fmt.Sprint(row[0]))
			code = strings.TrimSpace(fmt.Sprint(row[1]))
			amountStr = strings.TrimSpace(fmt.Sprint(row[2]))
		case len(row) == 2 && c.cfg.DefaultAccount != "":
			account = c.cfg.DefaultAccount
			code = strings.TrimSpace(fmt.Sprint(row[0]))
			amountStr = strings.TrimSpace(fmt.Sprint(row[1]))
		default:
			c.logger.Warn("skipping short sheet row", slog.Int("row", i+1))
			continue
		}
		if account == "" || code == "" || amountStr == "" {
			continue
		}

		// Sheets often format large amounts with thousands separators.
		amount, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", ""))
		if err != nil {
			c.logger.Warn("skipping sheet row with bad amount",
				slog.Int("row", i+1),
				slog.String("amount", amountStr))
			continue
		}

		observations = append(observations, domain.Observation{
			Kind:        domain.SourceFiat,
			AccountName: account,
			Symbol:      code,
			Quantity:    amount,
		})
	}
	return observations
}
