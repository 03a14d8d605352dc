// Package sheets exports reporting views to a Google Sheets dashboard.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// Config locates the dashboard tab the exporter overwrites. BaseCode and
// SecondaryCode only label the value columns.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	WriteRange      string
	BaseCode        string
	SecondaryCode   string
}

// Exporter writes the latest balances and the net-worth history to one
// spreadsheet tab, replacing the previous export in place.
type Exporter struct {
	cfg          Config
	snapshotRepo portsrepo.SnapshotRepository
}

func NewExporter(cfg Config, snapshotRepo portsrepo.SnapshotRepository) *Exporter {
	return &Exporter{cfg: cfg, snapshotRepo: snapshotRepo}
}

// Export clears the target range and writes headers, current balances, and
// the daily net-worth history. Returns the number of data rows written.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	balances, err := e.snapshotRepo.ListLatestBalances(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load latest balances: %w", err)
	}
	history, err := e.snapshotRepo.ListNetWorthHistory(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to load net worth history: %w", err)
	}

	values := buildRows(balances, history, e.cfg.BaseCode, e.cfg.SecondaryCode, time.Now())

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(e.cfg.CredentialsFile))
	if err != nil {
		return 0, fmt.Errorf("failed to create sheets service: %w", err)
	}

	_, err = service.Spreadsheets.Values.
		Clear(e.cfg.SpreadsheetID, e.cfg.WriteRange, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to clear range %s: %w", e.cfg.WriteRange, err)
	}

	_, err = service.Spreadsheets.Values.
		Update(e.cfg.SpreadsheetID, e.cfg.WriteRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to write range %s: %w", e.cfg.WriteRange, err)
	}

	return len(balances) + len(history), nil
}

func buildRows(balances []domain.LatestBalance, history []domain.NetWorthSummary, baseCode, secondaryCode string, now time.Time) [][]any {
	values := [][]any{
		{"Account", "Currency", "Quantity",
			fmt.Sprintf("Value (%s)", baseCode), fmt.Sprintf("Value (%s)", secondaryCode), "As Of"},
	}
	for _, b := range balances {
		values = append(values, []any{
			b.AccountName,
			b.CurrencyCode,
			b.Quantity.String(),
			formatValue(b.ValueBase),
			formatValue(b.ValueSecondary),
			b.Timestamp.Format("2006-01-02 15:04"),
		})
	}

	values = append(values, []any{},
		[]any{"Date",
			fmt.Sprintf("Assets (%s)", baseCode),
			fmt.Sprintf("Liabilities (%s)", baseCode),
			fmt.Sprintf("Net Worth (%s)", baseCode),
			fmt.Sprintf("Net Worth (%s)", secondaryCode)})
	for _, h := range history {
		values = append(values, []any{
			h.SnapshotDate.Format("2006-01-02"),
			h.AssetsBase.StringFixed(2),
			h.LiabilitiesBase.StringFixed(2),
			h.NetWorthBase.StringFixed(2),
			h.NetWorthSecondary.StringFixed(2),
		})
	}

	values = append(values, []any{},
		[]any{fmt.Sprintf("Exported: %s", now.Format("2006-01-02 15:04:05"))})
	return values
}

func formatValue(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
