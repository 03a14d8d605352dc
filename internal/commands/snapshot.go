package commands

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/keithkandiawan/personal-finance/internal/core/services"
)

type snapshotCmd struct{}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "compute and store today's net-worth summary" }
func (*snapshotCmd) Usage() string {
	return `snapshot

  Aggregates the latest balance per (account, currency) pair into a dated
  net-worth summary: assets minus liabilities, in both valuation
  currencies. Re-running on the same day overwrites that day's row.
`
}

func (*snapshotCmd) SetFlags(*flag.FlagSet) {}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	return a.withLock(ctx, "snapshot", func(ctx context.Context) error {
		networth := services.NewNetWorthService(a.snapshotRepo, a.logger)
		summary, err := networth.Snapshot(ctx, time.Now())
		if err != nil {
			return err
		}
		if summary == nil {
			a.logger.Info("no balances to summarize")
			return nil
		}
		a.logger.Info("net-worth summary stored",
			slog.String("date", summary.SnapshotDate.Format("2006-01-02")),
			slog.String("netWorthBase", summary.NetWorthBase.String()),
			slog.String("netWorthSecondary", summary.NetWorthSecondary.String()),
			slog.Int("balances", summary.NumBalances),
		)
		return nil
	})
}
