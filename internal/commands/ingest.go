package commands

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/keithkandiawan/personal-finance/internal/core/services"
)

type ingestCmd struct {
	sources  string
	database string
}

func (*ingestCmd) Name() string     { return "ingest" }
func (*ingestCmd) Synopsis() string { return "collect balances and write a snapshot" }
func (*ingestCmd) Usage() string {
	return `ingest [-sources all|exchanges|wallets|fiat] [-database <url>]

  Collects balances from the selected sources, values them, and appends a
  snapshot batch. A full run ("all") also writes zero rows for holdings
  that disappeared since the previous snapshot; partial runs never do.
`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sources, "sources", "all", "source families to collect: all, exchanges, wallets or fiat")
	f.StringVar(&c.database, "database", "", "database URL (defaults to the configured one)")
}

func (c *ingestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	selector := services.SourceSelector(c.sources)
	switch selector {
	case services.SelectAll, services.SelectExchanges, services.SelectWallets, services.SelectFiat:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown source selector %q.\n", c.sources)
		return subcommands.ExitUsageError
	}

	a, err := newAppWithDatabase(ctx, c.database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	return a.withLock(ctx, "ingest", func(ctx context.Context) error {
		report, err := a.pipeline().Run(ctx, selector)
		if err != nil {
			return err
		}
		a.logger.Info("ingestion complete",
			slog.String("sources", report.Sources),
			slog.Int("observed", report.Observed),
			slog.Int("inserted", report.Inserted),
			slog.Int("zeroed", report.ZeroSynthesized),
			slog.Int("excluded", report.Excluded()),
			slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
		)
		for name, reason := range report.SourceFailures {
			a.logger.Warn("source contributed nothing",
				slog.String("source", name), slog.String("reason", reason))
		}
		return nil
	})
}
