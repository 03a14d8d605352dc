package commands

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type ratesCmd struct{}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "refresh the rate table from the quote source" }
func (*ratesCmd) Usage() string {
	return `rates

  Fetches a fresh quote for every symbol-mapped currency, applies quote
  inversion where configured, and propagates parent rates onto derivative
  currencies. Stale entries are reported but never block the refresh.
`
}

func (*ratesCmd) SetFlags(*flag.FlagSet) {}

func (c *ratesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	return a.withLock(ctx, "rates", func(ctx context.Context) error {
		result, err := a.rateRefresh().Refresh(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("rate refresh complete",
			slog.Int("fetched", result.Fetched),
			slog.Int("propagated", result.Propagated),
			slog.Int("failed", len(result.Failed)),
		)
		if len(result.Failed) > 0 {
			a.logger.Warn("some currencies could not be updated",
				slog.String("codes", strings.Join(result.Failed, ",")))
		}
		for _, stale := range result.Stale {
			a.logger.Warn("rate is stale",
				slog.String("currency", stale.CurrencyCode),
				slog.Duration("age", stale.Age))
		}
		return nil
	})
}
