package commands

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"
)

type exportCmd struct{}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write current balances and history to the spreadsheet" }
func (*exportCmd) Usage() string {
	return `export

  Clears the configured spreadsheet range and rewrites it with the latest
  balance per holding and the net-worth history.
`
}

func (*exportCmd) SetFlags(*flag.FlagSet) {}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	return a.withLock(ctx, "export", func(ctx context.Context) error {
		rows, err := a.exporter().Export(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("spreadsheet export complete", slog.Int("rows", rows))
		return nil
	})
}
