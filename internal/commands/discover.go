package commands

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"
)

type discoverCmd struct{}

func (*discoverCmd) Name() string     { return "discover" }
func (*discoverCmd) Synopsis() string { return "scan wallets for tokens not yet mapped" }
func (*discoverCmd) Usage() string {
	return `discover

  Scans recent transfer logs of every active wallet address for ERC-20
  contracts that have no mapping yet, reads their on-chain metadata, and
  registers them as new currencies with contract mappings.
`
}

func (*discoverCmd) SetFlags(*flag.FlagSet) {}

func (c *discoverCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	return a.withLock(ctx, "discover", func(ctx context.Context) error {
		registered, err := a.discovery().Discover(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("token discovery complete", slog.Int("registered", registered))
		return nil
	})
}
