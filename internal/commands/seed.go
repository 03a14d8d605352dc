package commands

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	"github.com/spf13/viper"

	"github.com/keithkandiawan/personal-finance/internal/core/services"
)

type seedCmd struct {
	file string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load reference data from a seed file" }
func (*seedCmd) Usage() string {
	return `seed -file <seed.yaml>

  Loads accounts, currencies, symbol mappings, networks, contract mappings
  and wallet addresses from a YAML or JSON seed file. Safe to re-run:
  existing entries are updated or left alone, never duplicated.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "path to the seed file (required)")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required.")
		return subcommands.ExitUsageError
	}

	v := viper.New()
	v.SetConfigFile(c.file)
	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading seed file: %v\n", err)
		return subcommands.ExitFailure
	}
	var seed services.SeedData
	if err := v.Unmarshal(&seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing seed file: %v\n", err)
		return subcommands.ExitFailure
	}

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	return a.withLock(ctx, "seed", func(ctx context.Context) error {
		seeder := services.NewSeederService(a.accountRepo, a.currencyRepo, a.mappingRepo, a.networkRepo, a.logger)
		if err := seeder.Apply(ctx, seed); err != nil {
			return err
		}
		a.logger.Info("seed complete",
			slog.Int("accounts", len(seed.Accounts)),
			slog.Int("currencies", len(seed.Currencies)),
			slog.Int("networks", len(seed.Networks)),
		)
		return nil
	})
}
