package commands

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/subcommands"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/keithkandiawan/personal-finance/migrations"
	"github.com/keithkandiawan/personal-finance/pkg/config"
)

type migrateCmd struct {
	down bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply database schema migrations" }
func (*migrateCmd) Usage() string {
	return `migrate [-down]

  Applies all pending schema migrations to the configured database.
  With -down, rolls back one migration instead.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.down, "down", false, "roll back one migration")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinging database: %v\n", err)
		return subcommands.ExitFailure
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading embedded migrations: %v\n", err)
		return subcommands.ExitFailure
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating migration driver: %v\n", err)
		return subcommands.ExitFailure
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating migrator: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
		return subcommands.ExitFailure
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("Database schema is up to date.")
	} else {
		fmt.Println("Migrations applied.")
	}
	return subcommands.ExitSuccess
}
