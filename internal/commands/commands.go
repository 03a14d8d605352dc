// Package commands wires the CLI subcommands over the core services.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	"github.com/jackc/pgx/v5/pgxpool"

	evmcollector "github.com/keithkandiawan/personal-finance/internal/adapters/collectors/evm"
	"github.com/keithkandiawan/personal-finance/internal/adapters/collectors/exchange"
	sheetscollector "github.com/keithkandiawan/personal-finance/internal/adapters/collectors/sheets"
	"github.com/keithkandiawan/personal-finance/internal/adapters/database/pgsql"
	exportsheets "github.com/keithkandiawan/personal-finance/internal/adapters/export/sheets"
	"github.com/keithkandiawan/personal-finance/internal/adapters/quotes/tradingview"
	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
	portssvc "github.com/keithkandiawan/personal-finance/internal/core/ports/services"
	"github.com/keithkandiawan/personal-finance/internal/core/services"
	"github.com/keithkandiawan/personal-finance/pkg/config"
	"github.com/keithkandiawan/personal-finance/pkg/database"
	"github.com/keithkandiawan/personal-finance/pkg/runlock"
)

// Exit codes beyond the subcommands defaults: a held run lock is "busy, try
// later", not a failure, and an interrupt propagates the conventional code.
const (
	exitLockHeld    subcommands.ExitStatus = 2
	exitInterrupted subcommands.ExitStatus = 130
)

// Commands lists every registered subcommand.
var Commands = []subcommands.Command{
	&migrateCmd{},
	&seedCmd{},
	&ingestCmd{},
	&ratesCmd{},
	&snapshotCmd{},
	&discoverCmd{},
	&exportCmd{},
	&serveCmd{},
}

// app holds everything a command needs: configuration, the database pool,
// and the repositories over it.
type app struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	logger *slog.Logger

	accountRepo  portsrepo.AccountRepository
	currencyRepo portsrepo.CurrencyRepository
	mappingRepo  portsrepo.MappingRepository
	networkRepo  portsrepo.NetworkRepository
	rateRepo     portsrepo.RateRepository
	snapshotRepo portsrepo.SnapshotRepository
}

func newApp(ctx context.Context) (*app, error) {
	return newAppWithDatabase(ctx, "")
}

// newAppWithDatabase lets a command point one run at a different database
// than the configured one. An empty URL means the configured default.
func newAppWithDatabase(ctx context.Context, databaseURL string) (*app, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:          cfg,
		pool:         pool,
		logger:       logger,
		accountRepo:  pgsql.NewPgxAccountRepository(pool),
		currencyRepo: pgsql.NewPgxCurrencyRepository(pool),
		mappingRepo:  pgsql.NewPgxMappingRepository(pool),
		networkRepo:  pgsql.NewPgxNetworkRepository(pool),
		rateRepo:     pgsql.NewPgxRateRepository(pool),
		snapshotRepo: pgsql.NewPgxSnapshotRepository(pool),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

func (a *app) resolver() *services.ResolverService {
	return services.NewResolverService(a.currencyRepo, a.mappingRepo)
}

func (a *app) pipeline() *services.PipelineService {
	resolver := a.resolver()
	normalizer := services.NewNormalizerService(resolver, a.accountRepo)
	valuer := services.NewValuerService(a.rateRepo, a.currencyRepo, a.accountRepo, a.cfg.SecondaryCurrency)
	reconciler := services.NewReconcilerService(a.snapshotRepo, a.logger)
	writer := services.NewSnapshotWriterService(a.snapshotRepo)
	return services.NewPipelineService(a.collectors(), normalizer, valuer, reconciler, writer, a.logger)
}

func (a *app) collectors() []portssvc.SourceCollector {
	return []portssvc.SourceCollector{
		exchange.NewCollector(exchange.Config{
			BaseURL:     a.cfg.ExchangeBaseURL,
			APIKey:      a.cfg.ExchangeAPIKey,
			APISecret:   a.cfg.ExchangeAPISecret,
			AccountName: a.cfg.ExchangeAccount,
		}, a.logger),
		evmcollector.NewCollector(a.networkRepo, a.mappingRepo, a.logger),
		sheetscollector.NewCollector(sheetscollector.Config{
			CredentialsFile: a.cfg.SheetsCredentialsFile,
			SpreadsheetID:   a.cfg.SheetsSpreadsheetID,
			ReadRange:       a.cfg.SheetsBalanceRange,
			DefaultAccount:  a.cfg.SheetsAccount,
		}, a.logger),
	}
}

func (a *app) rateRefresh() *services.RateRefreshService {
	propagator := services.NewRatePropagatorService(a.currencyRepo, a.rateRepo, a.logger)
	quotes := tradingview.NewClient(a.cfg.QuoteBaseURL)
	return services.NewRateRefreshService(a.mappingRepo, a.rateRepo, quotes, propagator, a.cfg.RateSource, a.logger)
}

func (a *app) discovery() *services.DiscoveryService {
	scanner := evmcollector.NewScanner(a.networkRepo)
	return services.NewDiscoveryService(a.networkRepo, a.mappingRepo, a.resolver(), scanner, scanner, a.logger)
}

func (a *app) exporter() *exportsheets.Exporter {
	return exportsheets.NewExporter(exportsheets.Config{
		CredentialsFile: a.cfg.SheetsCredentialsFile,
		SpreadsheetID:   a.cfg.SheetsSpreadsheetID,
		WriteRange:      a.cfg.SheetsExportRange,
		BaseCode:        a.cfg.BaseCurrency,
		SecondaryCode:   a.cfg.SecondaryCurrency,
	}, a.snapshotRepo)
}

// withLock runs fn under the named run lock, mapping contention and
// interruption onto their exit codes.
func (a *app) withLock(ctx context.Context, name string, fn func(context.Context) error) subcommands.ExitStatus {
	lock, err := runlock.Acquire(a.cfg.LockDir, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrLockHeld) {
			a.logger.Warn("another run is in progress, exiting", slog.String("lock", name))
			return exitLockHeld
		}
		a.logger.Error("failed to acquire run lock", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Error("failed to release run lock", slog.String("error", err.Error()))
		}
	}()

	if err := fn(ctx); err != nil {
		if ctx.Err() != nil {
			a.logger.Warn("interrupted")
			return exitInterrupted
		}
		a.logger.Error("run failed", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
