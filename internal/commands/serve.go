package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/keithkandiawan/personal-finance/internal/api"
)

type serveCmd struct {
	port string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the read-only reporting API" }
func (*serveCmd) Usage() string {
	return `serve [-port <port>]

  Serves the read-only HTTP API over the latest balances, the net-worth
  history and the rate table. Shuts down gracefully on interrupt.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "", "listen port (defaults to the configured port)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	port := c.port
	if port == "" {
		port = a.cfg.Port
	}

	router := api.NewRouter(a.snapshotRepo, a.rateRepo, a.logger)
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown failed", slog.String("error", err.Error()))
			return subcommands.ExitFailure
		}
		a.logger.Info("api stopped")
		return subcommands.ExitSuccess
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("api failed", slog.String("error", err.Error()))
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
}
