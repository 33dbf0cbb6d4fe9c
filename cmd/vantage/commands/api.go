package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantage-quant/vantage/internal/api"
	"github.com/vantage-quant/vantage/internal/api/handlers"
	"github.com/vantage-quant/vantage/internal/indicator"
	"github.com/vantage-quant/vantage/internal/mlforecast"
	"github.com/vantage-quant/vantage/internal/portfolio"
	"github.com/vantage-quant/vantage/internal/signals"
	"github.com/vantage-quant/vantage/pkg/redis"
)

var apiPort string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the read-only HTTP API",
	Long: `Starts the HTTP server exposing analytics projections.

Endpoints:
  GET /health
  GET /api/signals/top?limit=10
  GET /api/portfolio/latest
  GET /api/stats`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (default from PORT)")
}

func runAPI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	cache := redis.New(ctx, a.cfg, a.log)
	defer cache.Close()

	signalRepo := signals.NewRepository(a.db.Pool, a.strategy)
	snapshotRepo := indicator.NewRepository(a.db.Pool)
	recRepo := portfolio.NewRepository(a.db.Pool)
	stats := api.NewStatsStore(a.securities, a.prices, mlforecast.NewRepository(a.db.Pool), signalRepo, snapshotRepo)

	router := api.NewRouter(
		handlers.NewSignalHandler(signalRepo, cache, a.log),
		handlers.NewPortfolioHandler(recRepo, cache, a.log),
		handlers.NewStatsHandler(stats, a.log),
		a.db,
		a.log,
	)
	server := api.NewServer(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
