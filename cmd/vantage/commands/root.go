package commands

import (
	"github.com/spf13/cobra"
)

var strategyFile string

var rootCmd = &cobra.Command{
	Use:   "vantage",
	Short: "S&P 500 analytics pipeline",
	Long: `Vantage ingests S&P 500 daily prices, derives technical signals,
trains per-security price models, backtests the resulting strategy,
and builds a risk-constrained portfolio recommendation.

Examples:
  go run ./cmd/vantage ingest
  go run ./cmd/vantage signals
  go run ./cmd/vantage forecast
  go run ./cmd/vantage backtest
  go run ./cmd/vantage portfolio
  go run ./cmd/vantage api
  go run ./cmd/vantage scheduler`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default from STRATEGY_FILE)")
}
