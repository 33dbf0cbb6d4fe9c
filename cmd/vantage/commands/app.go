package commands

import (
	"context"
	"fmt"

	"github.com/vantage-quant/vantage/internal/marketdata"
	"github.com/vantage-quant/vantage/internal/provider"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
	"github.com/vantage-quant/vantage/pkg/config"
	"github.com/vantage-quant/vantage/pkg/database"
	"github.com/vantage-quant/vantage/pkg/httputil"
	"github.com/vantage-quant/vantage/pkg/logger"
)

// app carries the shared wiring every command needs: config, logging,
// the database pool, strategy parameters, and the data repositories.
type app struct {
	cfg          *config.Config
	strategy     *strategyconfig.Config
	strategyHash string
	log          *logger.Logger
	db           *database.DB

	securities *marketdata.SecurityRepository
	prices     *marketdata.PriceRepository
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	path := cfg.Analytics.StrategyFile
	if strategyFile != "" {
		path = strategyFile
	}
	strategy, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy": path,
		"hash":     hash[:12],
	}).Info("Strategy loaded")

	return &app{
		cfg:          cfg,
		strategy:     strategy,
		strategyHash: hash,
		log:          log,
		db:           db,
		securities:   marketdata.NewSecurityRepository(db.Pool),
		prices:       marketdata.NewPriceRepository(db.Pool),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

// newLoader wires the market data loader with the configured source
// fallback order.
func (a *app) newLoader() (*marketdata.Loader, error) {
	client := httputil.NewClient(a.cfg.Provider.RequestTimeout, a.cfg.Provider.RequestsPerSecond, a.log)

	var sources []provider.Source
	for _, name := range a.cfg.Provider.Sources {
		switch name {
		case "stooq":
			sources = append(sources, provider.NewStooq(client, ""))
		case "yahoo":
			sources = append(sources, provider.NewYahoo(client, ""))
		default:
			return nil, fmt.Errorf("unknown price source %q", name)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no price sources configured")
	}

	prices := provider.New(sources, a.log)
	constituents := provider.NewConstituentsScraper(client, a.cfg.Provider.ConstituentsURL)

	return marketdata.NewLoader(
		constituents,
		prices,
		a.securities,
		a.prices,
		a.cfg.Analytics.Workers,
		a.cfg.Analytics.DaysBack,
		a.log,
	), nil
}
