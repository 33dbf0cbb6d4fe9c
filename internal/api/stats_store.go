package api

import (
	"context"
	"time"

	"github.com/vantage-quant/vantage/internal/indicator"
	"github.com/vantage-quant/vantage/internal/marketdata"
	"github.com/vantage-quant/vantage/internal/mlforecast"
	"github.com/vantage-quant/vantage/internal/signals"
)

// StatsStore adapts the per-package repositories to the stats handler.
type StatsStore struct {
	securities *marketdata.SecurityRepository
	prices     *marketdata.PriceRepository
	forecasts  *mlforecast.Repository
	signals    *signals.Repository
	snapshots  *indicator.Repository
}

func NewStatsStore(
	securities *marketdata.SecurityRepository,
	prices *marketdata.PriceRepository,
	forecasts *mlforecast.Repository,
	sigs *signals.Repository,
	snapshots *indicator.Repository,
) *StatsStore {
	return &StatsStore{
		securities: securities,
		prices:     prices,
		forecasts:  forecasts,
		signals:    sigs,
		snapshots:  snapshots,
	}
}

func (s *StatsStore) CountActiveSecurities(ctx context.Context) (int, error) {
	return s.securities.CountActive(ctx)
}

func (s *StatsStore) CountBars(ctx context.Context) (int64, error) {
	return s.prices.Count(ctx)
}

func (s *StatsStore) CountForecasts(ctx context.Context) (int64, error) {
	return s.forecasts.Count(ctx)
}

func (s *StatsStore) CountSignals(ctx context.Context) (int64, error) {
	return s.signals.Count(ctx)
}

func (s *StatsStore) CountSnapshotsForDate(ctx context.Context, date time.Time) (int, error) {
	return s.snapshots.CountForDate(ctx, date)
}
