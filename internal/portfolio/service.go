package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
	"github.com/vantage-quant/vantage/pkg/logger"
)

// SecurityStore lists the active universe.
type SecurityStore interface {
	GetActive(ctx context.Context) ([]contracts.Security, error)
}

// ForecastStore reads the latest forecast per security.
type ForecastStore interface {
	GetLatestAll(ctx context.Context) (map[string]*contracts.Forecast, error)
}

// BacktestStore reads the latest backtest result per security.
type BacktestStore interface {
	GetLatestAll(ctx context.Context) (map[string]*contracts.BacktestResult, error)
}

// RecommendationStore persists recommendations.
type RecommendationStore interface {
	Save(ctx context.Context, rec *contracts.PortfolioRecommendation) error
}

// Service loads the optimizer's inputs, runs it, and persists the
// outcome. It runs strictly after the forecast batch for the day has
// completed.
type Service struct {
	optimizer       *Optimizer
	securities      SecurityStore
	forecasts       ForecastStore
	backtests       BacktestStore
	recommendations RecommendationStore
	strategyHash    string
	log             *logger.Logger
}

// NewService wires the portfolio service. strategyHash identifies the
// strategy config the recommendation was produced under.
func NewService(
	cfg *strategyconfig.Config,
	securities SecurityStore,
	forecasts ForecastStore,
	backtests BacktestStore,
	recommendations RecommendationStore,
	strategyHash string,
	log *logger.Logger,
) *Service {
	return &Service{
		optimizer:       NewOptimizer(cfg, log),
		securities:      securities,
		forecasts:       forecasts,
		backtests:       backtests,
		recommendations: recommendations,
		strategyHash:    strategyHash,
		log:             log,
	}
}

// Run produces and stores a recommendation. A nil recommendation with a
// nil error means too few candidates qualified; callers report it as a
// normal outcome.
func (s *Service) Run(ctx context.Context) (*contracts.PortfolioRecommendation, error) {
	securities, err := s.securities.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio: list securities: %w", err)
	}
	secIndex := make(map[string]contracts.Security, len(securities))
	for _, sec := range securities {
		secIndex[sec.Ticker] = sec
	}

	forecasts, err := s.forecasts.GetLatestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio: load forecasts: %w", err)
	}
	backtests, err := s.backtests.GetLatestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio: load backtests: %w", err)
	}

	rec, err := s.optimizer.Optimize(secIndex, forecasts, backtests)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientSignals) {
			s.log.WithError(err).Warn("no portfolio recommendation produced")
			return nil, nil
		}
		return nil, err
	}
	rec.StrategyHash = s.strategyHash

	if err := s.recommendations.Save(ctx, rec); err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"positions":  len(rec.Positions),
		"avg_kelly":  fmt.Sprintf("%.3f", rec.AvgKelly),
		"candidates": rec.CandidateSize,
	}).Info("portfolio recommendation stored")

	return rec, nil
}
