package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError reports a single failed constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every hard constraint. A failure aborts startup.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	m := cfg.Momentum
	if m.RSIOversold <= 0 || m.RSIOversold >= m.RSIOverbought {
		return ValidationError{"momentum.rsi_oversold", "must be > 0 and < rsi_overbought"}
	}
	if m.RSIOverbought >= 100 {
		return ValidationError{"momentum.rsi_overbought", "must be < 100"}
	}
	if m.BuyThreshold <= m.SellThreshold {
		return ValidationError{"momentum.buy_threshold", "must be > sell_threshold"}
	}
	if m.MinHistoryBars < 1 {
		return ValidationError{"momentum.min_history_bars", "must be >= 1"}
	}
	if m.SignalConfidence < 0 || m.SignalConfidence > 1 {
		return ValidationError{"momentum.signal_confidence", "must be in [0, 1]"}
	}

	f := cfg.Forecast
	if f.MinTrainingRows < f.MinAlignedRows {
		return ValidationError{"forecast.min_training_rows", "must be >= min_aligned_rows"}
	}
	if f.MinAlignedRows < 1 {
		return ValidationError{"forecast.min_aligned_rows", "must be >= 1"}
	}
	if f.Ridge < 0 {
		return ValidationError{"forecast.ridge", "must be >= 0"}
	}
	if math.Abs(f.ConfidenceWeight+f.ReturnWeight-1.0) > 1e-9 {
		return ValidationError{"forecast.confidence_weight", "confidence_weight + return_weight must equal 1.0"}
	}

	b := cfg.Backtest
	if b.InitialCapital <= 0 {
		return ValidationError{"backtest.initial_capital", "must be > 0"}
	}
	if b.EntryThreshold <= b.ExitThreshold {
		return ValidationError{"backtest.entry_threshold", "must be > exit_threshold"}
	}
	if b.MinBars < 2 {
		return ValidationError{"backtest.min_bars", "must be >= 2"}
	}

	p := cfg.Portfolio
	if p.MLScoreFloor <= 0 || p.MLScoreFloor >= 1 {
		return ValidationError{"portfolio.ml_score_floor", "must be in (0, 1)"}
	}
	if p.MinCandidates < 1 {
		return ValidationError{"portfolio.min_candidates", "must be >= 1"}
	}
	if p.BasketSize < 1 || p.BasketSize > p.ShortlistSize {
		return ValidationError{"portfolio.basket_size", "must be in [1, shortlist_size]"}
	}
	if p.KellyFloor <= 0 || p.KellyFloor >= p.KellyCap {
		return ValidationError{"portfolio.kelly_floor", "must be > 0 and < kelly_cap"}
	}
	if p.KellyCap > 1 {
		return ValidationError{"portfolio.kelly_cap", "must be <= 1"}
	}
	if p.MinEdgeReturn <= 0 {
		return ValidationError{"portfolio.min_edge_return", "must be > 0"}
	}
	if p.SectorCap <= 0 || p.SectorCap > 1 {
		return ValidationError{"portfolio.sector_cap", "must be in (0, 1]"}
	}
	if p.DefaultSectorShare <= 0 || p.DefaultSectorShare > p.SectorCap {
		return ValidationError{"portfolio.default_sector_share", "must be in (0, sector_cap]"}
	}

	return nil
}
