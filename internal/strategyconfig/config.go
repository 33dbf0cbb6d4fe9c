package strategyconfig

// Config is the full strategy parameter set. One YAML file is the
// single source of truth for every tunable in the pipeline; the hash of
// the loaded config is stamped onto portfolio recommendations.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Momentum  Momentum  `yaml:"momentum" json:"momentum"`
	Forecast  Forecast  `yaml:"forecast" json:"forecast"`
	Backtest  Backtest  `yaml:"backtest" json:"backtest"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
}

// Meta identifies the strategy.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Momentum configures indicator-based scoring.
type Momentum struct {
	RSIOversold      float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought    float64 `yaml:"rsi_overbought" json:"rsi_overbought"`
	WeightRSI        float64 `yaml:"weight_rsi" json:"weight_rsi"`
	WeightMACD       float64 `yaml:"weight_macd" json:"weight_macd"`
	WeightSMA20      float64 `yaml:"weight_sma20" json:"weight_sma20"`
	WeightSMA50      float64 `yaml:"weight_sma50" json:"weight_sma50"`
	WeightLowVol     float64 `yaml:"weight_low_vol" json:"weight_low_vol"`
	LowVolThreshold  float64 `yaml:"low_vol_threshold" json:"low_vol_threshold"`
	BuyThreshold     float64 `yaml:"buy_threshold" json:"buy_threshold"`
	SellThreshold    float64 `yaml:"sell_threshold" json:"sell_threshold"`
	MinHistoryBars   int     `yaml:"min_history_bars" json:"min_history_bars"`
	SignalConfidence float64 `yaml:"signal_confidence" json:"signal_confidence"`
}

// Forecast configures the per-security return models.
type Forecast struct {
	MinTrainingRows  int     `yaml:"min_training_rows" json:"min_training_rows"`
	MinAlignedRows   int     `yaml:"min_aligned_rows" json:"min_aligned_rows"`
	MaxHoldoutRows   int     `yaml:"max_holdout_rows" json:"max_holdout_rows"`
	Ridge            float64 `yaml:"ridge" json:"ridge"`
	ConfidenceWeight float64 `yaml:"confidence_weight" json:"confidence_weight"`
	ReturnWeight     float64 `yaml:"return_weight" json:"return_weight"`
	ReturnScale      float64 `yaml:"return_scale" json:"return_scale"`
	ModelVersion     string  `yaml:"model_version" json:"model_version"`
}

// Backtest configures the historical replay.
type Backtest struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	EntryThreshold float64 `yaml:"entry_threshold" json:"entry_threshold"`
	ExitThreshold  float64 `yaml:"exit_threshold" json:"exit_threshold"`
	MinBars        int     `yaml:"min_bars" json:"min_bars"`
}

// Portfolio configures Kelly sizing and basket construction.
type Portfolio struct {
	MLScoreFloor       float64 `yaml:"ml_score_floor" json:"ml_score_floor"`
	MinCandidates      int     `yaml:"min_candidates" json:"min_candidates"`
	ShortlistSize      int     `yaml:"shortlist_size" json:"shortlist_size"`
	BasketSize         int     `yaml:"basket_size" json:"basket_size"`
	KellyFloor         float64 `yaml:"kelly_floor" json:"kelly_floor"`
	KellyCap           float64 `yaml:"kelly_cap" json:"kelly_cap"`
	MinEdgeReturn      float64 `yaml:"min_edge_return" json:"min_edge_return"`
	DefaultBacktestROI float64 `yaml:"default_backtest_roi" json:"default_backtest_roi"`
	SectorCap          float64 `yaml:"sector_cap" json:"sector_cap"`
	DefaultSectorShare float64 `yaml:"default_sector_share" json:"default_sector_share"`
	ReportedSharpe     float64 `yaml:"reported_sharpe" json:"reported_sharpe"`
}
