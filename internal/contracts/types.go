package contracts

import "time"

// Security is one tradable instrument in the tracked universe.
type Security struct {
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PriceBar is one day of OHLCV history for a security.
type PriceBar struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// IndicatorSnapshot holds the technical indicator values computed for a
// security as of a trading date. Indicators whose lookback window is not
// yet covered by the available history are nil and are excluded from
// momentum scoring.
type IndicatorSnapshot struct {
	Ticker        string    `json:"ticker"`
	Date          time.Time `json:"date"`
	RSI14         *float64  `json:"rsi_14"`
	MACD          *float64  `json:"macd"`
	MACDSignal    *float64  `json:"macd_signal"`
	SMA20         *float64  `json:"sma_20"`
	SMA50         *float64  `json:"sma_50"`
	BollingerUp   *float64  `json:"bollinger_upper"`
	BollingerDown *float64  `json:"bollinger_lower"`
	Volatility    *float64  `json:"volatility"`
	Close         float64   `json:"close"`
	MomentumScore float64   `json:"momentum_score"`
	BuySignal     bool      `json:"buy_signal"`
	SellSignal    bool      `json:"sell_signal"`
}

// Forecast is the model output for one security: predicted closes per
// horizon plus the directional confidence measured on held-out rows.
// The anchor Date is the last price bar the model saw.
type Forecast struct {
	Ticker       string    `json:"ticker"`
	Date         time.Time `json:"date"`
	PredClose1D  float64   `json:"pred_close_1d"`
	PredClose5D  float64   `json:"pred_close_5d"`
	Confidence1D float64   `json:"confidence_1d"`
	Confidence5D float64   `json:"confidence_5d"`
	MLScore      float64   `json:"ml_score"`
	LastClose    float64   `json:"last_close"`
	TrainedRows  int       `json:"trained_rows"`
	HoldoutRows  int       `json:"holdout_rows"`
	ModelVersion string    `json:"model_version"`
}

// SignalAction is the trading action derived from the combined score.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// TradingSignal is an actionable recommendation for one security,
// derived from its momentum score. Append-only.
type TradingSignal struct {
	Ticker     string       `json:"ticker"`
	Date       time.Time    `json:"date"`
	Action     SignalAction `json:"action"`
	Score      float64      `json:"score"`
	Confidence float64      `json:"confidence"`
}

// BacktestResult summarizes a historical replay of the signal strategy
// for one security. Rows are append-only; past runs are never
// overwritten.
type BacktestResult struct {
	Strategy      string    `json:"strategy"`
	Ticker        string    `json:"ticker"`
	RunDate       time.Time `json:"run_date"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	InitialValue  float64   `json:"initial_value"`
	FinalValue    float64   `json:"final_value"`
	ROI           float64   `json:"roi"`
	BuyHoldROI    float64   `json:"buy_hold_roi"`
	Alpha         float64   `json:"alpha"`
	SharpeRatio   float64   `json:"sharpe_ratio"`
	MaxDrawdown   float64   `json:"max_drawdown"`
	WinRate       float64   `json:"win_rate"`
	TradeCount    int       `json:"trade_count"`
	BarsSimulated int       `json:"bars_simulated"`
}

// Position is one allocation inside a portfolio recommendation.
type Position struct {
	Ticker        string  `json:"ticker"`
	Sector        string  `json:"sector"`
	Weight        float64 `json:"weight"`
	KellyFraction float64 `json:"kelly_fraction"`
	CombinedScore float64 `json:"combined_score"`
	MLScore       float64 `json:"ml_score"`
	Confidence    float64 `json:"confidence"`
	BacktestROI   float64 `json:"backtest_roi"`
}

// PortfolioRecommendation is the final output of the pipeline: a
// weighted basket constructed from the best-forecast securities.
type PortfolioRecommendation struct {
	ID             int64      `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	Positions      []Position `json:"positions"`
	ExpectedSharpe float64    `json:"expected_sharpe"`
	AvgKelly       float64    `json:"avg_kelly"`
	CandidateSize  int        `json:"candidate_size"`
	StrategyHash   string     `json:"strategy_hash"`
}
