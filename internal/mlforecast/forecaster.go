package mlforecast

import (
	"fmt"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/numeric"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
	"github.com/vantage-quant/vantage/pkg/logger"
)

const (
	horizonShort = 1
	horizonLong  = 5
)

// Forecaster trains per-security return models and produces forecasts.
// Model state lives only for the duration of one Forecast call.
type Forecaster struct {
	cfg *strategyconfig.Config
	log *logger.Logger
}

// NewForecaster creates a forecaster with the given strategy config.
func NewForecaster(cfg *strategyconfig.Config, log *logger.Logger) *Forecaster {
	return &Forecaster{cfg: cfg, log: log}
}

// Forecast trains one model per horizon on the security's own history
// and predicts the next 1-day and 5-day closes. Bars must be sorted
// ascending by date. The anchor date of the forecast is the last bar.
func (f *Forecaster) Forecast(ticker string, bars []contracts.PriceBar) (*contracts.Forecast, error) {
	fc := f.cfg.Forecast
	if len(bars) < fc.MinTrainingRows {
		return nil, fmt.Errorf("mlforecast: %s has %d bars, need %d: %w",
			ticker, len(bars), fc.MinTrainingRows, contracts.ErrInsufficientHistory)
	}

	features := buildFeatures(bars)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	// Targets are future closes, so the last horizonLong rows have no
	// complete label and are excluded from training.
	aligned := len(bars) - horizonLong
	if aligned < fc.MinAlignedRows {
		return nil, fmt.Errorf("mlforecast: %s has %d aligned rows, need %d: %w",
			ticker, aligned, fc.MinAlignedRows, contracts.ErrInsufficientHistory)
	}

	X := features[:aligned]
	yShort := make([]float64, aligned)
	yLong := make([]float64, aligned)
	for i := 0; i < aligned; i++ {
		yShort[i] = closes[i+horizonShort]
		yLong[i] = closes[i+horizonLong]
	}

	modelShort, err := fitModel(X, yShort, fc.Ridge)
	if err != nil {
		return nil, fmt.Errorf("mlforecast: %s fit 1d: %w", ticker, err)
	}
	modelLong, err := fitModel(X, yLong, fc.Ridge)
	if err != nil {
		return nil, fmt.Errorf("mlforecast: %s fit 5d: %w", ticker, err)
	}

	last := bars[len(bars)-1]
	lastRow := features[len(features)-1]
	pred1 := modelShort.predict(lastRow)
	pred5 := modelLong.predict(lastRow)

	conf1 := f.directionalConfidence(modelShort, X, yShort, closes)
	conf5 := f.directionalConfidence(modelLong, X, yLong, closes)

	ret1 := 0.0
	if last.Close != 0 {
		ret1 = pred1/last.Close - 1
	}
	mlScore := fc.ConfidenceWeight*conf1 +
		fc.ReturnWeight*numeric.Clamp(fc.ReturnScale*ret1, 0, 1)

	return &contracts.Forecast{
		Ticker:       ticker,
		Date:         last.Date,
		PredClose1D:  pred1,
		PredClose5D:  pred5,
		Confidence1D: conf1,
		Confidence5D: conf5,
		MLScore:      numeric.Clamp(mlScore, 0, 1),
		LastClose:    last.Close,
		TrainedRows:  aligned,
		HoldoutRows:  f.holdoutSize(aligned),
		ModelVersion: fc.ModelVersion,
	}, nil
}

// directionalConfidence measures how often the model predicted the
// right direction of movement on the most recent training rows,
// relative to each row's own close. Too few rows fall back to a neutral
// 0.5.
func (f *Forecaster) directionalConfidence(m *model, X [][]float64, y, closes []float64) float64 {
	n := len(X)
	size := f.holdoutSize(n)
	if size == 0 {
		return 0.5
	}

	correct := 0
	for i := n - size; i < n; i++ {
		pred := m.predict(X[i])
		if sign(pred-closes[i]) == sign(y[i]-closes[i]) {
			correct++
		}
	}
	return float64(correct) / float64(size)
}

func (f *Forecaster) holdoutSize(n int) int {
	if n <= f.cfg.Forecast.MaxHoldoutRows {
		return 0
	}
	size := n / 4
	if size > f.cfg.Forecast.MaxHoldoutRows {
		size = f.cfg.Forecast.MaxHoldoutRows
	}
	return size
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
