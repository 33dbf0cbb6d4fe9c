package mlforecast

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-quant/vantage/internal/contracts"
)

// Repository persists forecasts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new forecast repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts a forecast. A forecast already recorded for the same
// ticker and anchor date is left untouched.
func (r *Repository) Save(ctx context.Context, f *contracts.Forecast) error {
	query := `
		INSERT INTO forecasts (
			ticker, forecast_date, pred_close_1d, pred_close_5d,
			confidence_1d, confidence_5d, ml_score, last_close,
			trained_rows, holdout_rows, model_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (ticker, forecast_date) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		f.Ticker, f.Date, f.PredClose1D, f.PredClose5D,
		f.Confidence1D, f.Confidence5D, f.MLScore, f.LastClose,
		f.TrainedRows, f.HoldoutRows, f.ModelVersion,
	)
	if err != nil {
		return fmt.Errorf("mlforecast: save %s: %w", f.Ticker, err)
	}
	return nil
}

const forecastColumns = `
	ticker, forecast_date, pred_close_1d, pred_close_5d,
	confidence_1d, confidence_5d, ml_score, last_close,
	trained_rows, holdout_rows, model_version`

const forecastColumnsAliased = `
	f.ticker, f.forecast_date, f.pred_close_1d, f.pred_close_5d,
	f.confidence_1d, f.confidence_5d, f.ml_score, f.last_close,
	f.trained_rows, f.holdout_rows, f.model_version`

func scanForecast(row interface{ Scan(...any) error }) (*contracts.Forecast, error) {
	var f contracts.Forecast
	err := row.Scan(
		&f.Ticker, &f.Date, &f.PredClose1D, &f.PredClose5D,
		&f.Confidence1D, &f.Confidence5D, &f.MLScore, &f.LastClose,
		&f.TrainedRows, &f.HoldoutRows, &f.ModelVersion,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetHistory returns all forecasts for a ticker ascending by date.
func (r *Repository) GetHistory(ctx context.Context, ticker string) ([]*contracts.Forecast, error) {
	query := `SELECT` + forecastColumns + `
		FROM forecasts WHERE ticker = $1 ORDER BY forecast_date ASC`

	rows, err := r.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("mlforecast: get history %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []*contracts.Forecast
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("mlforecast: scan forecast: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetLatestAll returns the single most recent forecast per active
// security.
func (r *Repository) GetLatestAll(ctx context.Context) (map[string]*contracts.Forecast, error) {
	query := `
		SELECT DISTINCT ON (f.ticker)` + forecastColumnsAliased + `
		FROM forecasts f
		JOIN securities s ON s.ticker = f.ticker AND s.active
		ORDER BY f.ticker, f.forecast_date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mlforecast: get latest all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*contracts.Forecast)
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("mlforecast: scan forecast: %w", err)
		}
		out[f.Ticker] = f
	}
	return out, rows.Err()
}

// Count returns the total stored forecast count.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM forecasts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("mlforecast: count: %w", err)
	}
	return count, nil
}
