package indicator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-quant/vantage/internal/contracts"
)

// Repository persists indicator snapshots.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new indicator repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts a snapshot. A snapshot already recorded for the same
// ticker and date is left untouched: computed history is immutable.
func (r *Repository) Save(ctx context.Context, s *contracts.IndicatorSnapshot) error {
	query := `
		INSERT INTO indicator_snapshots (
			ticker, snapshot_date, rsi_14, macd, macd_signal,
			sma_20, sma_50, bollinger_upper, bollinger_lower,
			volatility, close_price, momentum_score,
			buy_signal, sell_signal, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (ticker, snapshot_date) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		s.Ticker, s.Date, s.RSI14, s.MACD, s.MACDSignal,
		s.SMA20, s.SMA50, s.BollingerUp, s.BollingerDown,
		s.Volatility, s.Close, s.MomentumScore,
		s.BuySignal, s.SellSignal,
	)
	if err != nil {
		return fmt.Errorf("indicator: save %s: %w", s.Ticker, err)
	}
	return nil
}

// GetLatest returns the most recent snapshot for a ticker, or nil when
// none exists.
func (r *Repository) GetLatest(ctx context.Context, ticker string) (*contracts.IndicatorSnapshot, error) {
	query := `
		SELECT ticker, snapshot_date, rsi_14, macd, macd_signal,
			sma_20, sma_50, bollinger_upper, bollinger_lower,
			volatility, close_price, momentum_score, buy_signal, sell_signal
		FROM indicator_snapshots
		WHERE ticker = $1
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var s contracts.IndicatorSnapshot
	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&s.Ticker, &s.Date, &s.RSI14, &s.MACD, &s.MACDSignal,
		&s.SMA20, &s.SMA50, &s.BollingerUp, &s.BollingerDown,
		&s.Volatility, &s.Close, &s.MomentumScore, &s.BuySignal, &s.SellSignal,
	)
	if err != nil {
		return nil, fmt.Errorf("indicator: get latest %s: %w", ticker, err)
	}
	return &s, nil
}

// GetLatestAll returns the most recent snapshot per active security.
func (r *Repository) GetLatestAll(ctx context.Context) (map[string]*contracts.IndicatorSnapshot, error) {
	query := `
		SELECT DISTINCT ON (i.ticker)
			i.ticker, i.snapshot_date, i.rsi_14, i.macd, i.macd_signal,
			i.sma_20, i.sma_50, i.bollinger_upper, i.bollinger_lower,
			i.volatility, i.close_price, i.momentum_score, i.buy_signal, i.sell_signal
		FROM indicator_snapshots i
		JOIN securities s ON s.ticker = i.ticker AND s.active
		ORDER BY i.ticker, i.snapshot_date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("indicator: get latest all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*contracts.IndicatorSnapshot)
	for rows.Next() {
		var s contracts.IndicatorSnapshot
		if err := rows.Scan(
			&s.Ticker, &s.Date, &s.RSI14, &s.MACD, &s.MACDSignal,
			&s.SMA20, &s.SMA50, &s.BollingerUp, &s.BollingerDown,
			&s.Volatility, &s.Close, &s.MomentumScore, &s.BuySignal, &s.SellSignal,
		); err != nil {
			return nil, fmt.Errorf("indicator: scan snapshot: %w", err)
		}
		out[s.Ticker] = &s
	}
	return out, rows.Err()
}

// CountForDate returns how many snapshots exist for a trading date.
func (r *Repository) CountForDate(ctx context.Context, date time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM indicator_snapshots WHERE snapshot_date = $1`, date,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("indicator: count for date: %w", err)
	}
	return n, nil
}
