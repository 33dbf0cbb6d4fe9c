package backtest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-quant/vantage/internal/contracts"
)

// Repository persists backtest results. Rows are append-only; each run
// adds to the history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new backtest repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save appends one result.
func (r *Repository) Save(ctx context.Context, b *contracts.BacktestResult) error {
	query := `
		INSERT INTO backtest_results (
			strategy, ticker, run_date, start_date, end_date,
			initial_value, final_value, total_return, buy_hold_return,
			alpha, sharpe_ratio, max_drawdown, win_rate, trade_count,
			bars_simulated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		b.Strategy, b.Ticker, b.RunDate, b.StartDate, b.EndDate,
		b.InitialValue, b.FinalValue, b.ROI, b.BuyHoldROI,
		b.Alpha, b.SharpeRatio, b.MaxDrawdown, b.WinRate, b.TradeCount,
		b.BarsSimulated,
	)
	if err != nil {
		return fmt.Errorf("backtest: save %s: %w", b.Ticker, err)
	}
	return nil
}

// GetLatestAll returns the most recent result per active security.
func (r *Repository) GetLatestAll(ctx context.Context) (map[string]*contracts.BacktestResult, error) {
	query := `
		SELECT DISTINCT ON (b.ticker)
			b.strategy, b.ticker, b.run_date, b.start_date, b.end_date,
			b.initial_value, b.final_value, b.total_return, b.buy_hold_return,
			b.alpha, b.sharpe_ratio, b.max_drawdown, b.win_rate, b.trade_count,
			b.bars_simulated
		FROM backtest_results b
		JOIN securities s ON s.ticker = b.ticker AND s.active
		ORDER BY b.ticker, b.run_date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("backtest: get latest all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*contracts.BacktestResult)
	for rows.Next() {
		var b contracts.BacktestResult
		if err := rows.Scan(
			&b.Strategy, &b.Ticker, &b.RunDate, &b.StartDate, &b.EndDate,
			&b.InitialValue, &b.FinalValue, &b.ROI, &b.BuyHoldROI,
			&b.Alpha, &b.SharpeRatio, &b.MaxDrawdown, &b.WinRate, &b.TradeCount,
			&b.BarsSimulated,
		); err != nil {
			return nil, fmt.Errorf("backtest: scan result: %w", err)
		}
		out[b.Ticker] = &b
	}
	return out, rows.Err()
}
