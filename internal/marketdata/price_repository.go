package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-quant/vantage/internal/contracts"
)

// PriceRepository is the single store for daily OHLCV bars.
type PriceRepository struct {
	pool *pgxpool.Pool
}

func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

const priceColumns = `ticker, bar_date, open_price, high_price, low_price, close_price, volume`

// GetBars returns a ticker's bars from daysBack calendar days ago to
// now, oldest first.
func (r *PriceRepository) GetBars(ctx context.Context, ticker string, daysBack int) ([]contracts.PriceBar, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM daily_prices
		WHERE ticker = $1 AND bar_date >= $2
		ORDER BY bar_date ASC
	`, priceColumns)

	from := time.Now().UTC().AddDate(0, 0, -daysBack)

	rows, err := r.pool.Query(ctx, query, ticker, from)
	if err != nil {
		return nil, fmt.Errorf("query bars %s: %w", ticker, err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetBarsRange returns bars between two dates inclusive, oldest first.
func (r *PriceRepository) GetBarsRange(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM daily_prices
		WHERE ticker = $1 AND bar_date BETWEEN $2 AND $3
		ORDER BY bar_date ASC
	`, priceColumns)

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("query bars %s: %w", ticker, err)
	}
	defer rows.Close()

	return scanBars(rows)
}

func scanBars(rows pgx.Rows) ([]contracts.PriceBar, error) {
	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// MaxDate returns a ticker's most recent bar date, or the zero time
// when no bars are stored.
func (r *PriceRepository) MaxDate(ctx context.Context, ticker string) (time.Time, error) {
	var maxDate *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(bar_date) FROM daily_prices WHERE ticker = $1`, ticker,
	).Scan(&maxDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("query max bar date %s: %w", ticker, err)
	}
	if maxDate == nil {
		return time.Time{}, nil
	}
	return *maxDate, nil
}

// SaveBars upserts a ticker's bars in one batch. Re-fetched bars
// overwrite stale rows so late vendor corrections land.
func (r *PriceRepository) SaveBars(ctx context.Context, bars []contracts.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO daily_prices (ticker, bar_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, bar_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	for _, b := range bars {
		batch.Queue(query, b.Ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range bars {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch upsert bars: %w", err)
		}
	}
	return nil
}

// Count returns the total stored bar count.
func (r *PriceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_prices`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bars: %w", err)
	}
	return count, nil
}
