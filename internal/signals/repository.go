package signals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
)

// Repository persists and projects trading signals.
type Repository struct {
	pool          *pgxpool.Pool
	buyThreshold  float64
	sellThreshold float64
}

// NewRepository creates a new signal repository. The projection uses
// the same momentum thresholds the generator derives actions from.
func NewRepository(pool *pgxpool.Pool, cfg *strategyconfig.Config) *Repository {
	return &Repository{
		pool:          pool,
		buyThreshold:  cfg.Momentum.BuyThreshold,
		sellThreshold: cfg.Momentum.SellThreshold,
	}
}

// Save appends a signal. Signals are history, never overwritten.
func (r *Repository) Save(ctx context.Context, s *contracts.TradingSignal) error {
	query := `
		INSERT INTO trading_signals (ticker, signal_date, action, score, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.pool.Exec(ctx, query, s.Ticker, s.Date, string(s.Action), s.Score, s.Confidence)
	if err != nil {
		return fmt.Errorf("signals: save %s: %w", s.Ticker, err)
	}
	return nil
}

// RankedSignal is one row of the top-signals projection.
type RankedSignal struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

// TopSignals is the read-only projection consumed by the API: the
// strongest buys and sells from the most recent snapshot per security.
type TopSignals struct {
	Buys  []RankedSignal `json:"top_buys"`
	Sells []RankedSignal `json:"top_sells"`
}

// latestSnapshots resolves one row per active security: its most
// recent indicator snapshot. Thresholds apply outside, so an old
// qualifying snapshot can never stand in for a newer one that no
// longer qualifies.
const latestSnapshots = `
	SELECT DISTINCT ON (i.ticker) i.ticker, s.name, i.momentum_score
	FROM indicator_snapshots i
	JOIN securities s ON s.ticker = i.ticker AND s.active
	ORDER BY i.ticker, i.snapshot_date DESC`

// GetTop returns the top buy and sell candidates by momentum score.
func (r *Repository) GetTop(ctx context.Context, limit int) (*TopSignals, error) {
	buys, err := r.ranked(ctx, r.buyThreshold, limit, true)
	if err != nil {
		return nil, fmt.Errorf("signals: top buys: %w", err)
	}

	sells, err := r.ranked(ctx, r.sellThreshold, limit, false)
	if err != nil {
		return nil, fmt.Errorf("signals: top sells: %w", err)
	}

	return &TopSignals{Buys: buys, Sells: sells}, nil
}

// ranked filters the latest-per-ticker snapshots by threshold with
// score ordering and limit.
func (r *Repository) ranked(ctx context.Context, threshold float64, limit int, buy bool) ([]RankedSignal, error) {
	cmp, order := ">", "DESC"
	if !buy {
		cmp, order = "<", "ASC"
	}
	query := fmt.Sprintf(`
		SELECT ticker, name, momentum_score FROM (%s) latest
		WHERE momentum_score %s $1
		ORDER BY momentum_score %s
		LIMIT $2
	`, latestSnapshots, cmp, order)

	rows, err := r.pool.Query(ctx, query, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RankedSignal{}
	for rows.Next() {
		var s RankedSignal
		if err := rows.Scan(&s.Ticker, &s.Name, &s.Score); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of stored signals.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trading_signals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("signals: count: %w", err)
	}
	return n, nil
}
