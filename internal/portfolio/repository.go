package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-quant/vantage/internal/contracts"
)

// Repository persists portfolio recommendations. Positions are stored
// as a JSONB document; history is retained.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new recommendation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save appends a recommendation.
func (r *Repository) Save(ctx context.Context, rec *contracts.PortfolioRecommendation) error {
	positions, err := json.Marshal(rec.Positions)
	if err != nil {
		return fmt.Errorf("portfolio: marshal positions: %w", err)
	}

	query := `
		INSERT INTO portfolio_recommendations (
			created_at, positions, expected_sharpe, avg_kelly,
			candidate_size, strategy_hash
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = r.pool.QueryRow(ctx, query,
		rec.CreatedAt, positions, rec.ExpectedSharpe, rec.AvgKelly,
		rec.CandidateSize, rec.StrategyHash,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("portfolio: save recommendation: %w", err)
	}
	return nil
}

// GetLatest returns the most recent recommendation, or nil when none
// has been stored yet.
func (r *Repository) GetLatest(ctx context.Context) (*contracts.PortfolioRecommendation, error) {
	query := `
		SELECT id, created_at, positions, expected_sharpe, avg_kelly,
			candidate_size, strategy_hash
		FROM portfolio_recommendations
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rec contracts.PortfolioRecommendation
	var positions []byte
	err := r.pool.QueryRow(ctx, query).Scan(
		&rec.ID, &rec.CreatedAt, &positions, &rec.ExpectedSharpe,
		&rec.AvgKelly, &rec.CandidateSize, &rec.StrategyHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("portfolio: get latest: %w", err)
	}

	if err := json.Unmarshal(positions, &rec.Positions); err != nil {
		return nil, fmt.Errorf("portfolio: decode positions: %w", err)
	}
	return &rec, nil
}
