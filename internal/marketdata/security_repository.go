package marketdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-quant/vantage/internal/contracts"
)

// SecurityRepository is the single store for index membership.
type SecurityRepository struct {
	pool *pgxpool.Pool
}

func NewSecurityRepository(pool *pgxpool.Pool) *SecurityRepository {
	return &SecurityRepository{pool: pool}
}

// GetActive returns current constituents ordered by ticker.
func (r *SecurityRepository) GetActive(ctx context.Context) ([]contracts.Security, error) {
	query := `
		SELECT ticker, name, sector, active, updated_at
		FROM securities
		WHERE active = TRUE
		ORDER BY ticker ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active securities: %w", err)
	}
	defer rows.Close()

	var securities []contracts.Security
	for rows.Next() {
		var s contracts.Security
		if err := rows.Scan(&s.Ticker, &s.Name, &s.Sector, &s.Active, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}
		securities = append(securities, s)
	}
	return securities, rows.Err()
}

// GetByTicker returns one security, nil when absent.
func (r *SecurityRepository) GetByTicker(ctx context.Context, ticker string) (*contracts.Security, error) {
	query := `
		SELECT ticker, name, sector, active, updated_at
		FROM securities
		WHERE ticker = $1
	`

	var s contracts.Security
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&s.Ticker, &s.Name, &s.Sector, &s.Active, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query security %s: %w", ticker, err)
	}
	return &s, nil
}

// Upsert writes one constituent, reactivating delisted rows that
// rejoin the index.
func (r *SecurityRepository) Upsert(ctx context.Context, sec contracts.Security) error {
	query := `
		INSERT INTO securities (ticker, name, sector, active, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			active = EXCLUDED.active,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, sec.Ticker, sec.Name, sec.Sector, sec.Active); err != nil {
		return fmt.Errorf("upsert security %s: %w", sec.Ticker, err)
	}
	return nil
}

// UpsertAll writes the full membership list in one batch.
func (r *SecurityRepository) UpsertAll(ctx context.Context, securities []contracts.Security) error {
	if len(securities) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO securities (ticker, name, sector, active, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			active = EXCLUDED.active,
			updated_at = NOW()
	`

	for _, s := range securities {
		batch.Queue(query, s.Ticker, s.Name, s.Sector, s.Active)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range securities {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch upsert securities: %w", err)
		}
	}
	return nil
}

// DeactivateMissing marks every ticker not in the given set as
// inactive and returns the number of rows changed. Historical prices
// and analytics for delisted tickers are kept.
func (r *SecurityRepository) DeactivateMissing(ctx context.Context, tickers []string) (int64, error) {
	query := `
		UPDATE securities
		SET active = FALSE, updated_at = NOW()
		WHERE active = TRUE AND NOT (ticker = ANY($1))
	`

	tag, err := r.pool.Exec(ctx, query, tickers)
	if err != nil {
		return 0, fmt.Errorf("deactivate missing securities: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountActive returns the current constituent count.
func (r *SecurityRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM securities WHERE active = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active securities: %w", err)
	}
	return count, nil
}
