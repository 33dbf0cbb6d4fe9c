package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vantage-quant/vantage/pkg/logger"
)

// StatsReader aggregates row counts across the pipeline tables.
type StatsReader interface {
	CountActiveSecurities(ctx context.Context) (int, error)
	CountBars(ctx context.Context) (int64, error)
	CountForecasts(ctx context.Context) (int64, error)
	CountSignals(ctx context.Context) (int64, error)
	CountSnapshotsForDate(ctx context.Context, date time.Time) (int, error)
}

// Stats is the /api/stats payload.
type Stats struct {
	ActiveSecurities int       `json:"active_securities"`
	PriceBars        int64     `json:"price_bars"`
	Forecasts        int64     `json:"forecasts"`
	TradingSignals   int64     `json:"trading_signals"`
	SnapshotsToday   int       `json:"snapshots_today"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// StatsHandler serves pipeline coverage counts.
type StatsHandler struct {
	store  StatsReader
	logger *logger.Logger
}

func NewStatsHandler(store StatsReader, log *logger.Logger) *StatsHandler {
	return &StatsHandler{store: store, logger: log}
}

// Get returns table counts for operational visibility.
// GET /api/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	stats := Stats{GeneratedAt: now}
	var err error

	if stats.ActiveSecurities, err = h.store.CountActiveSecurities(ctx); err != nil {
		h.logger.WithError(err).Error("Failed to count securities")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	if stats.PriceBars, err = h.store.CountBars(ctx); err != nil {
		h.logger.WithError(err).Error("Failed to count bars")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	if stats.Forecasts, err = h.store.CountForecasts(ctx); err != nil {
		h.logger.WithError(err).Error("Failed to count forecasts")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	if stats.TradingSignals, err = h.store.CountSignals(ctx); err != nil {
		h.logger.WithError(err).Error("Failed to count signals")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	if stats.SnapshotsToday, err = h.store.CountSnapshotsForDate(ctx, now.Truncate(24*time.Hour)); err != nil {
		h.logger.WithError(err).Error("Failed to count snapshots")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
