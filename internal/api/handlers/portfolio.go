package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/pkg/logger"
	"github.com/vantage-quant/vantage/pkg/redis"
)

const (
	portfolioCacheKey = "portfolio:latest"
	portfolioCacheTTL = 10 * time.Minute
)

// RecommendationReader serves stored portfolio recommendations.
type RecommendationReader interface {
	GetLatest(ctx context.Context) (*contracts.PortfolioRecommendation, error)
}

// PortfolioHandler serves portfolio endpoints.
type PortfolioHandler struct {
	store  RecommendationReader
	cache  *redis.Client
	logger *logger.Logger
}

func NewPortfolioHandler(store RecommendationReader, cache *redis.Client, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{store: store, cache: cache, logger: log}
}

// GetLatest returns the most recent recommendation.
// GET /api/portfolio/latest
func (h *PortfolioHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache.Enabled() {
		var cached contracts.PortfolioRecommendation
		if err := h.cache.GetJSON(ctx, portfolioCacheKey, &cached); err == nil {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	rec, err := h.store.GetLatest(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest recommendation")
		respondError(w, http.StatusInternalServerError, "failed to load recommendation")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "no recommendation available")
		return
	}

	if h.cache.Enabled() {
		if err := h.cache.SetJSON(ctx, portfolioCacheKey, rec, portfolioCacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache recommendation")
		}
	}

	respondJSON(w, http.StatusOK, rec)
}
