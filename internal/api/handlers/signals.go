package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vantage-quant/vantage/internal/signals"
	"github.com/vantage-quant/vantage/pkg/logger"
	"github.com/vantage-quant/vantage/pkg/redis"
)

const (
	defaultSignalLimit = 10
	maxSignalLimit     = 100
	signalCacheTTL     = 5 * time.Minute
)

// SignalReader serves ranked signal queries.
type SignalReader interface {
	GetTop(ctx context.Context, limit int) (*signals.TopSignals, error)
}

// SignalHandler serves trading signal endpoints.
type SignalHandler struct {
	store  SignalReader
	cache  *redis.Client
	logger *logger.Logger
}

func NewSignalHandler(store SignalReader, cache *redis.Client, log *logger.Logger) *SignalHandler {
	return &SignalHandler{store: store, cache: cache, logger: log}
}

// GetTop returns the strongest buy and sell signals.
// GET /api/signals/top?limit=10
func (h *SignalHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultSignalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxSignalLimit {
			n = maxSignalLimit
		}
		limit = n
	}

	cacheKey := fmt.Sprintf("signals:top:%d", limit)
	if h.cache.Enabled() {
		var cached signals.TopSignals
		if err := h.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	top, err := h.store.GetTop(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load top signals")
		respondError(w, http.StatusInternalServerError, "failed to load signals")
		return
	}

	if h.cache.Enabled() {
		if err := h.cache.SetJSON(ctx, cacheKey, top, signalCacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache top signals")
		}
	}

	respondJSON(w, http.StatusOK, top)
}
