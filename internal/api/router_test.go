package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-quant/vantage/internal/api/handlers"
	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/signals"
	"github.com/vantage-quant/vantage/pkg/config"
	"github.com/vantage-quant/vantage/pkg/logger"
	"github.com/vantage-quant/vantage/pkg/redis"
)

type fakeSignalReader struct {
	top       *signals.TopSignals
	err       error
	lastLimit int
}

func (f *fakeSignalReader) GetTop(ctx context.Context, limit int) (*signals.TopSignals, error) {
	f.lastLimit = limit
	return f.top, f.err
}

type fakeRecommendationReader struct {
	rec *contracts.PortfolioRecommendation
	err error
}

func (f *fakeRecommendationReader) GetLatest(ctx context.Context) (*contracts.PortfolioRecommendation, error) {
	return f.rec, f.err
}

type fakeStatsReader struct{}

func (f *fakeStatsReader) CountActiveSecurities(ctx context.Context) (int, error) { return 503, nil }
func (f *fakeStatsReader) CountBars(ctx context.Context) (int64, error)           { return 180000, nil }
func (f *fakeStatsReader) CountForecasts(ctx context.Context) (int64, error)      { return 4100, nil }
func (f *fakeStatsReader) CountSignals(ctx context.Context) (int64, error)        { return 9200, nil }
func (f *fakeStatsReader) CountSnapshotsForDate(ctx context.Context, date time.Time) (int, error) {
	return 498, nil
}

type fakeHealth struct{ err error }

func (f *fakeHealth) HealthCheck(ctx context.Context) error { return f.err }

func noCache() *redis.Client {
	return redis.New(context.Background(), &config.Config{}, logger.NewNop())
}

func testRouter(sig *fakeSignalReader, rec *fakeRecommendationReader, health *fakeHealth) http.Handler {
	log := logger.NewNop()
	return NewRouter(
		handlers.NewSignalHandler(sig, noCache(), log),
		handlers.NewPortfolioHandler(rec, noCache(), log),
		handlers.NewStatsHandler(&fakeStatsReader{}, log),
		health,
		log,
	)
}

func TestHealth(t *testing.T) {
	router := testRouter(&fakeSignalReader{}, &fakeRecommendationReader{}, &fakeHealth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_Degraded(t *testing.T) {
	router := testRouter(&fakeSignalReader{}, &fakeRecommendationReader{}, &fakeHealth{err: errors.New("down")})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestGetTopSignals(t *testing.T) {
	sig := &fakeSignalReader{top: &signals.TopSignals{
		Buys: []signals.RankedSignal{{Ticker: "AAPL", Score: 0.85}},
	}}
	router := testRouter(sig, &fakeRecommendationReader{}, &fakeHealth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/signals/top?limit=5", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, sig.lastLimit)

	var top signals.TopSignals
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &top))
	require.Len(t, top.Buys, 1)
	assert.Equal(t, "AAPL", top.Buys[0].Ticker)
}

func TestGetTopSignals_BadLimit(t *testing.T) {
	router := testRouter(&fakeSignalReader{}, &fakeRecommendationReader{}, &fakeHealth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/signals/top?limit=zero", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetLatestPortfolio(t *testing.T) {
	rec := &fakeRecommendationReader{rec: &contracts.PortfolioRecommendation{
		ID:             42,
		ExpectedSharpe: 1.75,
		Positions: []contracts.Position{
			{Ticker: "MSFT", Weight: 0.2},
		},
	}}
	router := testRouter(&fakeSignalReader{}, rec, &fakeHealth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/portfolio/latest", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var got contracts.PortfolioRecommendation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, int64(42), got.ID)
	require.Len(t, got.Positions, 1)
}

func TestGetLatestPortfolio_None(t *testing.T) {
	router := testRouter(&fakeSignalReader{}, &fakeRecommendationReader{}, &fakeHealth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/portfolio/latest", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetStats(t *testing.T) {
	router := testRouter(&fakeSignalReader{}, &fakeRecommendationReader{}, &fakeHealth{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/stats", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var stats handlers.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 503, stats.ActiveSecurities)
	assert.Equal(t, int64(180000), stats.PriceBars)
}
