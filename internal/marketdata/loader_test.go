package marketdata

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/provider"
	"github.com/vantage-quant/vantage/pkg/logger"
)

type fakeConstituents struct {
	securities []contracts.Security
	err        error
}

func (f *fakeConstituents) Fetch(ctx context.Context) ([]contracts.Security, error) {
	return f.securities, f.err
}

type fakeSecurityStore struct {
	mu          sync.Mutex
	active      []contracts.Security
	upserted    []contracts.Security
	deactivated []string
}

func (f *fakeSecurityStore) GetActive(ctx context.Context) ([]contracts.Security, error) {
	return f.active, nil
}

func (f *fakeSecurityStore) UpsertAll(ctx context.Context, securities []contracts.Security) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, securities...)
	return nil
}

func (f *fakeSecurityStore) DeactivateMissing(ctx context.Context, tickers []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = tickers
	return 1, nil
}

type fakePriceStore struct {
	mu       sync.Mutex
	maxDates map[string]time.Time
	saved    map[string][]contracts.PriceBar
}

func newFakePriceStore() *fakePriceStore {
	return &fakePriceStore{
		maxDates: make(map[string]time.Time),
		saved:    make(map[string][]contracts.PriceBar),
	}
}

func (f *fakePriceStore) MaxDate(ctx context.Context, ticker string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxDates[ticker], nil
}

func (f *fakePriceStore) SaveBars(ctx context.Context, bars []contracts.PriceBar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range bars {
		f.saved[b.Ticker] = append(f.saved[b.Ticker], b)
	}
	return nil
}

type fakeSource struct {
	mu   sync.Mutex
	bars map[string][]contracts.PriceBar
}

func (f *fakeSource) Name() string { return "fake" }
func (f *fakeSource) FetchDaily(ctx context.Context, ticker string, daysBack int) ([]contracts.PriceBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bars[ticker], nil
}

func barsFor(ticker string, dates ...time.Time) []contracts.PriceBar {
	out := make([]contracts.PriceBar, len(dates))
	for i, d := range dates {
		out[i] = contracts.PriceBar{Ticker: ticker, Date: d, Close: 100, Volume: 1000}
	}
	return out
}

func TestLoader_RefreshConstituents(t *testing.T) {
	members := []contracts.Security{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Information Technology", Active: true},
		{Ticker: "XOM", Name: "Exxon Mobil", Sector: "Energy", Active: true},
	}
	secs := &fakeSecurityStore{}
	l := NewLoader(&fakeConstituents{securities: members}, nil, secs, newFakePriceStore(), 2, 365, logger.NewNop())

	require.NoError(t, l.RefreshConstituents(context.Background()))

	assert.Len(t, secs.upserted, 2)
	assert.Equal(t, []string{"AAPL", "XOM"}, secs.deactivated)
}

func TestLoader_Ingest_Full(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2026, 8, n, 0, 0, 0, 0, time.UTC) }

	src := &fakeSource{bars: map[string][]contracts.PriceBar{
		"AAPL": barsFor("AAPL", day(24), day(25), day(26)),
		"MSFT": barsFor("MSFT", day(25), day(26)),
	}}
	p := provider.New([]provider.Source{src}, logger.NewNop())
	store := newFakePriceStore()
	secs := &fakeSecurityStore{active: []contracts.Security{
		{Ticker: "AAPL", Active: true},
		{Ticker: "MSFT", Active: true},
		{Ticker: "GHOST", Active: true},
	}}

	l := NewLoader(&fakeConstituents{}, p, secs, store, 2, 365, logger.NewNop())
	report, err := l.Ingest(context.Background(), false)
	require.NoError(t, err)

	ok, skipped, failed := report.Counts()
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 0, failed)
	assert.Len(t, store.saved["AAPL"], 3)
	assert.Len(t, store.saved["MSFT"], 2)
	assert.Empty(t, store.saved["GHOST"])
}

func TestLoader_Ingest_IncrementalFiltersStaleBars(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2026, 8, n, 0, 0, 0, 0, time.UTC) }

	src := &fakeSource{bars: map[string][]contracts.PriceBar{
		"AAPL": barsFor("AAPL", day(24), day(25), day(26)),
	}}
	p := provider.New([]provider.Source{src}, logger.NewNop())
	store := newFakePriceStore()
	store.maxDates["AAPL"] = day(25)
	secs := &fakeSecurityStore{active: []contracts.Security{{Ticker: "AAPL", Active: true}}}

	l := NewLoader(&fakeConstituents{}, p, secs, store, 1, 365, logger.NewNop())
	report, err := l.Ingest(context.Background(), true)
	require.NoError(t, err)

	ok, _, _ := report.Counts()
	assert.Equal(t, 1, ok)
	require.Len(t, store.saved["AAPL"], 1)
	assert.Equal(t, day(26), store.saved["AAPL"][0].Date)
}

func TestLoader_Ingest_IncrementalUpToDate(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2026, 8, n, 0, 0, 0, 0, time.UTC) }

	src := &fakeSource{bars: map[string][]contracts.PriceBar{
		"AAPL": barsFor("AAPL", day(26)),
	}}
	p := provider.New([]provider.Source{src}, logger.NewNop())
	store := newFakePriceStore()
	store.maxDates["AAPL"] = day(26)
	secs := &fakeSecurityStore{active: []contracts.Security{{Ticker: "AAPL", Active: true}}}

	l := NewLoader(&fakeConstituents{}, p, secs, store, 1, 365, logger.NewNop())
	report, err := l.Ingest(context.Background(), true)
	require.NoError(t, err)

	_, skipped, _ := report.Counts()
	assert.Equal(t, 1, skipped)
	assert.Empty(t, store.saved["AAPL"])
}
