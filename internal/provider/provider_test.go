package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/pkg/httputil"
	"github.com/vantage-quant/vantage/pkg/logger"
)

func testClient() *httputil.Client {
	return httputil.NewClient(5*time.Second, 1000, logger.NewNop())
}

const stooqCSV = `Date,Open,High,Low,Close,Volume
2026-08-24,231.2,233.9,230.1,233.5,41250000
2026-08-25,233.6,235.0,232.8,234.1,38900000
2026-08-26,bad,235.0,232.8,234.1,100
2026-08-27,234.0,236.2,233.5,235.8,40100000
`

func TestStooq_FetchDaily(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(stooqCSV))
	}))
	defer srv.Close()

	src := NewStooq(testClient(), srv.URL)
	bars, err := src.FetchDaily(context.Background(), "AAPL", 30)
	require.NoError(t, err)

	// The unparsable row is dropped.
	require.Len(t, bars, 3)
	assert.Equal(t, "AAPL", bars[0].Ticker)
	assert.Equal(t, 233.5, bars[0].Close)
	assert.Equal(t, int64(41250000), bars[0].Volume)
	assert.Contains(t, gotPath, "s=aapl.us")
}

func TestStooq_NoDataPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No data"))
	}))
	defer srv.Close()

	src := NewStooq(testClient(), srv.URL)
	bars, err := src.FetchDaily(context.Background(), "ZZZZ", 30)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

const yahooJSON = `{
  "chart": {
    "result": [{
      "timestamp": [1755993600, 1756080000, 1756166400],
      "indicators": {
        "quote": [{
          "open": [230.0, 231.5, null],
          "high": [233.0, 234.0, 236.0],
          "low": [229.0, 230.5, 233.0],
          "close": [232.1, null, 235.4],
          "volume": [40000000, 39000000, 41000000]
        }]
      }
    }],
    "error": null
  }
}`

func TestYahoo_FetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yahooJSON))
	}))
	defer srv.Close()

	src := NewYahoo(testClient(), srv.URL)
	bars, err := src.FetchDaily(context.Background(), "MSFT", 365)
	require.NoError(t, err)

	// The null-close row is dropped.
	require.Len(t, bars, 2)
	assert.Equal(t, 232.1, bars[0].Close)
	assert.Equal(t, 235.4, bars[1].Close)
	// Null open on the surviving row defaults to zero.
	assert.Equal(t, 0.0, bars[1].Open)
}

type stubSource struct {
	name string
	bars []contracts.PriceBar
	err  error
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) FetchDaily(ctx context.Context, ticker string, daysBack int) ([]contracts.PriceBar, error) {
	return s.bars, s.err
}

func TestProvider_FallbackOrder(t *testing.T) {
	want := []contracts.PriceBar{{Ticker: "AAPL", Close: 230}}
	p := New([]Source{
		&stubSource{name: "first", err: assert.AnError},
		&stubSource{name: "second", bars: want},
	}, logger.NewNop())

	bars, err := p.FetchOne(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, want, bars)
}

func TestProvider_ExhaustedIsSilentOmission(t *testing.T) {
	p := New([]Source{
		&stubSource{name: "first", err: assert.AnError},
		&stubSource{name: "second"},
	}, logger.NewNop())

	got, err := p.Fetch(context.Background(), []string{"AAPL", "MSFT"}, 30)
	require.NoError(t, err)
	assert.Empty(t, got)
}

const constituentsHTML = `<html><body>
<table id="constituents">
<tbody>
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th></tr>
<tr><td>AAPL</td><td>Apple Inc.</td><td>Information Technology</td><td>Hardware</td></tr>
<tr><td>BRK.B</td><td>Berkshire Hathaway</td><td>Financials</td><td>Multi-Sector Holdings</td></tr>
</tbody>
</table>
</body></html>`

func TestConstituentsScraper_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(constituentsHTML))
	}))
	defer srv.Close()

	s := NewConstituentsScraper(testClient(), srv.URL)
	securities, err := s.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, securities, 2)
	assert.Equal(t, "AAPL", securities[0].Ticker)
	assert.Equal(t, "Apple Inc.", securities[0].Name)
	assert.Equal(t, "Information Technology", securities[0].Sector)
	assert.Equal(t, "BRK-B", securities[1].Ticker)
	assert.True(t, securities[1].Active)
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "BRK-B", NormalizeTicker("BRK.B"))
	assert.Equal(t, "AAPL", NormalizeTicker(" AAPL "))
}
