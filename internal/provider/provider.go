package provider

import (
	"context"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/pkg/logger"
)

// Source is one backing price-history service.
type Source interface {
	Name() string
	FetchDaily(ctx context.Context, ticker string, daysBack int) ([]contracts.PriceBar, error)
}

// Provider tries an ordered list of sources per ticker and returns the
// first non-empty series. A ticker no source can resolve is silently
// omitted from the result map.
type Provider struct {
	sources []Source
	log     *logger.Logger
}

// New creates a provider over the given source order.
func New(sources []Source, log *logger.Logger) *Provider {
	return &Provider{sources: sources, log: log}
}

// FetchOne resolves one ticker through the fallback chain. An
// exhausted chain returns nil bars and nil error.
func (p *Provider) FetchOne(ctx context.Context, ticker string, daysBack int) ([]contracts.PriceBar, error) {
	for _, src := range p.sources {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		bars, err := src.FetchDaily(ctx, ticker, daysBack)
		if err != nil {
			p.log.WithError(err).WithFields(map[string]interface{}{
				"ticker": ticker,
				"source": src.Name(),
			}).Debug("source failed, trying next")
			continue
		}
		if len(bars) == 0 {
			continue
		}
		return bars, nil
	}
	return nil, nil
}

// Fetch resolves a set of tickers, returning a possibly partial map.
// Partial failure is not an error.
func (p *Provider) Fetch(ctx context.Context, tickers []string, daysBack int) (map[string][]contracts.PriceBar, error) {
	out := make(map[string][]contracts.PriceBar, len(tickers))
	for _, ticker := range tickers {
		bars, err := p.FetchOne(ctx, ticker, daysBack)
		if err != nil {
			return out, err
		}
		if len(bars) == 0 {
			p.log.WithField("ticker", ticker).Debug("all sources exhausted")
			continue
		}
		out[ticker] = bars
	}
	return out, nil
}
