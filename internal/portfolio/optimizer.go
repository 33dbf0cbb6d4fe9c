package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/internal/numeric"
	"github.com/vantage-quant/vantage/internal/strategyconfig"
	"github.com/vantage-quant/vantage/pkg/logger"
)

// Combined-score weights over the candidate's forecast and backtest.
const (
	scoreWeightML         = 0.5
	scoreWeightConfidence = 0.3
	scoreWeightBacktest   = 0.2
)

// Optimizer turns the latest forecasts and backtest metrics into a
// capped, normalized allocation.
type Optimizer struct {
	cfg *strategyconfig.Config
	log *logger.Logger
}

// NewOptimizer creates a portfolio optimizer.
func NewOptimizer(cfg *strategyconfig.Config, log *logger.Logger) *Optimizer {
	return &Optimizer{cfg: cfg, log: log}
}

type candidate struct {
	ticker      string
	sector      string
	mlScore     float64
	confidence  float64
	backtestROI float64
	combined    float64
	kelly       float64
	weight      float64
}

// Optimize builds a recommendation from the latest forecast per
// security, joined with its latest backtest result when one exists.
// Fewer than the minimum qualifying candidates yields
// ErrInsufficientSignals, which callers treat as a normal
// no-recommendation outcome.
func (o *Optimizer) Optimize(
	securities map[string]contracts.Security,
	forecasts map[string]*contracts.Forecast,
	backtests map[string]*contracts.BacktestResult,
) (*contracts.PortfolioRecommendation, error) {
	p := o.cfg.Portfolio

	var candidates []candidate
	for ticker, f := range forecasts {
		if f.MLScore <= p.MLScoreFloor {
			continue
		}
		c := candidate{
			ticker:      ticker,
			sector:      securities[ticker].Sector,
			mlScore:     f.MLScore,
			confidence:  f.Confidence1D,
			backtestROI: p.DefaultBacktestROI,
		}
		if b, ok := backtests[ticker]; ok {
			c.backtestROI = b.ROI
		}
		c.combined = scoreWeightML*c.mlScore +
			scoreWeightConfidence*c.confidence +
			scoreWeightBacktest*(c.backtestROI/100)
		candidates = append(candidates, c)
	}

	if len(candidates) < p.MinCandidates {
		return nil, fmt.Errorf("portfolio: %d candidates above ml-score floor, need %d: %w",
			len(candidates), p.MinCandidates, contracts.ErrInsufficientSignals)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].combined != candidates[j].combined {
			return candidates[i].combined > candidates[j].combined
		}
		return candidates[i].ticker < candidates[j].ticker
	})

	sectorShares := o.sectorShares(candidates)

	shortlist := candidates
	if len(shortlist) > p.ShortlistSize {
		shortlist = shortlist[:p.ShortlistSize]
	}
	for i := range shortlist {
		c := &shortlist[i]
		c.kelly = o.kellyFraction(c.mlScore, c.backtestROI/100)
		share, ok := sectorShares[c.sector]
		if !ok {
			share = p.DefaultSectorShare
		}
		c.weight = c.kelly * share
	}

	sort.Slice(shortlist, func(i, j int) bool {
		if shortlist[i].weight != shortlist[j].weight {
			return shortlist[i].weight > shortlist[j].weight
		}
		return shortlist[i].ticker < shortlist[j].ticker
	})
	kept := shortlist
	if len(kept) > p.BasketSize {
		kept = kept[:p.BasketSize]
	}

	totalWeight := 0.0
	for _, c := range kept {
		totalWeight += c.weight
	}

	positions := make([]contracts.Position, len(kept))
	kellySum := 0.0
	for i, c := range kept {
		positions[i] = contracts.Position{
			Ticker:        c.ticker,
			Sector:        c.sector,
			Weight:        c.weight / totalWeight,
			KellyFraction: c.kelly,
			CombinedScore: c.combined,
			MLScore:       c.mlScore,
			Confidence:    c.confidence,
			BacktestROI:   c.backtestROI,
		}
		kellySum += c.kelly
	}

	return &contracts.PortfolioRecommendation{
		CreatedAt:      time.Now().UTC(),
		Positions:      positions,
		ExpectedSharpe: p.ReportedSharpe,
		AvgKelly:       kellySum / float64(len(kept)),
		CandidateSize:  len(candidates),
	}, nil
}

// sectorShares sums combined score per sector, normalizes across
// sectors, and caps each share.
func (o *Optimizer) sectorShares(candidates []candidate) map[string]float64 {
	p := o.cfg.Portfolio

	sums := make(map[string]float64)
	total := 0.0
	for _, c := range candidates {
		sums[c.sector] += c.combined
		total += c.combined
	}

	shares := make(map[string]float64, len(sums))
	for sector, sum := range sums {
		if total <= 0 {
			shares[sector] = p.DefaultSectorShare
			continue
		}
		shares[sector] = math.Min(p.SectorCap, sum/total)
	}
	return shares
}

// kellyFraction sizes one position. p is the win probability (the
// ml-score), r the expected edge return. r at exactly zero takes the
// conservative floor instead of dividing by zero.
func (o *Optimizer) kellyFraction(pWin, r float64) float64 {
	pf := o.cfg.Portfolio
	r = math.Max(pf.MinEdgeReturn, r)
	if r == 0 {
		return pf.KellyFloor
	}
	b := (1 + r) / r
	k := (pWin*b - (1 - pWin)) / b
	return numeric.Clamp(k, pf.KellyFloor, pf.KellyCap)
}
