package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/pkg/httputil"
)

// Stooq serves daily OHLCV history as CSV. US tickers carry a ".us"
// suffix and are lowercased.
type Stooq struct {
	client  *httputil.Client
	baseURL string
}

// NewStooq creates a stooq source. baseURL overrides the production
// endpoint in tests; empty means production.
func NewStooq(client *httputil.Client, baseURL string) *Stooq {
	if baseURL == "" {
		baseURL = "https://stooq.com"
	}
	return &Stooq{client: client, baseURL: baseURL}
}

func (s *Stooq) Name() string { return "stooq" }

// FetchDaily downloads and parses one ticker's history.
func (s *Stooq) FetchDaily(ctx context.Context, ticker string, daysBack int) ([]contracts.PriceBar, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -daysBack)

	url := fmt.Sprintf("%s/q/d/l/?s=%s.us&d1=%s&d2=%s&i=d",
		s.baseURL,
		strings.ToLower(ticker),
		from.Format("20060102"),
		to.Format("20060102"),
	)

	body, err := s.client.GetBody(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("stooq: fetch %s: %w", ticker, err)
	}
	return parseStooqCSV(ticker, body)
}

// parseStooqCSV decodes the Date,Open,High,Low,Close,Volume layout.
// Rows with unparsable numbers are dropped.
func parseStooqCSV(ticker string, body []byte) ([]contracts.PriceBar, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("stooq: read header: %w", err)
	}
	if len(header) < 6 || !strings.EqualFold(header[0], "Date") {
		// "No data" placeholder page, not CSV.
		return nil, nil
	}

	var bars []contracts.PriceBar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stooq: read row: %w", err)
		}
		if len(record) < 6 {
			continue
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(record[1], 64)
		high, err2 := strconv.ParseFloat(record[2], 64)
		low, err3 := strconv.ParseFloat(record[3], 64)
		closePx, err4 := strconv.ParseFloat(record[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := strconv.ParseInt(record[5], 10, 64)

		bars = append(bars, contracts.PriceBar{
			Ticker: ticker,
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: volume,
		})
	}
	return bars, nil
}
