package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vantage-quant/vantage/internal/contracts"
	"github.com/vantage-quant/vantage/pkg/httputil"
)

// DefaultConstituentsURL is the Wikipedia page listing the S&P 500.
const DefaultConstituentsURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// ConstituentsScraper pulls the index membership table from Wikipedia.
type ConstituentsScraper struct {
	client *httputil.Client
	url    string
}

// NewConstituentsScraper creates a scraper. url empty means the default
// Wikipedia page.
func NewConstituentsScraper(client *httputil.Client, url string) *ConstituentsScraper {
	if url == "" {
		url = DefaultConstituentsURL
	}
	return &ConstituentsScraper{client: client, url: url}
}

// Fetch returns the current constituents. Tickers use the provider
// dash convention (BRK.B becomes BRK-B).
func (s *ConstituentsScraper) Fetch(ctx context.Context) ([]contracts.Security, error) {
	body, err := s.client.GetBody(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("constituents: fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("constituents: parse html: %w", err)
	}

	table := doc.Find("table#constituents")
	if table.Length() == 0 {
		table = doc.Find("table.wikitable").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents: no table found at %s", s.url)
	}

	var securities []contracts.Security
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		ticker := strings.TrimSpace(cells.Eq(0).Text())
		if ticker == "" {
			return
		}
		securities = append(securities, contracts.Security{
			Ticker: NormalizeTicker(ticker),
			Name:   strings.TrimSpace(cells.Eq(1).Text()),
			Sector: strings.TrimSpace(cells.Eq(2).Text()),
			Active: true,
		})
	})

	if len(securities) == 0 {
		return nil, fmt.Errorf("constituents: empty table at %s", s.url)
	}
	return securities, nil
}

// NormalizeTicker converts share-class dots to the dash form the price
// sources expect.
func NormalizeTicker(ticker string) string {
	return strings.ReplaceAll(strings.TrimSpace(ticker), ".", "-")
}
