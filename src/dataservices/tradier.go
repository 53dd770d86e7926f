package dataservices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/spread-trading/src/models"
)

// RecencyWindow bounds how far back the live source can serve a chain date.
const RecencyWindow = 30 * 24 * time.Hour

// maxExpirationsPerChain caps how many expiration slices one chain fetch
// pulls, keeping live requests bounded.
const maxExpirationsPerChain = 8

// TradierClient fetches current option chains with greeks from the Tradier
// market-data API. It is a live source: only dates inside the recency
// window are served.
type TradierClient struct {
	baseURL string
	token   string
	client  http.Client
}

func NewTradierClient(baseURL, token string) *TradierClient {
	return &TradierClient{
		baseURL: baseURL,
		token:   token,
		client: http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TradierClient) Name() string {
	return "tradier"
}

func (c *TradierClient) Available(date, now time.Time) bool {
	return now.Sub(date) <= RecencyWindow && !date.After(now)
}

func (c *TradierClient) ExpirationLayout() string {
	return "2006-01-02"
}

func (c *TradierClient) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("get: failed to create request: %w", err)
	}

	q := req.URL.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.token))

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get: failed to fetch %s: %w", path, err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("get: failed to fetch %s, http code %v", path, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("get: failed to decode %s json: %w", path, err)
	}

	return nil
}

func (c *TradierClient) fetchUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	var dto models.TradierUnderlyingQuoteDTO
	if err := c.get(ctx, "/markets/quotes", map[string]string{"symbols": symbol}, &dto); err != nil {
		return 0, fmt.Errorf("fetchUnderlyingPrice: %w", err)
	}

	quote := dto.Quotes.Quote
	if quote.Last > 0 {
		return quote.Last, nil
	}

	if quote.Bid > 0 && quote.Ask > 0 {
		return (quote.Bid + quote.Ask) / 2.0, nil
	}

	return 0, fmt.Errorf("fetchUnderlyingPrice: no usable price for %s", symbol)
}

// FetchChain pulls the full chain across the nearest expirations, one
// chains request per expiration, with greeks attached.
func (c *TradierClient) FetchChain(ctx context.Context, symbol string, date time.Time) ([]models.OptionChainRowDTO, error) {
	underlyingPrice, err := c.fetchUnderlyingPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("TradierClient: FetchChain: %w", err)
	}

	var expirations models.TradierExpirationsDTO
	if err := c.get(ctx, "/markets/options/expirations", map[string]string{
		"symbol":          symbol,
		"includeAllRoots": "true",
	}, &expirations); err != nil {
		return nil, fmt.Errorf("TradierClient: FetchChain: %w", err)
	}

	dates := expirations.Expirations.Date
	if len(dates) > maxExpirationsPerChain {
		dates = dates[:maxExpirationsPerChain]
	}

	var rows []models.OptionChainRowDTO
	for _, expiration := range dates {
		var chain models.TradierOptionChainDTO
		if err := c.get(ctx, "/markets/options/chains", map[string]string{
			"symbol":     symbol,
			"expiration": expiration,
			"greeks":     "true",
		}, &chain); err != nil {
			log.Warnf("TradierClient: FetchChain: skipping expiration %s: %v", expiration, err)
			continue
		}

		for i := range chain.Options.Option {
			rows = append(rows, chain.Options.Option[i].ToRow(underlyingPrice))
		}
	}

	log.Infof("TradierClient: FetchChain: fetched %d contracts for %s across %d expirations", len(rows), symbol, len(dates))

	return rows, nil
}
