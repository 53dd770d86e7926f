package dataservices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/spread-trading/src/models"
)

// ThetaDataClient fetches end-of-day historical option chains from a local
// ThetaData terminal. It merges the bulk all-greeks, ohlc, and open-interest
// endpoints into one row per contract.
type ThetaDataClient struct {
	baseURL string
	client  http.Client
}

func NewThetaDataClient(baseURL string) *ThetaDataClient {
	return &ThetaDataClient{
		baseURL: baseURL,
		client: http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *ThetaDataClient) Name() string {
	return "thetadata"
}

// Available always returns true: the historical terminal serves any date.
func (c *ThetaDataClient) Available(date, now time.Time) bool {
	return true
}

func (c *ThetaDataClient) ExpirationLayout() string {
	return "20060102"
}

type thetaContractKey struct {
	expiration int
	strike     int
	right      string
}

func (c *ThetaDataClient) fetchBulk(ctx context.Context, endpoint, symbol string, date time.Time) (*models.ThetaDataBulkResponse, error) {
	url := fmt.Sprintf("%s/v2/bulk_hist/option/%s", c.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetchBulk: failed to create request: %w", err)
	}

	dateStr := date.Format("20060102")

	q := req.URL.Query()
	q.Add("root", symbol)
	q.Add("exp", "0")
	q.Add("start_date", dateStr)
	q.Add("end_date", dateStr)
	q.Add("ivl", "3600000")
	req.URL.RawQuery = q.Encode()
	req.Header.Add("Accept", "application/json")

	log.Debugf("fetchBulk: fetching %v", req.URL.String())

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetchBulk: failed to fetch %s: %w", endpoint, err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetchBulk: failed to fetch %s, http code %v", endpoint, res.Status)
	}

	var dto models.ThetaDataBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("fetchBulk: failed to decode %s json: %w", endpoint, err)
	}

	return &dto, nil
}

// FetchChain returns one end-of-day row per contract for the given date.
// Greeks and IV come from the all-greeks endpoint; volume and last price
// from ohlc; open interest from its own endpoint. Contracts missing from
// the secondary endpoints keep zero values there and are left to the
// quality filter.
func (c *ThetaDataClient) FetchChain(ctx context.Context, symbol string, date time.Time) ([]models.OptionChainRowDTO, error) {
	greeksResp, err := c.fetchBulk(ctx, "all_greeks", symbol, date)
	if err != nil {
		return nil, fmt.Errorf("ThetaDataClient: FetchChain: %w", err)
	}

	if len(greeksResp.Response) == 0 {
		return nil, nil
	}

	rows := make(map[thetaContractKey]*models.OptionChainRowDTO)

	bidIdx := greeksResp.HeaderIndex("bid")
	askIdx := greeksResp.HeaderIndex("ask")
	deltaIdx := greeksResp.HeaderIndex("delta")
	gammaIdx := greeksResp.HeaderIndex("gamma")
	thetaIdx := greeksResp.HeaderIndex("theta")
	vegaIdx := greeksResp.HeaderIndex("vega")
	ivIdx := greeksResp.HeaderIndex("implied_vol")
	underlyingIdx := greeksResp.HeaderIndex("underlying_price")

	for i := range greeksResp.Response {
		item := &greeksResp.Response[i]

		tick, err := item.LastTick()
		if err != nil {
			log.Debugf("ThetaDataClient: FetchChain: %v", err)
			continue
		}

		key := thetaContractKey{
			expiration: item.Contract.Expiration,
			strike:     int(item.Contract.Strike),
			right:      item.Contract.Right,
		}

		rows[key] = &models.OptionChainRowDTO{
			Underlying:        item.Contract.Root,
			Strike:            item.Contract.Strike / 1000.0,
			Expiration:        strconv.Itoa(item.Contract.Expiration),
			OptionType:        item.Contract.Right,
			Bid:               models.TickValue(tick, bidIdx),
			Ask:               models.TickValue(tick, askIdx),
			Delta:             models.TickValue(tick, deltaIdx),
			Gamma:             models.TickValue(tick, gammaIdx),
			Theta:             models.TickValue(tick, thetaIdx),
			Vega:              models.TickValue(tick, vegaIdx),
			ImpliedVolatility: models.TickValue(tick, ivIdx),
			UnderlyingPrice:   models.TickValue(tick, underlyingIdx),
		}
	}

	if ohlcResp, err := c.fetchBulk(ctx, "ohlc", symbol, date); err != nil {
		log.Warnf("ThetaDataClient: FetchChain: ohlc fetch failed, volume left at 0: %v", err)
	} else {
		closeIdx := ohlcResp.HeaderIndex("close")
		volumeIdx := ohlcResp.HeaderIndex("volume")

		for i := range ohlcResp.Response {
			item := &ohlcResp.Response[i]

			tick, err := item.LastTick()
			if err != nil {
				continue
			}

			key := thetaContractKey{
				expiration: item.Contract.Expiration,
				strike:     int(item.Contract.Strike),
				right:      item.Contract.Right,
			}

			if row, ok := rows[key]; ok {
				row.Last = models.TickValue(tick, closeIdx)
				row.Volume = models.TickValue(tick, volumeIdx)
			}
		}
	}

	if oiResp, err := c.fetchBulk(ctx, "open_interest", symbol, date); err != nil {
		log.Warnf("ThetaDataClient: FetchChain: open interest fetch failed, left at 0: %v", err)
	} else {
		oiIdx := oiResp.HeaderIndex("open_interest")

		for i := range oiResp.Response {
			item := &oiResp.Response[i]

			tick, err := item.LastTick()
			if err != nil {
				continue
			}

			key := thetaContractKey{
				expiration: item.Contract.Expiration,
				strike:     int(item.Contract.Strike),
				right:      item.Contract.Right,
			}

			if row, ok := rows[key]; ok {
				row.OpenInterest = models.TickValue(tick, oiIdx)
			}
		}
	}

	out := make([]models.OptionChainRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}

	log.Infof("ThetaDataClient: FetchChain: fetched %d contracts for %s on %s", len(out), symbol, date.Format("2006-01-02"))

	return out, nil
}
