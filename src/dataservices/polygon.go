package dataservices

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/spread-trading/src/models"
)

// PolygonBarsClient fetches daily underlying candles used by the moving
// average entry filters.
type PolygonBarsClient struct {
	Client *polygon.Client
}

func NewPolygonBarsClient(apiKey string) *PolygonBarsClient {
	return &PolygonBarsClient{
		Client: polygon.New(apiKey),
	}
}

// FetchDailyCandles returns daily bars for [from, to] in ascending order.
func (c *PolygonBarsClient) FetchDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	params := polygonmodels.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   polygonmodels.Day,
		From:       polygonmodels.Millis(from),
		To:         polygonmodels.Millis(to),
	}.WithOrder(polygonmodels.Asc).WithAdjusted(true)

	iter := c.Client.ListAggs(ctx, params)

	var candles []models.Candle
	for iter.Next() {
		item := iter.Item()

		candles = append(candles, models.NewCandle(
			time.Time(item.Timestamp),
			item.Open,
			item.High,
			item.Low,
			item.Close,
			item.Volume,
		))
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	log.Debugf("PolygonBarsClient: FetchDailyCandles: fetched %d daily candles for %s", len(candles), symbol)

	return candles, nil
}
