package strategies

import (
	"math"
	"time"

	"github.com/jiaming2012/spread-trading/src/models"
)

// testContract builds a quoted contract whose mid is |delta|*10, with a 4
// cent spread and healthy liquidity.
func testContract(asOf, expiration time.Time, optionType models.OptionType, strike, delta, spot float64) *models.OptionContract {
	mid := math.Abs(delta) * 10

	return &models.OptionContract{
		Symbol:            models.NewOptionSymbol("SPY", expiration, optionType, strike),
		Underlying:        "SPY",
		Strike:            strike,
		Expiration:        expiration,
		OptionType:        optionType,
		Bid:               mid - 0.02,
		Ask:               mid + 0.02,
		Volume:            100,
		OpenInterest:      500,
		ImpliedVolatility: 0.20,
		Delta:             delta,
		UnderlyingPrice:   spot,
		AsOf:              asOf,
	}
}

var testCallDeltas = map[float64]float64{
	80: 0.95, 85: 0.90, 90: 0.80, 95: 0.65, 100: 0.50,
	105: 0.16, 110: 0.08, 115: 0.04, 120: 0.02,
}

var testPutDeltas = map[float64]float64{
	80: -0.02, 85: -0.04, 90: -0.08, 95: -0.16, 100: -0.50,
	105: -0.70, 110: -0.85, 115: -0.92, 120: -0.97,
}

// testChain builds a full two-sided chain at one expiration, spot 100.
func testChain(asOf, expiration time.Time) []*models.OptionContract {
	var chain []*models.OptionContract
	for strike := 80.0; strike <= 120.0; strike += 5.0 {
		chain = append(chain, testContract(asOf, expiration, models.OptionTypeCall, strike, testCallDeltas[strike], 100))
		chain = append(chain, testContract(asOf, expiration, models.OptionTypePut, strike, testPutDeltas[strike], 100))
	}

	return chain
}

// remarked copies a chain with fresh quotes: contracts whose symbol appears
// in mids get that mid with the standard spread, the rest keep their quotes.
func remarked(chain []*models.OptionContract, asOf time.Time, mids map[string]float64) []*models.OptionContract {
	out := make([]*models.OptionContract, 0, len(chain))
	for _, c := range chain {
		copied := *c
		copied.AsOf = asOf

		if mid, ok := mids[c.Symbol]; ok {
			copied.Bid = mid - 0.02
			copied.Ask = mid + 0.02
		}

		out = append(out, &copied)
	}

	return out
}
