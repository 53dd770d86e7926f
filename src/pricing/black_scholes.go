package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jiaming2012/spread-trading/src/models"
)

var stdNormal = distuv.UnitNormal

func dValues(spot, strike, timeToExpiry, rate, sigma float64) (float64, float64) {
	d1 := (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*timeToExpiry) / (sigma * math.Sqrt(timeToExpiry))
	d2 := d1 - sigma*math.Sqrt(timeToExpiry)
	return d1, d2
}

func degenerate(spot, strike, timeToExpiry, sigma float64) bool {
	return spot <= 0 || strike <= 0 || timeToExpiry <= 0 || sigma <= 0
}

// Price returns the Black-Scholes price of a European option. Degenerate
// inputs (expired contract, zero vol, garbage quotes) price to 0 so callers
// never have to special-case them.
func Price(spot, strike, timeToExpiry, rate, sigma float64, optionType models.OptionType) float64 {
	if degenerate(spot, strike, timeToExpiry, sigma) {
		return 0
	}

	d1, d2 := dValues(spot, strike, timeToExpiry, rate, sigma)
	discount := math.Exp(-rate * timeToExpiry)

	var price float64
	if optionType == models.OptionTypeCall {
		price = spot*stdNormal.CDF(d1) - strike*discount*stdNormal.CDF(d2)
	} else {
		price = strike*discount*stdNormal.CDF(-d2) - spot*stdNormal.CDF(-d1)
	}

	if price < 0 {
		return 0
	}

	return price
}

// CalcGreeks returns delta, gamma, theta per calendar day, and vega/rho per
// one percentage point move. Degenerate inputs yield all-zero Greeks.
func CalcGreeks(spot, strike, timeToExpiry, rate, sigma float64, optionType models.OptionType) models.Greeks {
	if degenerate(spot, strike, timeToExpiry, sigma) {
		return models.Greeks{}
	}

	d1, d2 := dValues(spot, strike, timeToExpiry, rate, sigma)
	discount := math.Exp(-rate * timeToExpiry)
	pdfD1 := stdNormal.Prob(d1)
	sqrtT := math.Sqrt(timeToExpiry)

	var delta float64
	if optionType == models.OptionTypeCall {
		delta = stdNormal.CDF(d1)
	} else {
		delta = stdNormal.CDF(d1) - 1
	}

	gamma := pdfD1 / (spot * sigma * sqrtT)

	decay := -(spot * pdfD1 * sigma) / (2 * sqrtT)
	var theta float64
	if optionType == models.OptionTypeCall {
		theta = (decay - rate*strike*discount*stdNormal.CDF(d2)) / 365.0
	} else {
		theta = (decay + rate*strike*discount*stdNormal.CDF(-d2)) / 365.0
	}

	vega := spot * pdfD1 * sqrtT / 100.0

	var rho float64
	if optionType == models.OptionTypeCall {
		rho = strike * timeToExpiry * discount * stdNormal.CDF(d2) / 100.0
	} else {
		rho = -strike * timeToExpiry * discount * stdNormal.CDF(-d2) / 100.0
	}

	return models.Greeks{
		Delta: delta,
		Gamma: gamma,
		Theta: theta,
		Vega:  vega,
		Rho:   rho,
	}
}
