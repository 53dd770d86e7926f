package models

import (
	"fmt"
	"math"
	"time"
)

// OptionContract is an immutable snapshot of one listed option at one point
// in time. Contracts are constructed fresh per chain fetch and never mutated
// afterwards; refreshed quotes for an open leg live on the position's Mark.
type OptionContract struct {
	Symbol            string
	Underlying        string
	Strike            float64
	Expiration        time.Time
	OptionType        OptionType
	Bid               float64
	Ask               float64
	Last              float64
	Volume            int
	OpenInterest      int
	ImpliedVolatility float64
	Delta             float64
	Gamma             float64
	Theta             float64
	Vega              float64
	UnderlyingPrice   float64
	AsOf              time.Time
}

// MidPrice returns (bid+ask)/2 when both sides are quoted, falling back to
// the last traded price.
func (c *OptionContract) MidPrice() float64 {
	if c.Bid > 0 && c.Ask > 0 {
		return (c.Bid + c.Ask) / 2.0
	}

	return c.Last
}

func (c *OptionContract) DaysToExpiration() float64 {
	return c.Expiration.Sub(c.AsOf).Hours() / 24.0
}

// Moneyness is strike/spot for calls and spot/strike for puts, so 1.0 is
// at-the-money for both rights.
func (c *OptionContract) Moneyness() float64 {
	if c.UnderlyingPrice <= 0 || c.Strike <= 0 {
		return 0
	}

	if c.OptionType == OptionTypeCall {
		return c.Strike / c.UnderlyingPrice
	}

	return c.UnderlyingPrice / c.Strike
}

// SpreadPct is the bid/ask spread as a fraction of the mid price.
func (c *OptionContract) SpreadPct() float64 {
	mid := c.MidPrice()
	if mid <= 0 {
		return math.Inf(1)
	}

	return (c.Ask - c.Bid) / mid
}

// NewOptionSymbol builds an OCC-style contract symbol for sources that do
// not supply one: {underlying}{yymmdd}{C|P}{strike*1000 padded to 8 digits}.
func NewOptionSymbol(underlying string, expiration time.Time, optionType OptionType, strike float64) string {
	right := "C"
	if optionType == OptionTypePut {
		right = "P"
	}

	return fmt.Sprintf("%s%s%s%08d", underlying, expiration.Format("060102"), right, int(math.Round(strike*1000)))
}
