package indicators

import (
	"github.com/jiaming2012/spread-trading/src/models"
)

type Ema struct {
	Period  int
	prev    *float64
	seedSum float64
	seen    int
}

func NewEma(period int) *Ema {
	return &Ema{
		Period: period,
	}
}

// Update feeds one candle and returns (ready, value). The first Period
// closes seed the average, after which the standard smoothing recurrence
// applies.
func (e *Ema) Update(c models.Candle) (bool, float64) {
	if e.prev == nil {
		e.seedSum += c.Close
		e.seen++

		if e.seen < e.Period {
			return false, 0
		}

		seed := e.seedSum / float64(e.Period)
		e.prev = &seed
		return true, seed
	}

	multiplier := 2.0 / (float64(e.Period) + 1.0)
	next := (c.Close-*e.prev)*multiplier + *e.prev
	e.prev = &next

	return true, next
}
