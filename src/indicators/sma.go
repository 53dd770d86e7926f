package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/jiaming2012/spread-trading/src/models"
)

type Sma struct {
	Period int
	closes []float64
}

func NewSma(period int) *Sma {
	return &Sma{
		Period: period,
	}
}

// Update feeds one candle and returns (ready, value). The indicator is not
// ready until Period closes have been seen.
func (s *Sma) Update(c models.Candle) (bool, float64, error) {
	if len(s.closes) < s.Period {
		s.closes = append(s.closes, c.Close)

		if len(s.closes) < s.Period {
			return false, 0, nil
		}
	} else {
		s.closes = append(s.closes[1:], c.Close)
	}

	mean, err := stats.Mean(s.closes)
	if err != nil {
		return false, 0, fmt.Errorf("Sma: Update: failed to calculate mean: %v", err)
	}

	return true, mean, nil
}
