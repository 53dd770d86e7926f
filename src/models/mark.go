package models

import "time"

// Mark is the current quote for an open leg. It is replaced wholesale on
// every refresh; the leg's entry contract snapshot is never written to.
type Mark struct {
	Bid  float64
	Ask  float64
	Last float64
	AsOf time.Time
}

func (m Mark) MidPrice() float64 {
	if m.Bid > 0 && m.Ask > 0 {
		return (m.Bid + m.Ask) / 2.0
	}

	return m.Last
}

func NewMarkFromContract(c *OptionContract) Mark {
	return Mark{
		Bid:  c.Bid,
		Ask:  c.Ask,
		Last: c.Last,
		AsOf: c.AsOf,
	}
}
