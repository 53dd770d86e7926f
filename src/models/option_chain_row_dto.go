package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OptionChainRowDTO is one raw tabular row produced by a data source client.
// Field names and formats vary per source; each client's adapter is
// responsible for populating this normalized shape. Numeric fields may carry
// NaN straight off the wire.
type OptionChainRowDTO struct {
	Symbol            string
	Underlying        string
	Strike            float64
	Expiration        string
	OptionType        string
	Bid               float64
	Ask               float64
	Last              float64
	Volume            float64
	OpenInterest      float64
	ImpliedVolatility float64
	Delta             float64
	Gamma             float64
	Theta             float64
	Vega              float64
	UnderlyingPrice   float64
}

// sanitize coerces NaN and infinities to 0 so they never reach a contract.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}

func parseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "call":
		return OptionTypeCall, nil
	case "p", "put":
		return OptionTypePut, nil
	default:
		return "", fmt.Errorf("parseOptionType: unrecognized option type: %q", s)
	}
}

// ToModel converts a raw row into an OptionContract snapshot as of asOf.
// expirationLayout is the source's date format, e.g. "20060102" for
// ThetaData and "2006-01-02" for Tradier.
func (d *OptionChainRowDTO) ToModel(asOf time.Time, expirationLayout string) (*OptionContract, error) {
	optionType, err := parseOptionType(d.OptionType)
	if err != nil {
		return nil, fmt.Errorf("OptionChainRowDTO: ToModel: %w", err)
	}

	expiration, err := time.Parse(expirationLayout, d.Expiration)
	if err != nil {
		return nil, fmt.Errorf("OptionChainRowDTO: ToModel: failed to parse expiration %q: %w", d.Expiration, err)
	}

	strike := sanitize(d.Strike)

	symbol := d.Symbol
	if symbol == "" {
		symbol = NewOptionSymbol(d.Underlying, expiration, optionType, strike)
	}

	return &OptionContract{
		Symbol:            symbol,
		Underlying:        d.Underlying,
		Strike:            strike,
		Expiration:        expiration,
		OptionType:        optionType,
		Bid:               sanitize(d.Bid),
		Ask:               sanitize(d.Ask),
		Last:              sanitize(d.Last),
		Volume:            int(sanitize(d.Volume)),
		OpenInterest:      int(sanitize(d.OpenInterest)),
		ImpliedVolatility: sanitize(d.ImpliedVolatility),
		Delta:             sanitize(d.Delta),
		Gamma:             sanitize(d.Gamma),
		Theta:             sanitize(d.Theta),
		Vega:              sanitize(d.Vega),
		UnderlyingPrice:   sanitize(d.UnderlyingPrice),
		AsOf:              asOf,
	}, nil
}
