package models

type TradierGreeksDTO struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
	MidIv float64 `json:"mid_iv"`
}

type TradierOptionDTO struct {
	Symbol         string            `json:"symbol"`
	Underlying     string            `json:"underlying"`
	Strike         float64           `json:"strike"`
	ExpirationDate string            `json:"expiration_date"`
	OptionType     string            `json:"option_type"`
	Bid            float64           `json:"bid"`
	Ask            float64           `json:"ask"`
	Last           float64           `json:"last"`
	Volume         int               `json:"volume"`
	OpenInterest   int               `json:"open_interest"`
	Greeks         *TradierGreeksDTO `json:"greeks"`
}

type TradierOptionChainDTO struct {
	Options struct {
		Option []TradierOptionDTO `json:"option"`
	} `json:"options"`
}

type TradierExpirationsDTO struct {
	Expirations struct {
		Date []string `json:"date"`
	} `json:"expirations"`
}

type TradierUnderlyingQuoteDTO struct {
	Quotes struct {
		Quote struct {
			Symbol string  `json:"symbol"`
			Last   float64 `json:"last"`
			Bid    float64 `json:"bid"`
			Ask    float64 `json:"ask"`
		} `json:"quote"`
	} `json:"quotes"`
}

// ToRow normalizes one Tradier chain entry. Contracts without a greeks
// block keep zero greeks and are handled by the moneyness strike-selection
// fallback downstream.
func (d *TradierOptionDTO) ToRow(underlyingPrice float64) OptionChainRowDTO {
	row := OptionChainRowDTO{
		Symbol:          d.Symbol,
		Underlying:      d.Underlying,
		Strike:          d.Strike,
		Expiration:      d.ExpirationDate,
		OptionType:      d.OptionType,
		Bid:             d.Bid,
		Ask:             d.Ask,
		Last:            d.Last,
		Volume:          float64(d.Volume),
		OpenInterest:    float64(d.OpenInterest),
		UnderlyingPrice: underlyingPrice,
	}

	if d.Greeks != nil {
		row.Delta = d.Greeks.Delta
		row.Gamma = d.Greeks.Gamma
		row.Theta = d.Greeks.Theta
		row.Vega = d.Greeks.Vega
		row.ImpliedVolatility = d.Greeks.MidIv
	}

	return row
}
