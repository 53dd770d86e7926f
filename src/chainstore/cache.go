package chainstore

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/jiaming2012/spread-trading/src/models"
)

const csvTimeLayout = "2006-01-02"

// chainCSVRecord is the on-disk row shape for one cached contract.
type chainCSVRecord struct {
	Symbol            string  `csv:"symbol"`
	Underlying        string  `csv:"underlying"`
	Strike            float64 `csv:"strike"`
	Expiration        string  `csv:"expiration"`
	OptionType        string  `csv:"option_type"`
	Bid               float64 `csv:"bid"`
	Ask               float64 `csv:"ask"`
	Last              float64 `csv:"last"`
	Volume            int     `csv:"volume"`
	OpenInterest      int     `csv:"open_interest"`
	ImpliedVolatility float64 `csv:"implied_volatility"`
	Delta             float64 `csv:"delta"`
	Gamma             float64 `csv:"gamma"`
	Theta             float64 `csv:"theta"`
	Vega              float64 `csv:"vega"`
	UnderlyingPrice   float64 `csv:"underlying_price"`
	AsOf              string  `csv:"as_of"`
}

func newChainCSVRecord(c *models.OptionContract) chainCSVRecord {
	return chainCSVRecord{
		Symbol:            c.Symbol,
		Underlying:        c.Underlying,
		Strike:            c.Strike,
		Expiration:        c.Expiration.Format(csvTimeLayout),
		OptionType:        string(c.OptionType),
		Bid:               c.Bid,
		Ask:               c.Ask,
		Last:              c.Last,
		Volume:            c.Volume,
		OpenInterest:      c.OpenInterest,
		ImpliedVolatility: c.ImpliedVolatility,
		Delta:             c.Delta,
		Gamma:             c.Gamma,
		Theta:             c.Theta,
		Vega:              c.Vega,
		UnderlyingPrice:   c.UnderlyingPrice,
		AsOf:              c.AsOf.Format(csvTimeLayout),
	}
}

func (r *chainCSVRecord) toModel() (*models.OptionContract, error) {
	expiration, err := time.Parse(csvTimeLayout, r.Expiration)
	if err != nil {
		return nil, fmt.Errorf("chainCSVRecord: toModel: failed to parse expiration %q: %w", r.Expiration, err)
	}

	asOf, err := time.Parse(csvTimeLayout, r.AsOf)
	if err != nil {
		return nil, fmt.Errorf("chainCSVRecord: toModel: failed to parse as_of %q: %w", r.AsOf, err)
	}

	return &models.OptionContract{
		Symbol:            r.Symbol,
		Underlying:        r.Underlying,
		Strike:            r.Strike,
		Expiration:        expiration,
		OptionType:        models.OptionType(r.OptionType),
		Bid:               r.Bid,
		Ask:               r.Ask,
		Last:              r.Last,
		Volume:            r.Volume,
		OpenInterest:      r.OpenInterest,
		ImpliedVolatility: r.ImpliedVolatility,
		Delta:             r.Delta,
		Gamma:             r.Gamma,
		Theta:             r.Theta,
		Vega:              r.Vega,
		UnderlyingPrice:   r.UnderlyingPrice,
		AsOf:              asOf,
	}, nil
}

func writeChainFile(path string, contracts []*models.OptionContract) error {
	csvRecords := make([]chainCSVRecord, 0, len(contracts))
	for _, c := range contracts {
		csvRecords = append(csvRecords, newChainCSVRecord(c))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writeChainFile: failed to create %s: %w", path, err)
	}

	defer file.Close()

	if err := gocsv.MarshalFile(&csvRecords, file); err != nil {
		return fmt.Errorf("writeChainFile: failed to marshal %s: %w", path, err)
	}

	return nil
}

func readChainFile(path string) ([]*models.OptionContract, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readChainFile: failed to open %s: %w", path, err)
	}

	defer file.Close()

	var csvRecords []chainCSVRecord
	if err := gocsv.UnmarshalFile(file, &csvRecords); err != nil {
		return nil, fmt.Errorf("readChainFile: failed to unmarshal %s: %w", path, err)
	}

	contracts := make([]*models.OptionContract, 0, len(csvRecords))
	for i := range csvRecords {
		contract, err := csvRecords[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("readChainFile: %w", err)
		}

		contracts = append(contracts, contract)
	}

	return contracts, nil
}
