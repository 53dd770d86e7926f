package models

import "fmt"

type ThetaDataResponseHeader struct {
	LatencyMs int      `json:"latency_ms"`
	Format    []string `json:"format"`
}

// ThetaDataContract identifies one contract in a bulk response. Strike is
// quoted in thousandths of a dollar, expiration as yyyymmdd.
type ThetaDataContract struct {
	Root       string  `json:"root"`
	Expiration int     `json:"expiration"`
	Strike     float64 `json:"strike"`
	Right      string  `json:"right"`
}

type ThetaDataBulkItem struct {
	Ticks    [][]float64       `json:"ticks"`
	Contract ThetaDataContract `json:"contract"`
}

// ThetaDataBulkResponse is the envelope for ThetaData bulk historical
// endpoints. Column order is carried in the header format array, so
// consumers resolve indices by name rather than position.
type ThetaDataBulkResponse struct {
	Header   ThetaDataResponseHeader `json:"header"`
	Response []ThetaDataBulkItem     `json:"response"`
}

// HeaderIndex resolves a column name to its tick index, or -1 when the
// source omits the column.
func (r *ThetaDataBulkResponse) HeaderIndex(name string) int {
	for i, v := range r.Header.Format {
		if v == name {
			return i
		}
	}

	return -1
}

// LastTick returns the final tick of the day for a contract, which is the
// end-of-day snapshot for daily-interval requests.
func (item *ThetaDataBulkItem) LastTick() ([]float64, error) {
	if len(item.Ticks) == 0 {
		return nil, fmt.Errorf("ThetaDataBulkItem: LastTick: contract %s %d %s has no ticks",
			item.Contract.Root, item.Contract.Expiration, item.Contract.Right)
	}

	return item.Ticks[len(item.Ticks)-1], nil
}

// TickValue reads one column from a tick, returning 0 for columns the
// source did not provide.
func TickValue(tick []float64, index int) float64 {
	if index < 0 || index >= len(tick) {
		return 0
	}

	return tick[index]
}
