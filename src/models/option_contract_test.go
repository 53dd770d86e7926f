package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionContractMidPrice(t *testing.T) {
	t.Run("two sided quote", func(t *testing.T) {
		c := OptionContract{Bid: 1.00, Ask: 1.20, Last: 5.00}
		assert.InDelta(t, 1.10, c.MidPrice(), 1e-9)
	})

	t.Run("falls back to last", func(t *testing.T) {
		c := OptionContract{Bid: 0, Ask: 1.20, Last: 1.15}
		assert.InDelta(t, 1.15, c.MidPrice(), 1e-9)
	})
}

func TestOptionContractMoneyness(t *testing.T) {
	t.Run("call is strike over spot", func(t *testing.T) {
		c := OptionContract{OptionType: OptionTypeCall, Strike: 105, UnderlyingPrice: 100}
		assert.InDelta(t, 1.05, c.Moneyness(), 1e-9)
	})

	t.Run("put is spot over strike", func(t *testing.T) {
		c := OptionContract{OptionType: OptionTypePut, Strike: 95, UnderlyingPrice: 100}
		assert.InDelta(t, 100.0/95.0, c.Moneyness(), 1e-9)
	})

	t.Run("zero on missing inputs", func(t *testing.T) {
		c := OptionContract{OptionType: OptionTypeCall, Strike: 105}
		assert.Zero(t, c.Moneyness())
	})
}

func TestOptionContractSpreadPct(t *testing.T) {
	c := OptionContract{Bid: 1.00, Ask: 1.50}
	assert.InDelta(t, 0.50/1.25, c.SpreadPct(), 1e-9)

	unquoted := OptionContract{}
	assert.True(t, math.IsInf(unquoted.SpreadPct(), 1))
}

func TestNewOptionSymbol(t *testing.T) {
	expiration := time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "SPY240216C00105000", NewOptionSymbol("SPY", expiration, OptionTypeCall, 105))
	assert.Equal(t, "SPY240216P00092500", NewOptionSymbol("SPY", expiration, OptionTypePut, 92.5))
}

func TestOptionChainRowDTOToModel(t *testing.T) {
	asOf := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	row := OptionChainRowDTO{
		Underlying:        "SPY",
		Strike:            105,
		Expiration:        "20240216",
		OptionType:        "C",
		Bid:               1.00,
		Ask:               1.10,
		Volume:            250,
		OpenInterest:      1200,
		ImpliedVolatility: 0.21,
		Delta:             0.35,
		UnderlyingPrice:   100,
	}

	t.Run("converts a clean row", func(t *testing.T) {
		contract, err := row.ToModel(asOf, "20060102")
		require.NoError(t, err)

		assert.Equal(t, "SPY240216C00105000", contract.Symbol)
		assert.Equal(t, OptionTypeCall, contract.OptionType)
		assert.Equal(t, time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC), contract.Expiration)
		assert.Equal(t, 250, contract.Volume)
		assert.Equal(t, asOf, contract.AsOf)
	})

	t.Run("coerces NaN to zero", func(t *testing.T) {
		dirty := row
		dirty.Bid = math.NaN()
		dirty.ImpliedVolatility = math.Inf(1)

		contract, err := dirty.ToModel(asOf, "20060102")
		require.NoError(t, err)
		assert.Zero(t, contract.Bid)
		assert.Zero(t, contract.ImpliedVolatility)
	})

	t.Run("keeps a source-supplied symbol", func(t *testing.T) {
		named := row
		named.Symbol = "SPY   240216C00105000"

		contract, err := named.ToModel(asOf, "20060102")
		require.NoError(t, err)
		assert.Equal(t, "SPY   240216C00105000", contract.Symbol)
	})

	t.Run("rejects an unknown option type", func(t *testing.T) {
		bad := row
		bad.OptionType = "straddle"

		_, err := bad.ToModel(asOf, "20060102")
		assert.Error(t, err)
	})

	t.Run("rejects a malformed expiration", func(t *testing.T) {
		bad := row
		bad.Expiration = "02/16/2024"

		_, err := bad.ToModel(asOf, "20060102")
		assert.Error(t, err)
	})
}
