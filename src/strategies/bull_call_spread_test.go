package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/spread-trading/src/models"
	"github.com/jiaming2012/spread-trading/src/pricing"
)

// short indicator periods keep the regime fixtures small
func newTestSpreadConfig() models.BullCallSpreadConfig {
	config := models.NewDefaultBullCallSpreadConfig()
	config.SmaPeriod = 3
	config.EmaPeriod = 2
	return config
}

func newTestSpreadStrategy(config models.BullCallSpreadConfig) *BullCallSpreadStrategy {
	return NewBullCallSpreadStrategy(config, pricing.NewGreeksEngine(config.RiskFreeRate))
}

func feedCloses(s *BullCallSpreadStrategy, date time.Time, closes ...float64) {
	for i, close := range closes {
		ts := date.AddDate(0, 0, i-len(closes))
		s.UpdateMarketData(models.NewCandle(ts, close, close, close, close, 1000))
	}
}

func TestBullCallSpreadRegime(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("no regime before the sma warms up", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		feedCloses(strategy, date, 100, 101)
		assert.False(t, strategy.bullRegime())
	})

	t.Run("bull regime with pullback onto the ema", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		feedCloses(strategy, date, 100, 101, 102)

		assert.True(t, strategy.bullRegime())
		assert.True(t, strategy.pullback())
	})

	t.Run("no pullback while extended above the ema", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		feedCloses(strategy, date, 100, 101, 104)

		assert.True(t, strategy.bullRegime())
		assert.False(t, strategy.pullback())
	})

	t.Run("no regime below the sma", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		feedCloses(strategy, date, 104, 102, 96)
		assert.False(t, strategy.bullRegime())
	})
}

func TestBullCallSpreadSelectStrikes(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	expiration := date.AddDate(0, 0, 30)
	chain := testChain(date, expiration)

	t.Run("long near target delta, short above it", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())

		legs, err := strategy.SelectStrikes(date, chain, 100)
		require.NoError(t, err)

		assert.Equal(t, 100.0, legs.LongCall.Strike)
		assert.Equal(t, 105.0, legs.ShortCall.Strike)

		// long at the ask, short at the bid
		assert.InDelta(t, 5.02-1.58, legs.EstimatedDebit(), 1e-9)
	})

	t.Run("rejects a debit outside the window", func(t *testing.T) {
		config := newTestSpreadConfig()
		config.MaxNetDebit = 1.00

		strategy := newTestSpreadStrategy(config)
		_, err := strategy.SelectStrikes(date, chain, 100)
		assert.Error(t, err)
	})

	t.Run("rejects when no strike sits above the long", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())

		var truncated []*models.OptionContract
		for _, c := range chain {
			if c.OptionType == models.OptionTypeCall && c.Strike > 100 {
				continue
			}
			truncated = append(truncated, c)
		}

		_, err := strategy.SelectStrikes(date, truncated, 100)
		assert.Error(t, err)
	})
}

func TestBullCallSpreadCreatePosition(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	chain := testChain(date, date.AddDate(0, 0, 30))
	strategy := newTestSpreadStrategy(newTestSpreadConfig())

	position := strategy.CreatePosition(date, chain, 100)
	require.NotNil(t, position)

	assert.InDelta(t, 3.44, position.NetDebit, 1e-9)
	assert.InDelta(t, 103.44, position.Breakeven, 1e-9)
	assert.InDelta(t, 156.0, position.MaxProfit, 1e-9)
	assert.InDelta(t, 344.0, position.MaxLoss, 1e-9)
	assert.Equal(t, 1, position.LongCall.Quantity)
	assert.Equal(t, -1, position.ShortCall.Quantity)
}

func TestBullCallSpreadGenerateSignal(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	expiration := date.AddDate(0, 0, 30)
	chain := testChain(date, expiration)

	longSym := models.NewOptionSymbol("SPY", expiration, models.OptionTypeCall, 100)
	shortSym := models.NewOptionSymbol("SPY", expiration, models.OptionTypeCall, 105)

	t.Run("holds outside a bull regime", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		feedCloses(strategy, date, 104, 102, 96)

		signal := strategy.GenerateSignal(date, chain, 100)
		assert.Equal(t, models.SignalHold, signal.Type)
	})

	t.Run("holds in regime without a pullback", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		feedCloses(strategy, date, 100, 101, 104)

		signal := strategy.GenerateSignal(date, chain, 100)
		assert.Equal(t, models.SignalHold, signal.Type)
	})

	t.Run("opens on a pullback in regime", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		feedCloses(strategy, date, 100, 101, 102)

		signal := strategy.GenerateSignal(date, chain, 100)
		assert.Equal(t, models.SignalOpen, signal.Type)
	})

	t.Run("profit target closes before any new entry", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		feedCloses(strategy, date, 100, 101, 102)

		position := strategy.CreatePosition(date, chain, 100)
		require.NotNil(t, position)

		next := date.AddDate(0, 0, 1)
		rallied := remarked(chain, next, map[string]float64{longSym: 9.00, shortSym: 2.00})

		signal := strategy.GenerateSignal(next, rallied, 104)
		require.Equal(t, models.SignalClose, signal.Type)
		assert.Equal(t, position.ID.String(), signal.PositionID)
		assert.Contains(t, signal.Reason, "profit target")
	})

	t.Run("stop loss closes", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		require.NotNil(t, strategy.CreatePosition(date, chain, 100))

		next := date.AddDate(0, 0, 1)
		faded := remarked(chain, next, map[string]float64{longSym: 2.50, shortSym: 0.80})

		signal := strategy.GenerateSignal(next, faded, 96)
		require.Equal(t, models.SignalClose, signal.Type)
		assert.Contains(t, signal.Reason, "stop loss")
	})

	t.Run("dte floor closes", func(t *testing.T) {
		strategy := newTestSpreadStrategy(newTestSpreadConfig())
		require.NotNil(t, strategy.CreatePosition(date, chain, 100))

		late := date.AddDate(0, 0, 25) // 5 DTE remaining
		signal := strategy.GenerateSignal(late, remarked(chain, late, nil), 100)
		require.Equal(t, models.SignalClose, signal.Type)
		assert.Contains(t, signal.Reason, "DTE")
	})
}

func TestBullCallSpreadClosePosition(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	chain := testChain(date, date.AddDate(0, 0, 30))
	strategy := newTestSpreadStrategy(newTestSpreadConfig())

	position := strategy.CreatePosition(date, chain, 100)
	require.NotNil(t, position)

	_, err := strategy.ClosePosition("nope", date, "test")
	assert.Error(t, err)

	exitDate := date.AddDate(0, 0, 10)
	closed, err := strategy.ClosePosition(position.ID.String(), exitDate, "manual")
	require.NoError(t, err)

	assert.False(t, closed.IsOpen())
	assert.Empty(t, strategy.OpenPositions())
	require.Len(t, strategy.ClosedPositions(), 1)

	perf := strategy.GetStrategyPerformance()
	assert.Equal(t, 1, perf.TotalTrades)
	assert.Zero(t, perf.OpenPositions)
}
