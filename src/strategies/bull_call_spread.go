package strategies

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/spread-trading/src/indicators"
	"github.com/jiaming2012/spread-trading/src/models"
	"github.com/jiaming2012/spread-trading/src/pricing"
)

// SpreadLegs is a validated two-strike candidate set before the position is
// materialized.
type SpreadLegs struct {
	LongCall  *models.OptionContract
	ShortCall *models.OptionContract
}

// EstimatedDebit prices the candidate at executable quotes: the long leg at
// the ask, the short leg at the bid.
func (l *SpreadLegs) EstimatedDebit() float64 {
	return l.LongCall.Ask - l.ShortCall.Bid
}

// BullCallSpreadStrategy buys a call debit spread on pullbacks inside a
// long-term bull regime: close above the 200-day SMA, with a retreat from
// above the 20-day EMA back onto it.
type BullCallSpreadStrategy struct {
	config models.BullCallSpreadConfig
	engine *pricing.GreeksEngine

	sma *indicators.Sma
	ema *indicators.Ema

	smaReady  bool
	smaValue  float64
	emaReady  bool
	emaValue  float64
	havePrev  bool
	prevClose float64
	prevEma   float64
	lastClose float64

	openPositions   []*models.BullCallSpreadPosition
	closedPositions []*models.BullCallSpreadPosition
}

func NewBullCallSpreadStrategy(config models.BullCallSpreadConfig, engine *pricing.GreeksEngine) *BullCallSpreadStrategy {
	return &BullCallSpreadStrategy{
		config: config,
		engine: engine,
		sma:    indicators.NewSma(config.SmaPeriod),
		ema:    indicators.NewEma(config.EmaPeriod),
	}
}

func (s *BullCallSpreadStrategy) OpenPositions() []*models.BullCallSpreadPosition {
	return s.openPositions
}

func (s *BullCallSpreadStrategy) ClosedPositions() []*models.BullCallSpreadPosition {
	return s.closedPositions
}

// UpdateMarketData feeds one daily underlying candle into the regime
// indicators. Call once per date before GenerateSignal.
func (s *BullCallSpreadStrategy) UpdateMarketData(candle models.Candle) {
	if s.emaReady {
		s.havePrev = true
		s.prevClose = s.lastClose
		s.prevEma = s.emaValue
	}

	ready, value, err := s.sma.Update(candle)
	if err != nil {
		log.Warnf("BullCallSpreadStrategy: UpdateMarketData: %v", err)
	} else if ready {
		s.smaReady = true
		s.smaValue = value
	}

	if ready, value := s.ema.Update(candle); ready {
		s.emaReady = true
		s.emaValue = value
	}

	s.lastClose = candle.Close
}

// bullRegime requires the latest close above the long-term moving average.
func (s *BullCallSpreadStrategy) bullRegime() bool {
	return s.smaReady && s.lastClose > s.smaValue
}

// pullback fires when the prior close sat clearly above the EMA and the
// latest close has come back onto it.
func (s *BullCallSpreadStrategy) pullback() bool {
	if !s.havePrev || !s.emaReady {
		return false
	}

	return s.prevClose > 1.001*s.prevEma && s.lastClose <= 1.005*s.emaValue
}

func (s *BullCallSpreadStrategy) openLegs() []*models.OptionPosition {
	var legs []*models.OptionPosition
	for _, pos := range s.openPositions {
		legs = append(legs, pos.Legs()...)
	}

	return legs
}

func (s *BullCallSpreadStrategy) RefreshMarks(chain []*models.OptionContract) {
	refreshLegMarks(s.openLegs(), chain)
}

// GenerateSignal evaluates one date, with close checks taking priority over
// new entries.
func (s *BullCallSpreadStrategy) GenerateSignal(date time.Time, chain []*models.OptionContract, spot float64) models.Signal {
	if err := s.engine.UpdateVolatilitySurface(chain); err != nil {
		log.Debugf("BullCallSpreadStrategy: GenerateSignal: %v", err)
	}

	s.RefreshMarks(chain)

	for _, pos := range s.openPositions {
		if reason, due := s.shouldClose(pos, date); due {
			signal := models.NewSignal(models.SignalClose, date, reason)
			signal.PositionID = pos.ID.String()
			return signal
		}
	}

	if len(s.openPositions) >= s.config.MaxPositions {
		return models.NewSignal(models.SignalHold, date, "max positions reached")
	}

	if !s.bullRegime() {
		return models.NewSignal(models.SignalHold, date, "not in bull regime")
	}

	if !s.pullback() {
		return models.NewSignal(models.SignalHold, date, "no pullback to the short-term average")
	}

	if _, err := s.SelectStrikes(date, chain, spot); err != nil {
		log.Debugf("BullCallSpreadStrategy: GenerateSignal: no entry: %v", err)
		return models.NewSignal(models.SignalHold, date, "entry criteria not met")
	}

	return models.NewSignal(models.SignalOpen, date, "bull regime pullback entry")
}

// SelectStrikes finds a long call near the target long delta (ATM) and a
// short call near the target short delta (OTM), both at the target DTE,
// with the short strike strictly above the long and the estimated debit
// inside the configured window.
func (s *BullCallSpreadStrategy) SelectStrikes(date time.Time, chain []*models.OptionContract, spot float64) (*SpreadLegs, error) {
	if spot <= 0 {
		return nil, fmt.Errorf("SelectStrikes: invalid spot %.2f", spot)
	}

	expiration, err := findExpirationNearDTE(chain, date, s.config.TargetDTE, s.config.DTETolerance)
	if err != nil {
		return nil, fmt.Errorf("SelectStrikes: %w", err)
	}

	calls := filterByTypeAndExpiration(chain, models.OptionTypeCall, expiration)

	longCall, err := selectStrike(calls, s.config.LongCallDelta, bullCallFallbackMoneyness(s.config.LongCallDelta), spot)
	if err != nil {
		return nil, fmt.Errorf("SelectStrikes: long call: %w", err)
	}

	var shortCandidates []*models.OptionContract
	for _, c := range calls {
		if c.Strike > longCall.Strike {
			shortCandidates = append(shortCandidates, c)
		}
	}

	shortCall, err := selectStrike(shortCandidates, s.config.ShortCallDelta, bullCallFallbackMoneyness(s.config.ShortCallDelta), spot)
	if err != nil {
		return nil, fmt.Errorf("SelectStrikes: short call: %w", err)
	}

	legs := &SpreadLegs{
		LongCall:  longCall,
		ShortCall: shortCall,
	}

	for _, leg := range []*models.OptionContract{longCall, shortCall} {
		if !passesLegQuality(leg, s.config.MaxBidAskSpreadPct, s.config.MinOpenInterest, s.config.MinVolume) {
			return nil, fmt.Errorf("SelectStrikes: leg %s failed quality checks", leg.Symbol)
		}
	}

	debit := legs.EstimatedDebit()
	if debit < s.config.MinNetDebit || debit > s.config.MaxNetDebit {
		return nil, fmt.Errorf("SelectStrikes: debit %.2f outside [%.2f, %.2f]", debit, s.config.MinNetDebit, s.config.MaxNetDebit)
	}

	return legs, nil
}

// CreatePosition materializes a spread from the current chain: the long leg
// filled at the ask, the short leg at the bid.
func (s *BullCallSpreadStrategy) CreatePosition(date time.Time, chain []*models.OptionContract, spot float64) *models.BullCallSpreadPosition {
	legs, err := s.SelectStrikes(date, chain, spot)
	if err != nil {
		log.Errorf("BullCallSpreadStrategy: CreatePosition: %v", err)
		return nil
	}

	size := s.config.PositionSize

	longCall := models.NewOptionPosition(legs.LongCall, size, legs.LongCall.Ask, date)
	shortCall := models.NewOptionPosition(legs.ShortCall, -size, legs.ShortCall.Bid, date)

	position, err := models.NewBullCallSpreadPosition(longCall, shortCall, date, spot, size)
	if err != nil {
		log.Errorf("BullCallSpreadStrategy: CreatePosition: %v", err)
		return nil
	}

	s.openPositions = append(s.openPositions, position)

	log.Infof("BullCallSpreadStrategy: CreatePosition: opened spread %s: %.0f/%.0f, debit %.2f, breakeven %.2f",
		position.ID, position.LongCall.Contract.Strike, position.ShortCall.Contract.Strike,
		position.NetDebit, position.Breakeven)

	return position
}

func (s *BullCallSpreadStrategy) shouldClose(position *models.BullCallSpreadPosition, date time.Time) (string, bool) {
	dte := position.DaysToExpiration(date)
	if dte <= float64(s.config.MinDTEClose) {
		return fmt.Sprintf("%.0f DTE at or below close floor %d", dte, s.config.MinDTEClose), true
	}

	pnl := position.PnL()
	debitPaid := position.NetDebit * models.ContractMultiplier * float64(position.Quantity)

	if pnl >= s.config.ProfitTarget*debitPaid {
		return fmt.Sprintf("profit target hit: pnl %.2f on debit %.2f", pnl, debitPaid), true
	}

	if pnl <= -s.config.StopLoss*debitPaid {
		return fmt.Sprintf("stop loss hit: pnl %.2f on debit %.2f", pnl, debitPaid), true
	}

	return "", false
}

// ClosePosition settles a position at current marks and moves it to the
// closed set.
func (s *BullCallSpreadStrategy) ClosePosition(positionID string, date time.Time, reason string) (*models.BullCallSpreadPosition, error) {
	for i, pos := range s.openPositions {
		if pos.ID.String() != positionID {
			continue
		}

		pos.CloseAll(date, reason)

		s.openPositions = append(s.openPositions[:i], s.openPositions[i+1:]...)
		s.closedPositions = append(s.closedPositions, pos)

		log.Infof("BullCallSpreadStrategy: ClosePosition: closed %s (%s), pnl %.2f", pos.ID, reason, pos.PnL())

		return pos, nil
	}

	return nil, fmt.Errorf("ClosePosition: no open position %s", positionID)
}

func (s *BullCallSpreadStrategy) GetStrategyPerformance() Performance {
	pnls := make([]float64, 0, len(s.closedPositions))
	for _, pos := range s.closedPositions {
		pnls = append(pnls, pos.PnL())
	}

	return computePerformance(pnls, len(s.openPositions))
}
