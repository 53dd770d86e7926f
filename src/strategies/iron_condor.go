package strategies

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/spread-trading/src/models"
	"github.com/jiaming2012/spread-trading/src/pricing"
)

// CondorLegs is a validated four-strike candidate set before the position
// is materialized.
type CondorLegs struct {
	ShortCall *models.OptionContract
	LongCall  *models.OptionContract
	ShortPut  *models.OptionContract
	LongPut   *models.OptionContract
}

// EstimatedCredit prices the candidate at executable quotes: shorts at the
// bid, longs at the ask.
func (l *CondorLegs) EstimatedCredit() float64 {
	return l.ShortCall.Bid + l.ShortPut.Bid - l.LongCall.Ask - l.LongPut.Ask
}

// IronCondorStrategy sells a call spread above and a put spread below the
// spot, managing positions to a profit target, a stop, or a minimum DTE.
type IronCondorStrategy struct {
	config models.IronCondorConfig
	engine *pricing.GreeksEngine

	openPositions   []*models.IronCondorPosition
	closedPositions []*models.IronCondorPosition
}

func NewIronCondorStrategy(config models.IronCondorConfig, engine *pricing.GreeksEngine) *IronCondorStrategy {
	return &IronCondorStrategy{
		config: config,
		engine: engine,
	}
}

func (s *IronCondorStrategy) OpenPositions() []*models.IronCondorPosition {
	return s.openPositions
}

func (s *IronCondorStrategy) ClosedPositions() []*models.IronCondorPosition {
	return s.closedPositions
}

func (s *IronCondorStrategy) openLegs() []*models.OptionPosition {
	var legs []*models.OptionPosition
	for _, pos := range s.openPositions {
		legs = append(legs, pos.Legs()...)
	}

	return legs
}

// RefreshMarks re-marks every open leg from the latest chain snapshot.
func (s *IronCondorStrategy) RefreshMarks(chain []*models.OptionContract) {
	refreshLegMarks(s.openLegs(), chain)
}

// GenerateSignal evaluates one date: refresh the surface and marks, close
// any position that has met a close condition (closes take priority over
// new entries), alert on breached greek ceilings, then consider an open.
func (s *IronCondorStrategy) GenerateSignal(date time.Time, chain []*models.OptionContract, spot float64) models.Signal {
	if err := s.engine.UpdateVolatilitySurface(chain); err != nil {
		log.Debugf("IronCondorStrategy: GenerateSignal: %v", err)
	}

	s.RefreshMarks(chain)

	for _, pos := range s.openPositions {
		if reason, due := s.shouldClose(pos, date); due {
			signal := models.NewSignal(models.SignalClose, date, reason)
			signal.PositionID = pos.ID.String()
			return signal
		}
	}

	if legs := s.openLegs(); len(legs) > 0 && spot > 0 {
		portfolio := s.engine.CalculatePortfolioGreeks(legs, spot, date)

		if math.Abs(portfolio.Delta) > s.config.DeltaCeiling {
			reason := fmt.Sprintf("portfolio delta %.1f beyond ceiling %.1f", portfolio.Delta, s.config.DeltaCeiling)
			log.Warnf("IronCondorStrategy: GenerateSignal: %s", reason)
			return models.NewSignal(models.SignalAlert, date, reason)
		}

		if math.Abs(portfolio.Gamma) > s.config.GammaCeiling {
			reason := fmt.Sprintf("portfolio gamma %.1f beyond ceiling %.1f", portfolio.Gamma, s.config.GammaCeiling)
			log.Warnf("IronCondorStrategy: GenerateSignal: %s", reason)
			return models.NewSignal(models.SignalAlert, date, reason)
		}
	}

	if len(s.openPositions) >= s.config.MaxPositions {
		return models.NewSignal(models.SignalHold, date, "max positions reached")
	}

	if _, err := s.SelectStrikes(date, chain, spot); err != nil {
		log.Debugf("IronCondorStrategy: GenerateSignal: no entry: %v", err)
		return models.NewSignal(models.SignalHold, date, "entry criteria not met")
	}

	return models.NewSignal(models.SignalOpen, date, "entry criteria met")
}

// SelectStrikes finds a four-leg set at the target DTE: short legs near the
// target deltas, long wings exactly wingWidth further out-of-the-money.
// All legs must pass the execution quality checks and the estimated credit
// must clear the premium floor.
func (s *IronCondorStrategy) SelectStrikes(date time.Time, chain []*models.OptionContract, spot float64) (*CondorLegs, error) {
	if spot <= 0 {
		return nil, fmt.Errorf("SelectStrikes: invalid spot %.2f", spot)
	}

	expiration, err := findExpirationNearDTE(chain, date, s.config.TargetDTE, s.config.DTETolerance)
	if err != nil {
		return nil, fmt.Errorf("SelectStrikes: %w", err)
	}

	calls := filterByTypeAndExpiration(chain, models.OptionTypeCall, expiration)
	puts := filterByTypeAndExpiration(chain, models.OptionTypePut, expiration)

	shortCall, err := selectStrike(calls, s.config.ShortCallDelta, condorFallbackMoneyness(s.config.ShortCallDelta), spot)
	if err != nil {
		return nil, fmt.Errorf("SelectStrikes: short call: %w", err)
	}

	shortPut, err := selectStrike(puts, s.config.ShortPutDelta, condorFallbackMoneyness(s.config.ShortPutDelta), spot)
	if err != nil {
		return nil, fmt.Errorf("SelectStrikes: short put: %w", err)
	}

	if !(shortPut.Strike < spot && spot < shortCall.Strike) {
		return nil, fmt.Errorf("SelectStrikes: shorts do not straddle spot: put %.2f, spot %.2f, call %.2f",
			shortPut.Strike, spot, shortCall.Strike)
	}

	longCall, err := findByStrike(calls, shortCall.Strike+s.config.WingWidth)
	if err != nil {
		return nil, fmt.Errorf("SelectStrikes: long call: %w", err)
	}

	longPut, err := findByStrike(puts, shortPut.Strike-s.config.WingWidth)
	if err != nil {
		return nil, fmt.Errorf("SelectStrikes: long put: %w", err)
	}

	legs := &CondorLegs{
		ShortCall: shortCall,
		LongCall:  longCall,
		ShortPut:  shortPut,
		LongPut:   longPut,
	}

	for _, leg := range []*models.OptionContract{shortCall, longCall, shortPut, longPut} {
		if !passesLegQuality(leg, s.config.MaxBidAskSpreadPct, s.config.MinOpenInterest, s.config.MinVolume) {
			return nil, fmt.Errorf("SelectStrikes: leg %s failed quality checks", leg.Symbol)
		}
	}

	credit := legs.EstimatedCredit()
	if credit < s.config.MinPremiumPct*s.config.WingWidth {
		return nil, fmt.Errorf("SelectStrikes: credit %.2f below floor %.2f", credit, s.config.MinPremiumPct*s.config.WingWidth)
	}

	return legs, nil
}

// CreatePosition materializes a condor from the current chain: shorts
// filled at the bid, longs at the ask. Any selection or construction
// failure means no trade today, never a halt.
func (s *IronCondorStrategy) CreatePosition(date time.Time, chain []*models.OptionContract, spot float64) *models.IronCondorPosition {
	legs, err := s.SelectStrikes(date, chain, spot)
	if err != nil {
		log.Errorf("IronCondorStrategy: CreatePosition: %v", err)
		return nil
	}

	size := s.config.PositionSize

	shortCall := models.NewOptionPosition(legs.ShortCall, -size, legs.ShortCall.Bid, date)
	longCall := models.NewOptionPosition(legs.LongCall, size, legs.LongCall.Ask, date)
	shortPut := models.NewOptionPosition(legs.ShortPut, -size, legs.ShortPut.Bid, date)
	longPut := models.NewOptionPosition(legs.LongPut, size, legs.LongPut.Ask, date)

	position, err := models.NewIronCondorPosition(shortCall, longCall, shortPut, longPut, date, spot, size)
	if err != nil {
		log.Errorf("IronCondorStrategy: CreatePosition: %v", err)
		return nil
	}

	s.openPositions = append(s.openPositions, position)

	log.Infof("IronCondorStrategy: CreatePosition: opened condor %s: puts %.0f/%.0f calls %.0f/%.0f, credit %.2f",
		position.ID, position.LongPut.Contract.Strike, position.ShortPut.Contract.Strike,
		position.ShortCall.Contract.Strike, position.LongCall.Contract.Strike, position.NetCredit)

	return position
}

func (s *IronCondorStrategy) shouldClose(position *models.IronCondorPosition, date time.Time) (string, bool) {
	dte := position.DaysToExpiration(date)
	if dte <= float64(s.config.MinDTEClose) {
		return fmt.Sprintf("%.0f DTE at or below close floor %d", dte, s.config.MinDTEClose), true
	}

	pnl := position.PnL()

	if position.MaxProfit > 0 && pnl >= s.config.ProfitTarget*position.MaxProfit {
		return fmt.Sprintf("profit target hit: pnl %.2f of max %.2f", pnl, position.MaxProfit), true
	}

	premiumAtRisk := position.NetCredit * models.ContractMultiplier * float64(position.Quantity)
	if pnl <= -s.config.StopLoss*premiumAtRisk {
		return fmt.Sprintf("stop loss hit: pnl %.2f against premium %.2f", pnl, premiumAtRisk), true
	}

	return "", false
}

// ClosePosition settles a position at current marks and moves it to the
// closed set.
func (s *IronCondorStrategy) ClosePosition(positionID string, date time.Time, reason string) (*models.IronCondorPosition, error) {
	for i, pos := range s.openPositions {
		if pos.ID.String() != positionID {
			continue
		}

		pos.CloseAll(date, reason)

		s.openPositions = append(s.openPositions[:i], s.openPositions[i+1:]...)
		s.closedPositions = append(s.closedPositions, pos)

		log.Infof("IronCondorStrategy: ClosePosition: closed %s (%s), pnl %.2f", pos.ID, reason, pos.PnL())

		return pos, nil
	}

	return nil, fmt.Errorf("ClosePosition: no open position %s", positionID)
}

func (s *IronCondorStrategy) GetStrategyPerformance() Performance {
	pnls := make([]float64, 0, len(s.closedPositions))
	for _, pos := range s.closedPositions {
		pnls = append(pnls, pos.PnL())
	}

	return computePerformance(pnls, len(s.openPositions))
}
