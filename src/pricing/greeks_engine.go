package pricing

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/spread-trading/src/models"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// EnhancedGreeks carries surface-derived Greeks plus the vol and theoretical
// price used to compute them.
type EnhancedGreeks struct {
	models.Greeks
	ImpliedVol       float64
	TheoreticalPrice float64
}

// RiskMetrics classifies a portfolio's exposures and scores them 0-100.
type RiskMetrics struct {
	DeltaExposure RiskLevel
	GammaExposure RiskLevel
	VegaExposure  RiskLevel
	RiskScore     float64
}

// PriceImpact is one second-order Taylor stress scenario.
type PriceImpact struct {
	PriceChangePct float64
	PnL            float64
}

// GreeksEngine orchestrates the volatility surface and the Black-Scholes
// calculator to produce per-contract and per-portfolio Greeks. Construct one
// per backtest; the surface must be refreshed once per new chain.
type GreeksEngine struct {
	riskFreeRate float64
	surface      *VolatilitySurface
}

func NewGreeksEngine(riskFreeRate float64) *GreeksEngine {
	return &GreeksEngine{
		riskFreeRate: riskFreeRate,
	}
}

// UpdateVolatilitySurface rebuilds the surface from a fresh chain. On
// failure the previous surface is discarded so stale vols are never reused;
// Greeks queries then run on the flat fallback vol.
func (e *GreeksEngine) UpdateVolatilitySurface(contracts []*models.OptionContract) error {
	surface, err := BuildVolatilitySurface(contracts)
	if err != nil {
		e.surface = nil
		log.Warnf("GreeksEngine: UpdateVolatilitySurface: %v; falling back to flat %.0f%% vol", err, DefaultVol*100)
		return err
	}

	e.surface = surface
	return nil
}

func (e *GreeksEngine) HasSurface() bool {
	return e.surface != nil
}

// CalculateEnhancedGreeks prices one contract off the surface vol. An
// expired contract yields all zeros.
func (e *GreeksEngine) CalculateEnhancedGreeks(contract *models.OptionContract, spot float64) EnhancedGreeks {
	return e.enhancedGreeksAt(contract, spot, contract.DaysToExpiration()/365.0)
}

func (e *GreeksEngine) enhancedGreeksAt(contract *models.OptionContract, spot, timeToExpiry float64) EnhancedGreeks {
	if timeToExpiry <= 0 {
		return EnhancedGreeks{}
	}

	iv := e.surface.GetIV(contract.Strike, timeToExpiry, spot)

	return EnhancedGreeks{
		Greeks:           CalcGreeks(spot, contract.Strike, timeToExpiry, e.riskFreeRate, iv, contract.OptionType),
		ImpliedVol:       iv,
		TheoreticalPrice: Price(spot, contract.Strike, timeToExpiry, e.riskFreeRate, iv, contract.OptionType),
	}
}

// CalculatePortfolioGreeks aggregates leg Greeks linearly by signed
// quantity, with each leg's time to expiry measured from asOf.
func (e *GreeksEngine) CalculatePortfolioGreeks(legs []*models.OptionPosition, spot float64, asOf time.Time) models.Greeks {
	var total models.Greeks
	for _, leg := range legs {
		timeToExpiry := leg.Contract.Expiration.Sub(asOf).Hours() / 24.0 / 365.0
		enhanced := e.enhancedGreeksAt(leg.Contract, spot, timeToExpiry)
		total = total.Add(enhanced.Greeks.Scale(float64(leg.Quantity)))
	}

	return total
}

// AnalyzeRiskMetrics buckets delta/gamma/vega exposure and emits a 0-100
// composite score weighted 40/30/30.
func (e *GreeksEngine) AnalyzeRiskMetrics(portfolio models.Greeks) RiskMetrics {
	absDelta := math.Abs(portfolio.Delta)
	absGamma := math.Abs(portfolio.Gamma)
	absVega := math.Abs(portfolio.Vega)

	deltaExposure := RiskLow
	if absDelta > 10 {
		deltaExposure = RiskMedium
	}
	if absDelta > 50 {
		deltaExposure = RiskHigh
	}

	gammaExposure := RiskLow
	if absGamma > 25 {
		gammaExposure = RiskMedium
	}
	if absGamma > 50 {
		gammaExposure = RiskHigh
	}

	vegaExposure := RiskLow
	if absVega > 50 {
		vegaExposure = RiskMedium
	}
	if absVega > 100 {
		vegaExposure = RiskHigh
	}

	score := math.Min(absDelta/50.0*40.0, 40.0) +
		math.Min(absGamma/100.0*30.0, 30.0) +
		math.Min(absVega/200.0*30.0, 30.0)

	return RiskMetrics{
		DeltaExposure: deltaExposure,
		GammaExposure: gammaExposure,
		VegaExposure:  vegaExposure,
		RiskScore:     score,
	}
}

// SimulatePriceImpact applies a second-order Taylor expansion plus one day
// of theta per scenario. This is deliberately a cheap approximation, not a
// full repricing.
func (e *GreeksEngine) SimulatePriceImpact(portfolio models.Greeks, priceChangesPct []float64) []PriceImpact {
	impacts := make([]PriceImpact, 0, len(priceChangesPct))
	for _, change := range priceChangesPct {
		pnl := portfolio.Delta*change + 0.5*portfolio.Gamma*change*change + portfolio.Theta

		impacts = append(impacts, PriceImpact{
			PriceChangePct: change,
			PnL:            pnl,
		})
	}

	return impacts
}
