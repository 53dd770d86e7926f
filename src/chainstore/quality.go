package chainstore

import (
	"math"

	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/spread-trading/src/models"
)

const (
	maxSpreadPct = 0.50
	maxIV        = 5.0

	minLiquidityVolume       = 10
	minLiquidityOpenInterest = 5

	// Contracts this close to expiration are exempt from the liquidity
	// filter: short-dated series routinely print zero volume early in the
	// session.
	shortDatedExemptionDays = 7
)

// QualityReport summarizes one validation pass over a raw chain.
type QualityReport struct {
	TotalContracts    int
	RetainedContracts int
	ZeroBidPct        float64
	ZeroIVPct         float64
	WideSpreadPct     float64
	AvgVolume         float64
	TotalOpenInterest int
	QualityScore      float64
}

// ValidateDataQuality drops unusable contracts and scores the chain 0-100.
// Rules: bid or ask <= 0; spread wider than 50% of mid; illiquid (volume
// < 10 and open interest < 5) unless within 7 days of expiration; IV <= 0
// or above 500%.
func ValidateDataQuality(contracts []*models.OptionContract) ([]*models.OptionContract, QualityReport) {
	report := QualityReport{TotalContracts: len(contracts)}
	if len(contracts) == 0 {
		return nil, report
	}

	var retained []*models.OptionContract
	var zeroBid, zeroIV, wideSpread int
	var volumes []float64

	for _, c := range contracts {
		volumes = append(volumes, float64(c.Volume))
		report.TotalOpenInterest += c.OpenInterest

		badQuote := c.Bid <= 0 || c.Ask <= 0
		if badQuote {
			zeroBid++
		}

		badIV := c.ImpliedVolatility <= 0 || c.ImpliedVolatility > maxIV
		if badIV {
			zeroIV++
		}

		badSpread := !badQuote && c.SpreadPct() > maxSpreadPct
		if badSpread {
			wideSpread++
		}

		if badQuote || badIV || badSpread {
			continue
		}

		if c.Volume < minLiquidityVolume && c.OpenInterest < minLiquidityOpenInterest &&
			c.DaysToExpiration() > shortDatedExemptionDays {
			continue
		}

		retained = append(retained, c)
	}

	total := float64(len(contracts))
	report.RetainedContracts = len(retained)
	report.ZeroBidPct = float64(zeroBid) / total * 100.0
	report.ZeroIVPct = float64(zeroIV) / total * 100.0
	report.WideSpreadPct = float64(wideSpread) / total * 100.0

	if avg, err := stats.Mean(volumes); err == nil {
		report.AvgVolume = avg
	}

	report.QualityScore = qualityScore(report.ZeroBidPct, report.ZeroIVPct, report.WideSpreadPct)

	log.Infof("ValidateDataQuality: retained %d of %d contracts (%.1f%%), quality score %.1f",
		report.RetainedContracts, report.TotalContracts,
		float64(report.RetainedContracts)/total*100.0, report.QualityScore)

	return retained, report
}

// qualityScore is 100 minus capped penalties for missing quotes, missing
// vols, and wide spreads, floored at 0.
func qualityScore(zeroBidPct, zeroIVPct, wideSpreadPct float64) float64 {
	score := 100.0 -
		math.Min(zeroBidPct, 50.0) -
		math.Min(2.0*zeroIVPct, 30.0) -
		math.Min(wideSpreadPct/2.0, 20.0)

	if score < 0 {
		return 0
	}

	return score
}
