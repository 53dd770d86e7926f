package strategies

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jiaming2012/spread-trading/src/models"
)

// deltaUsableThreshold separates real greeks from the all-zero placeholders
// many discount feeds ship. When every candidate delta is inside this band
// strike selection falls back to moneyness targeting.
const deltaUsableThreshold = 0.01

func filterByTypeAndExpiration(chain []*models.OptionContract, optionType models.OptionType, expiration time.Time) []*models.OptionContract {
	var out []*models.OptionContract
	for _, c := range chain {
		if c.OptionType == optionType && c.Expiration.Equal(expiration) {
			out = append(out, c)
		}
	}

	return out
}

// findExpirationNearDTE picks the chain expiration closest to the target
// DTE, within tolerance days.
func findExpirationNearDTE(chain []*models.OptionContract, date time.Time, targetDTE, toleranceDays int) (time.Time, error) {
	seen := make(map[time.Time]bool)
	var expirations []time.Time
	for _, c := range chain {
		if !seen[c.Expiration] {
			seen[c.Expiration] = true
			expirations = append(expirations, c.Expiration)
		}
	}

	sort.Slice(expirations, func(i, j int) bool {
		return expirations[i].Before(expirations[j])
	})

	best := time.Time{}
	bestDiff := math.Inf(1)
	for _, expiration := range expirations {
		dte := expiration.Sub(date).Hours() / 24.0
		diff := math.Abs(dte - float64(targetDTE))
		if diff < bestDiff {
			bestDiff = diff
			best = expiration
		}
	}

	if best.IsZero() || bestDiff > float64(toleranceDays) {
		return time.Time{}, fmt.Errorf("findExpirationNearDTE: no expiration within %d days of %d DTE", toleranceDays, targetDTE)
	}

	return best, nil
}

func allDeltasUnusable(candidates []*models.OptionContract) bool {
	for _, c := range candidates {
		if math.Abs(c.Delta) > deltaUsableThreshold {
			return false
		}
	}

	return true
}

// selectStrike picks the candidate nearest the target delta, falling back
// to moneyness targeting when the feed's deltas are unusable. Moneyness is
// measured strike/spot for both rights so a single target maps above
// (calls) or below (puts) the spot.
func selectStrike(candidates []*models.OptionContract, targetDelta, fallbackMoneyness, spot float64) (*models.OptionContract, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("selectStrike: no candidates")
	}

	if allDeltasUnusable(candidates) {
		return selectStrikeByMoneyness(candidates, fallbackMoneyness, spot)
	}

	var best *models.OptionContract
	bestDiff := math.Inf(1)
	for _, c := range candidates {
		diff := math.Abs(c.Delta - targetDelta)
		if diff < bestDiff {
			bestDiff = diff
			best = c
		}
	}

	return best, nil
}

func selectStrikeByMoneyness(candidates []*models.OptionContract, targetMoneyness, spot float64) (*models.OptionContract, error) {
	if spot <= 0 {
		return nil, fmt.Errorf("selectStrikeByMoneyness: invalid spot %.2f", spot)
	}

	var best *models.OptionContract
	bestDiff := math.Inf(1)
	for _, c := range candidates {
		diff := math.Abs(c.Strike/spot - targetMoneyness)
		if diff < bestDiff {
			bestDiff = diff
			best = c
		}
	}

	if best == nil {
		return nil, fmt.Errorf("selectStrikeByMoneyness: no candidates")
	}

	return best, nil
}

// condorFallbackMoneyness maps a short-leg target delta to a moneyness
// target: 1 + sign(delta)*|delta|*0.5.
func condorFallbackMoneyness(targetDelta float64) float64 {
	sign := 1.0
	if targetDelta < 0 {
		sign = -1.0
	}

	return 1.0 + sign*math.Abs(targetDelta)*0.5
}

// bullCallFallbackMoneyness maps a call target delta to a moneyness target:
// 1 + (0.5-delta)*0.4, so 0.50 delta lands at-the-money and 0.30 delta
// lands out-of-the-money.
func bullCallFallbackMoneyness(targetDelta float64) float64 {
	return 1.0 + (0.5-targetDelta)*0.4
}

// findByStrike locates the contract at an exact strike, used for the
// protective wings.
func findByStrike(candidates []*models.OptionContract, strike float64) (*models.OptionContract, error) {
	for _, c := range candidates {
		if math.Abs(c.Strike-strike) < 1e-6 {
			return c, nil
		}
	}

	return nil, fmt.Errorf("findByStrike: no contract at strike %.2f", strike)
}

// passesLegQuality applies the per-leg execution quality checks.
func passesLegQuality(c *models.OptionContract, maxSpreadPct float64, minOpenInterest, minVolume int) bool {
	if c.Bid <= 0 || c.Ask <= 0 {
		return false
	}

	if c.SpreadPct() > maxSpreadPct {
		return false
	}

	if c.OpenInterest < minOpenInterest {
		return false
	}

	if c.Volume < minVolume {
		return false
	}

	return true
}

// refreshLegMarks replaces each open leg's mark with the latest quote for
// its contract symbol, when present in the chain.
func refreshLegMarks(legs []*models.OptionPosition, chain []*models.OptionContract) {
	bySymbol := make(map[string]*models.OptionContract, len(chain))
	for _, c := range chain {
		bySymbol[c.Symbol] = c
	}

	for _, leg := range legs {
		if !leg.IsOpen() {
			continue
		}

		if c, ok := bySymbol[leg.Contract.Symbol]; ok {
			leg.UpdateMark(models.NewMarkFromContract(c))
		}
	}
}
