package pricing

import (
	"fmt"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/interp"

	"github.com/jiaming2012/spread-trading/src/models"
)

const (
	// MinSurfacePoints is the smallest usable point cloud: below this the
	// build fails and callers fall back to a flat vol.
	MinSurfacePoints = 10

	// DefaultVol is the flat fallback when no surface exists.
	DefaultVol = 0.20

	maxPlausibleVol = 5.0
)

type surfacePoint struct {
	moneyness float64
	tte       float64
	iv        float64
}

type smile struct {
	tte          float64
	predictor    interp.PiecewiseLinear
	minMoneyness float64
	maxMoneyness float64
}

// VolatilitySurface is an interpolable implied-volatility surface over
// (moneyness, time-to-expiry), built from one chain snapshot. Surfaces are
// rebuilt per chain, never mutated, and never reused across dates.
type VolatilitySurface struct {
	points []surfacePoint
	smiles []smile
}

// BuildVolatilitySurface filters the chain to usable quotes (iv > 0,
// dte > 0, spot > 0) and fits a per-expiry linear smile in moneyness
// (strike/spot). It fails when fewer than MinSurfacePoints quotes survive.
func BuildVolatilitySurface(contracts []*models.OptionContract) (*VolatilitySurface, error) {
	var points []surfacePoint
	for _, c := range contracts {
		dte := c.DaysToExpiration()
		if c.ImpliedVolatility <= 0 || dte <= 0 || c.UnderlyingPrice <= 0 {
			continue
		}

		points = append(points, surfacePoint{
			moneyness: c.Strike / c.UnderlyingPrice,
			tte:       dte / 365.0,
			iv:        c.ImpliedVolatility,
		})
	}

	if len(points) < MinSurfacePoints {
		return nil, fmt.Errorf("BuildVolatilitySurface: %d usable points, need at least %d", len(points), MinSurfacePoints)
	}

	surface := &VolatilitySurface{points: points}

	byExpiry := make(map[float64][]surfacePoint)
	for _, p := range points {
		byExpiry[p.tte] = append(byExpiry[p.tte], p)
	}

	for tte, expiryPoints := range byExpiry {
		s, err := fitSmile(tte, expiryPoints)
		if err != nil {
			log.Debugf("BuildVolatilitySurface: skipping smile at tte=%.4f: %v", tte, err)
			continue
		}

		surface.smiles = append(surface.smiles, s)
	}

	sort.Slice(surface.smiles, func(i, j int) bool {
		return surface.smiles[i].tte < surface.smiles[j].tte
	})

	log.Debugf("BuildVolatilitySurface: built surface with %d points across %d expiries", len(points), len(surface.smiles))

	return surface, nil
}

func fitSmile(tte float64, points []surfacePoint) (smile, error) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].moneyness < points[j].moneyness
	})

	// PiecewiseLinear requires strictly increasing xs; average duplicate
	// moneyness entries (e.g. a call and a put at the same strike).
	var xs, ys []float64
	for i := 0; i < len(points); {
		j := i
		sum := 0.0
		for j < len(points) && points[j].moneyness == points[i].moneyness {
			sum += points[j].iv
			j++
		}

		xs = append(xs, points[i].moneyness)
		ys = append(ys, sum/float64(j-i))
		i = j
	}

	if len(xs) < 2 {
		return smile{}, fmt.Errorf("fitSmile: need at least 2 distinct strikes, have %d", len(xs))
	}

	var predictor interp.PiecewiseLinear
	if err := predictor.Fit(xs, ys); err != nil {
		return smile{}, fmt.Errorf("fitSmile: %w", err)
	}

	return smile{
		tte:          tte,
		predictor:    predictor,
		minMoneyness: xs[0],
		maxMoneyness: xs[len(xs)-1],
	}, nil
}

// GetIV resolves an implied vol for (strike, tte, spot) through three tiers:
// interpolation, nearest observed point, and finally the flat default when
// no surface exists. It always returns a usable vol.
func (s *VolatilitySurface) GetIV(strike, tte, spot float64) float64 {
	if s == nil || len(s.points) == 0 {
		return DefaultVol
	}

	if spot <= 0 {
		return DefaultVol
	}

	moneyness := strike / spot

	iv := s.interpolate(moneyness, tte)
	if math.IsNaN(iv) || iv <= 0 || iv > maxPlausibleVol {
		iv = s.nearest(moneyness, tte)
	}

	if math.IsNaN(iv) || iv <= 0 || iv > maxPlausibleVol {
		return DefaultVol
	}

	return iv
}

func (s *VolatilitySurface) interpolate(moneyness, tte float64) float64 {
	if len(s.smiles) == 0 {
		return math.NaN()
	}

	predict := func(sm smile) float64 {
		m := moneyness
		if m < sm.minMoneyness {
			m = sm.minMoneyness
		}
		if m > sm.maxMoneyness {
			m = sm.maxMoneyness
		}

		return sm.predictor.Predict(m)
	}

	first := s.smiles[0]
	last := s.smiles[len(s.smiles)-1]

	if tte <= first.tte {
		return predict(first)
	}

	if tte >= last.tte {
		return predict(last)
	}

	for i := 1; i < len(s.smiles); i++ {
		lo, hi := s.smiles[i-1], s.smiles[i]
		if tte > hi.tte {
			continue
		}

		weight := (tte - lo.tte) / (hi.tte - lo.tte)
		return predict(lo)*(1-weight) + predict(hi)*weight
	}

	return math.NaN()
}

func (s *VolatilitySurface) nearest(moneyness, tte float64) float64 {
	best := math.Inf(1)
	iv := math.NaN()

	for _, p := range s.points {
		dm := p.moneyness - moneyness
		dt := p.tte - tte
		dist := dm*dm + dt*dt

		if dist < best {
			best = dist
			iv = p.iv
		}
	}

	return iv
}

// NumPoints reports the size of the point cloud backing the surface.
func (s *VolatilitySurface) NumPoints() int {
	if s == nil {
		return 0
	}

	return len(s.points)
}
