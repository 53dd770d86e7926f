package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/spread-trading/src/models"
)

func newSurfaceContract(strike, iv, spot float64, asOf time.Time, dte int) *models.OptionContract {
	return &models.OptionContract{
		Underlying:        "SPY",
		Strike:            strike,
		Expiration:        asOf.AddDate(0, 0, dte),
		OptionType:        models.OptionTypeCall,
		ImpliedVolatility: iv,
		UnderlyingPrice:   spot,
		AsOf:              asOf,
	}
}

func TestBuildVolatilitySurface(t *testing.T) {
	asOf := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("fails below minimum point count", func(t *testing.T) {
		var contracts []*models.OptionContract
		for i := 0; i < MinSurfacePoints-1; i++ {
			contracts = append(contracts, newSurfaceContract(100+float64(i), 0.22, 100, asOf, 30))
		}

		surface, err := BuildVolatilitySurface(contracts)
		assert.Error(t, err)
		assert.Nil(t, surface)
	})

	t.Run("unusable quotes do not count toward the minimum", func(t *testing.T) {
		var contracts []*models.OptionContract
		for i := 0; i < MinSurfacePoints; i++ {
			c := newSurfaceContract(100+float64(i), 0.22, 100, asOf, 30)
			c.ImpliedVolatility = 0
			contracts = append(contracts, c)
		}

		_, err := BuildVolatilitySurface(contracts)
		assert.Error(t, err)
	})

	t.Run("builds from a full chain", func(t *testing.T) {
		var contracts []*models.OptionContract
		for _, dte := range []int{30, 60} {
			for i := 0; i < 6; i++ {
				contracts = append(contracts, newSurfaceContract(95+float64(2*i), 0.20+0.01*float64(i), 100, asOf, dte))
			}
		}

		surface, err := BuildVolatilitySurface(contracts)
		require.NoError(t, err)
		assert.Equal(t, 12, surface.NumPoints())
	})
}

func TestGetIV(t *testing.T) {
	asOf := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("nil surface returns the flat default", func(t *testing.T) {
		var surface *VolatilitySurface
		assert.Equal(t, DefaultVol, surface.GetIV(100, 30.0/365.0, 100))
	})

	t.Run("flat surface reproduces its vol everywhere", func(t *testing.T) {
		var contracts []*models.OptionContract
		for _, dte := range []int{30, 60} {
			for i := 0; i < 6; i++ {
				contracts = append(contracts, newSurfaceContract(90+float64(4*i), 0.25, 100, asOf, dte))
			}
		}

		surface, err := BuildVolatilitySurface(contracts)
		require.NoError(t, err)

		for _, strike := range []float64{80, 95, 100, 110, 130} {
			for _, tte := range []float64{10.0 / 365.0, 45.0 / 365.0, 90.0 / 365.0} {
				assert.InDelta(t, 0.25, surface.GetIV(strike, tte, 100), 1e-9)
			}
		}
	})

	t.Run("interpolates the smile between strikes", func(t *testing.T) {
		var contracts []*models.OptionContract
		ivs := []float64{0.30, 0.26, 0.22, 0.20, 0.22, 0.26}
		for _, dte := range []int{30, 60} {
			for i, iv := range ivs {
				contracts = append(contracts, newSurfaceContract(90+float64(4*i), iv, 100, asOf, dte))
			}
		}

		surface, err := BuildVolatilitySurface(contracts)
		require.NoError(t, err)

		// midway between the 0.22 and 0.20 nodes
		iv := surface.GetIV(100, 30.0/365.0, 100)
		assert.InDelta(t, 0.21, iv, 1e-9)
	})

	t.Run("queries beyond the smile clamp to the edge", func(t *testing.T) {
		var contracts []*models.OptionContract
		for _, dte := range []int{30, 60} {
			for i := 0; i < 6; i++ {
				contracts = append(contracts, newSurfaceContract(95+float64(2*i), 0.20+0.02*float64(i), 100, asOf, dte))
			}
		}

		surface, err := BuildVolatilitySurface(contracts)
		require.NoError(t, err)

		assert.InDelta(t, 0.20, surface.GetIV(50, 30.0/365.0, 100), 1e-9)
		assert.InDelta(t, 0.30, surface.GetIV(200, 30.0/365.0, 100), 1e-9)
	})

	t.Run("falls back to nearest point when no smile fits", func(t *testing.T) {
		// one contract per expiry: no expiry has the 2 distinct strikes a
		// smile needs, so only the nearest-point tier can answer
		var contracts []*models.OptionContract
		for i := 0; i < MinSurfacePoints; i++ {
			contracts = append(contracts, newSurfaceContract(100, 0.20+0.01*float64(i), 100, asOf, 10+i))
		}

		surface, err := BuildVolatilitySurface(contracts)
		require.NoError(t, err)

		iv := surface.GetIV(100, 10.0/365.0, 100)
		assert.InDelta(t, 0.20, iv, 1e-9)
	})

	t.Run("always within plausible bounds", func(t *testing.T) {
		var contracts []*models.OptionContract
		for _, dte := range []int{7, 30, 90} {
			for i := 0; i < 5; i++ {
				contracts = append(contracts, newSurfaceContract(80+float64(10*i), 0.15+0.05*float64(i), 100, asOf, dte))
			}
		}

		surface, err := BuildVolatilitySurface(contracts)
		require.NoError(t, err)

		for _, strike := range []float64{10, 100, 500} {
			iv := surface.GetIV(strike, 45.0/365.0, 100)
			assert.Greater(t, iv, 0.0)
			assert.LessOrEqual(t, iv, 5.0)
		}
	})
}
