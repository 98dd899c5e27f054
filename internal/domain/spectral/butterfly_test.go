package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "sedcat-backend/pkg/errors"
)

func TestEvaluate(t *testing.T) {
	t.Run("returns one non-negative flux per grid point", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.5, 1.0)
		require.NoError(t, err)

		for _, n := range []int{2, 10, 100, 1000} {
			grid, err := Grid(0.1, 50.0, n)
			require.NoError(t, err)

			flux, err := Evaluate(m, grid)
			require.NoError(t, err)
			require.Len(t, flux, n)

			for i, f := range flux {
				assert.GreaterOrEqual(t, f, 0.0, "index %d", i)
				assert.False(t, math.IsNaN(f) || math.IsInf(f, 0), "index %d", i)
			}
		}
	})

	t.Run("rejects an empty grid", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.5, 1.0)
		require.NoError(t, err)

		_, err = Evaluate(m, nil)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("rejects a non-increasing grid", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.5, 1.0)
		require.NoError(t, err)

		_, err = Evaluate(m, []float64{1, 2, 2, 3})
		assert.True(t, appErrors.IsValidation(err))

		_, err = Evaluate(m, []float64{1, 0.5})
		assert.True(t, appErrors.IsValidation(err))
	})
}

func TestButterfly(t *testing.T) {
	t.Run("propagates a diagonal covariance exactly", func(t *testing.T) {
		const amplitude, sigmaA = 1e-11, 1e-12
		m, err := NewPowerLaw(amplitude, 2.0, 1.0)
		require.NoError(t, err)
		require.NoError(t, m.SetCovariance([][]float64{
			{sigmaA * sigmaA, 0},
			{0, 0.04},
		}))

		// At the reference energy the index gradient vanishes, so the
		// one-sigma width is exactly the amplitude uncertainty.
		band, err := Butterfly(m, []float64{0.5, 1.0, 2.0})
		require.NoError(t, err)
		require.Equal(t, 3, band.Len())

		assert.InEpsilon(t, amplitude-sigmaA, band.Lower[1], 1e-9)
		assert.InEpsilon(t, amplitude+sigmaA, band.Upper[1], 1e-9)
	})

	t.Run("orders bounds around the central curve", func(t *testing.T) {
		m, err := NewExpCutoffPowerLaw(1.16e-11, 1.36, 13.9, 1.0)
		require.NoError(t, err)
		require.NoError(t, m.SetCovariance([][]float64{
			{4e-25, 0, 0},
			{0, 0.01, 0},
			{0, 0, 1e-4},
		}))

		grid, err := Grid(0.75, 60.0, 100)
		require.NoError(t, err)

		band, err := Butterfly(m, grid)
		require.NoError(t, err)

		for i := range grid {
			assert.LessOrEqual(t, band.Lower[i], band.Flux[i], "index %d", i)
			assert.GreaterOrEqual(t, band.Upper[i], band.Flux[i], "index %d", i)
			assert.GreaterOrEqual(t, band.Lower[i], 0.0, "index %d", i)
		}
	})

	t.Run("collapses onto the central curve without covariance", func(t *testing.T) {
		m, err := NewLogParabola(8e-12, 2.25, 0.15, 1.0)
		require.NoError(t, err)

		grid, err := Grid(0.01, 2.0, 25)
		require.NoError(t, err)

		band, err := Butterfly(m, grid)
		require.NoError(t, err)

		assert.Equal(t, band.Flux, band.Lower)
		assert.Equal(t, band.Flux, band.Upper)
	})

	t.Run("clamps the lower bound at zero", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.0, 1.0)
		require.NoError(t, err)
		// Amplitude uncertainty far exceeding the amplitude itself.
		require.NoError(t, m.SetCovariance([][]float64{
			{1e-20, 0},
			{0, 0},
		}))

		band, err := Butterfly(m, []float64{1.0})
		require.NoError(t, err)
		assert.Equal(t, 0.0, band.Lower[0])
	})
}
