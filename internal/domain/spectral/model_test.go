package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "sedcat-backend/pkg/errors"
)

func TestPowerLaw(t *testing.T) {
	t.Run("evaluates amplitude at reference energy", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.5, 1.0)
		require.NoError(t, err)

		assert.InEpsilon(t, 1e-11, m.Evaluate(1.0), 1e-12)
	})

	t.Run("falls with energy for positive index", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.0, 1.0)
		require.NoError(t, err)

		// Index 2 means a factor 100 drop per energy decade.
		assert.InEpsilon(t, 1e-13, m.Evaluate(10.0), 1e-9)
	})

	t.Run("rejects non-positive amplitude", func(t *testing.T) {
		_, err := NewPowerLaw(0, 2.0, 1.0)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))

		_, err = NewPowerLaw(-1e-11, 2.0, 1.0)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive reference", func(t *testing.T) {
		_, err := NewPowerLaw(1e-11, 2.0, 0)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})
}

func TestExpCutoffPowerLaw(t *testing.T) {
	t.Run("matches a pure power law well below the cutoff", func(t *testing.T) {
		ecpl, err := NewExpCutoffPowerLaw(1e-11, 2.0, 1000.0, 1.0)
		require.NoError(t, err)
		pl, err := NewPowerLaw(1e-11, 2.0, 1.0)
		require.NoError(t, err)

		assert.InEpsilon(t, pl.Evaluate(0.5), ecpl.Evaluate(0.5), 1e-3)
	})

	t.Run("suppresses flux above the cutoff", func(t *testing.T) {
		ecpl, err := NewExpCutoffPowerLaw(1e-11, 2.0, 1.0, 1.0)
		require.NoError(t, err)
		pl, err := NewPowerLaw(1e-11, 2.0, 1.0)
		require.NoError(t, err)

		// At E = 10 * cutoff the exponential term is e^-10.
		ratio := ecpl.Evaluate(10.0) / pl.Evaluate(10.0)
		assert.InEpsilon(t, math.Exp(-10), ratio, 1e-9)
	})

	t.Run("rejects non-positive cutoff", func(t *testing.T) {
		_, err := NewExpCutoffPowerLaw(1e-11, 2.0, 0, 1.0)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})
}

func TestLogParabola(t *testing.T) {
	t.Run("evaluates amplitude at reference energy", func(t *testing.T) {
		m, err := NewLogParabola(3.2e-11, 2.47, 0.1, 1.0)
		require.NoError(t, err)

		assert.InEpsilon(t, 3.2e-11, m.Evaluate(1.0), 1e-12)
	})

	t.Run("reduces to a power law with zero curvature", func(t *testing.T) {
		lp, err := NewLogParabola(1e-11, 2.3, 0, 1.0)
		require.NoError(t, err)
		pl, err := NewPowerLaw(1e-11, 2.3, 1.0)
		require.NoError(t, err)

		for _, e := range []float64{0.1, 1.0, 5.0, 30.0} {
			assert.InEpsilon(t, pl.Evaluate(e), lp.Evaluate(e), 1e-9, "at %g TeV", e)
		}
	})
}

// TestGradients verifies the analytic gradients against central finite
// differences, since the butterfly depends entirely on them.
func TestGradients(t *testing.T) {
	const h = 1e-6

	checkGradient := func(t *testing.T, grad []float64, numeric []float64) {
		t.Helper()
		require.Len(t, grad, len(numeric))
		for i := range grad {
			assert.InEpsilon(t, numeric[i], grad[i], 1e-4, "component %d", i)
		}
	}

	t.Run("power law", func(t *testing.T) {
		const amplitude, index, energy = 1e-11, 2.3, 3.0

		build := func(a, g float64) float64 {
			m, err := NewPowerLaw(a, g, 1.0)
			require.NoError(t, err)
			return m.Evaluate(energy)
		}

		m, err := NewPowerLaw(amplitude, index, 1.0)
		require.NoError(t, err)

		numeric := []float64{
			(build(amplitude*(1+h), index) - build(amplitude*(1-h), index)) / (2 * h * amplitude),
			(build(amplitude, index+h) - build(amplitude, index-h)) / (2 * h),
		}
		checkGradient(t, m.Gradient(energy), numeric)
	})

	t.Run("exponential cutoff power law", func(t *testing.T) {
		const amplitude, index, cutoff, energy = 1e-11, 1.5, 14.0, 5.0

		m, err := NewExpCutoffPowerLaw(amplitude, index, cutoff, 1.0)
		require.NoError(t, err)

		build := func(a, g, lambda float64) float64 {
			return a * math.Pow(energy, -g) * math.Exp(-lambda*energy)
		}
		lambda := 1 / cutoff

		numeric := []float64{
			(build(amplitude*(1+h), index, lambda) - build(amplitude*(1-h), index, lambda)) / (2 * h * amplitude),
			(build(amplitude, index+h, lambda) - build(amplitude, index-h, lambda)) / (2 * h),
			(build(amplitude, index, lambda+h) - build(amplitude, index, lambda-h)) / (2 * h),
		}
		checkGradient(t, m.Gradient(energy), numeric)
	})

	t.Run("log parabola", func(t *testing.T) {
		const amplitude, alpha, beta, energy = 3.2e-11, 2.47, 0.1, 4.0

		m, err := NewLogParabola(amplitude, alpha, beta, 1.0)
		require.NoError(t, err)

		build := func(a, al, b float64) float64 {
			logE := math.Log(energy)
			return a * math.Exp(-(al+b*logE)*logE)
		}

		numeric := []float64{
			(build(amplitude*(1+h), alpha, beta) - build(amplitude*(1-h), alpha, beta)) / (2 * h * amplitude),
			(build(amplitude, alpha+h, beta) - build(amplitude, alpha-h, beta)) / (2 * h),
			(build(amplitude, alpha, beta+h) - build(amplitude, alpha, beta-h)) / (2 * h),
		}
		checkGradient(t, m.Gradient(energy), numeric)
	})
}

func TestSetCovariance(t *testing.T) {
	t.Run("accepts a symmetric matrix", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.0, 1.0)
		require.NoError(t, err)

		err = m.SetCovariance([][]float64{
			{1e-24, 2e-13},
			{2e-13, 0.01},
		})
		require.NoError(t, err)
		require.NotNil(t, m.Covariance())

		n, _ := m.Covariance().Dims()
		assert.Equal(t, 2, n)
	})

	t.Run("rejects wrong dimensions", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.0, 1.0)
		require.NoError(t, err)

		err = m.SetCovariance([][]float64{{1e-24}})
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("rejects an asymmetric matrix", func(t *testing.T) {
		m, err := NewPowerLaw(1e-11, 2.0, 1.0)
		require.NoError(t, err)

		err = m.SetCovariance([][]float64{
			{1e-24, 1e-13},
			{5e-13, 0.01},
		})
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("is nil until set", func(t *testing.T) {
		m, err := NewLogParabola(1e-11, 2.0, 0.1, 1.0)
		require.NoError(t, err)
		assert.Nil(t, m.Covariance())
	})
}
