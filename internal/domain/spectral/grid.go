package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	appErrors "sedcat-backend/pkg/errors"
)

// EnergyRange is the validity domain of a fitted model, in TeV.
type EnergyRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Validate checks that the bounds are finite, positive and ordered.
func (r EnergyRange) Validate() error {
	if r.Min <= 0 || math.IsNaN(r.Min) || math.IsInf(r.Min, 0) {
		return appErrors.NewValidation(fmt.Sprintf("energy range minimum must be positive and finite, got %g", r.Min))
	}
	if math.IsNaN(r.Max) || math.IsInf(r.Max, 0) {
		return appErrors.NewValidation(fmt.Sprintf("energy range maximum must be finite, got %g", r.Max))
	}
	if r.Min >= r.Max {
		return appErrors.NewValidation(fmt.Sprintf("energy range minimum %g must be below maximum %g", r.Min, r.Max))
	}
	return nil
}

// Contains reports whether the energy lies inside the range, bounds included.
func (r EnergyRange) Contains(energy float64) bool {
	return energy >= r.Min && energy <= r.Max
}

// Grid returns n log-spaced energies between min and max, bounds included.
// The result is strictly increasing and every value is positive.
func Grid(min, max float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, appErrors.NewValidation(fmt.Sprintf("grid needs at least 2 points, got %d", n))
	}
	if err := (EnergyRange{Min: min, Max: max}).Validate(); err != nil {
		return nil, err
	}
	grid := floats.LogSpan(make([]float64, n), min, max)
	// Pin the endpoints: LogSpan round-trips through exp/log and may miss
	// the bounds by an ulp, which would fail the range check downstream.
	grid[0], grid[n-1] = min, max
	return grid, nil
}

// GridForRange builds a grid spanning the full validity range of a record.
func GridForRange(r EnergyRange, n int) ([]float64, error) {
	return Grid(r.Min, r.Max, n)
}
