package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	appErrors "sedcat-backend/pkg/errors"
)

// Band is an evaluated uncertainty envelope ("butterfly"): for each energy,
// the central flux estimate and the one-sigma lower and upper bounds.
type Band struct {
	Energies []float64 `json:"energies"`
	Flux     []float64 `json:"flux"`
	Lower    []float64 `json:"lower"`
	Upper    []float64 `json:"upper"`
}

// Len returns the number of grid points in the band.
func (b *Band) Len() int { return len(b.Energies) }

// Evaluate computes the model flux at each grid energy. The grid must be
// strictly increasing and positive; callers derive it from the record's own
// validity range.
func Evaluate(model Model, grid []float64) ([]float64, error) {
	if err := checkGrid(grid); err != nil {
		return nil, err
	}
	flux := make([]float64, len(grid))
	for i, e := range grid {
		flux[i] = model.Evaluate(e)
	}
	return flux, nil
}

// Butterfly computes the flux and its one-sigma envelope over the grid by
// propagating the fit covariance through the model's analytic gradient:
// sigma^2(E) = g(E)^T C g(E). A model without covariance yields a band that
// collapses onto the central curve.
func Butterfly(model Model, grid []float64) (*Band, error) {
	flux, err := Evaluate(model, grid)
	if err != nil {
		return nil, err
	}

	band := &Band{
		Energies: grid,
		Flux:     flux,
		Lower:    make([]float64, len(grid)),
		Upper:    make([]float64, len(grid)),
	}

	cov := model.Covariance()
	if cov == nil {
		copy(band.Lower, flux)
		copy(band.Upper, flux)
		return band, nil
	}

	n := len(model.Parameters())
	if r, c := cov.Dims(); r != n || c != n {
		return nil, appErrors.NewEvaluation(
			fmt.Sprintf("covariance is %dx%d for %d parameters", r, c, n), nil)
	}

	for i, e := range grid {
		g := mat.NewVecDense(n, model.Gradient(e))
		variance := mat.Inner(g, cov, g)
		if variance < 0 || math.IsNaN(variance) {
			return nil, appErrors.NewEvaluation(
				fmt.Sprintf("covariance produced invalid variance %g at %g TeV", variance, e), nil)
		}
		sigma := math.Sqrt(variance)
		band.Lower[i] = math.Max(flux[i]-sigma, 0)
		band.Upper[i] = flux[i] + sigma
	}

	return band, nil
}

func checkGrid(grid []float64) error {
	if len(grid) == 0 {
		return appErrors.NewValidation("energy grid is empty")
	}
	prev := 0.0
	for i, e := range grid {
		if e <= 0 || math.IsNaN(e) || math.IsInf(e, 0) {
			return appErrors.NewValidation(fmt.Sprintf("grid energy %d must be positive and finite, got %g", i, e))
		}
		if e <= prev {
			return appErrors.NewValidation(fmt.Sprintf("grid must be strictly increasing at index %d", i))
		}
		prev = e
	}
	return nil
}
