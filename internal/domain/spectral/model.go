// Package spectral contains the spectral model value objects used by the
// catalog: parametric functions mapping energy to differential flux, their
// fit covariance, and the uncertainty propagation built on top of them.
//
// Conventions: energies are in TeV, differential flux in cm^-2 s^-1 TeV^-1.
package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	appErrors "sedcat-backend/pkg/errors"
)

// Model type identifiers as they appear in catalog data files.
const (
	TypePowerLaw    = "pl"
	TypeExpCutoffPL = "ecpl"
	TypeLogParabola = "logpar"
)

// Parameter is a named fit parameter with its value and unit.
type Parameter struct {
	Name  string
	Value float64
	Unit  string
}

// Model is a parametric spectral shape. Implementations are immutable after
// construction and safe for concurrent use.
type Model interface {
	// Type returns the model type identifier (e.g. "pl").
	Type() string

	// Evaluate returns the differential flux at the given energy in TeV.
	Evaluate(energy float64) float64

	// Parameters returns the fit parameters in covariance order.
	Parameters() []Parameter

	// Covariance returns the fit covariance matrix in parameter order,
	// or nil when the catalog entry ships without one.
	Covariance() *mat.SymDense

	// Gradient returns the partial derivatives of the flux with respect
	// to each parameter, evaluated analytically at the given energy.
	// The order matches Parameters.
	Gradient(energy float64) []float64
}

// ============================================================================
// POWER LAW
// ============================================================================

// PowerLaw is F(E) = amplitude * (E/reference)^(-index).
type PowerLaw struct {
	amplitude float64
	index     float64
	reference float64
	cov       *mat.SymDense
}

// NewPowerLaw creates a power-law model. Amplitude and reference must be
// positive.
func NewPowerLaw(amplitude, index, reference float64) (*PowerLaw, error) {
	if err := checkAmplitudeReference(amplitude, reference); err != nil {
		return nil, err
	}
	return &PowerLaw{amplitude: amplitude, index: index, reference: reference}, nil
}

func (m *PowerLaw) Type() string { return TypePowerLaw }

func (m *PowerLaw) Evaluate(energy float64) float64 {
	return m.amplitude * math.Pow(energy/m.reference, -m.index)
}

func (m *PowerLaw) Parameters() []Parameter {
	return []Parameter{
		{Name: "amplitude", Value: m.amplitude, Unit: "cm-2 s-1 TeV-1"},
		{Name: "index", Value: m.index, Unit: ""},
	}
}

func (m *PowerLaw) Covariance() *mat.SymDense { return m.cov }

func (m *PowerLaw) Gradient(energy float64) []float64 {
	f := m.Evaluate(energy)
	return []float64{
		f / m.amplitude,
		-f * math.Log(energy/m.reference),
	}
}

// SetCovariance attaches the 2x2 fit covariance over (amplitude, index).
func (m *PowerLaw) SetCovariance(rows [][]float64) error {
	cov, err := covarianceFromRows(2, rows)
	if err != nil {
		return err
	}
	m.cov = cov
	return nil
}

// ============================================================================
// EXPONENTIAL CUTOFF POWER LAW
// ============================================================================

// ExpCutoffPowerLaw is F(E) = amplitude * (E/reference)^(-index) * exp(-lambda*E),
// with lambda = 1/cutoff energy.
type ExpCutoffPowerLaw struct {
	amplitude float64
	index     float64
	lambda    float64
	reference float64
	cov       *mat.SymDense
}

// NewExpCutoffPowerLaw creates an exponential-cutoff power law. The cutoff
// energy is given in TeV and must be positive.
func NewExpCutoffPowerLaw(amplitude, index, cutoff, reference float64) (*ExpCutoffPowerLaw, error) {
	if err := checkAmplitudeReference(amplitude, reference); err != nil {
		return nil, err
	}
	if cutoff <= 0 {
		return nil, appErrors.NewValidation(fmt.Sprintf("cutoff energy must be positive, got %g", cutoff))
	}
	return &ExpCutoffPowerLaw{
		amplitude: amplitude,
		index:     index,
		lambda:    1 / cutoff,
		reference: reference,
	}, nil
}

func (m *ExpCutoffPowerLaw) Type() string { return TypeExpCutoffPL }

func (m *ExpCutoffPowerLaw) Evaluate(energy float64) float64 {
	return m.amplitude * math.Pow(energy/m.reference, -m.index) * math.Exp(-m.lambda*energy)
}

func (m *ExpCutoffPowerLaw) Parameters() []Parameter {
	return []Parameter{
		{Name: "amplitude", Value: m.amplitude, Unit: "cm-2 s-1 TeV-1"},
		{Name: "index", Value: m.index, Unit: ""},
		{Name: "lambda", Value: m.lambda, Unit: "TeV-1"},
	}
}

func (m *ExpCutoffPowerLaw) Covariance() *mat.SymDense { return m.cov }

func (m *ExpCutoffPowerLaw) Gradient(energy float64) []float64 {
	f := m.Evaluate(energy)
	return []float64{
		f / m.amplitude,
		-f * math.Log(energy/m.reference),
		-f * energy,
	}
}

// SetCovariance attaches the 3x3 fit covariance over (amplitude, index, lambda).
func (m *ExpCutoffPowerLaw) SetCovariance(rows [][]float64) error {
	cov, err := covarianceFromRows(3, rows)
	if err != nil {
		return err
	}
	m.cov = cov
	return nil
}

// ============================================================================
// LOG PARABOLA
// ============================================================================

// LogParabola is F(E) = amplitude * (E/reference)^(-(alpha + beta*ln(E/reference))).
type LogParabola struct {
	amplitude float64
	alpha     float64
	beta      float64
	reference float64
	cov       *mat.SymDense
}

// NewLogParabola creates a log-parabola model.
func NewLogParabola(amplitude, alpha, beta, reference float64) (*LogParabola, error) {
	if err := checkAmplitudeReference(amplitude, reference); err != nil {
		return nil, err
	}
	return &LogParabola{amplitude: amplitude, alpha: alpha, beta: beta, reference: reference}, nil
}

func (m *LogParabola) Type() string { return TypeLogParabola }

func (m *LogParabola) Evaluate(energy float64) float64 {
	logE := math.Log(energy / m.reference)
	return m.amplitude * math.Exp(-(m.alpha+m.beta*logE)*logE)
}

func (m *LogParabola) Parameters() []Parameter {
	return []Parameter{
		{Name: "amplitude", Value: m.amplitude, Unit: "cm-2 s-1 TeV-1"},
		{Name: "alpha", Value: m.alpha, Unit: ""},
		{Name: "beta", Value: m.beta, Unit: ""},
	}
}

func (m *LogParabola) Covariance() *mat.SymDense { return m.cov }

func (m *LogParabola) Gradient(energy float64) []float64 {
	f := m.Evaluate(energy)
	logE := math.Log(energy / m.reference)
	return []float64{
		f / m.amplitude,
		-f * logE,
		-f * logE * logE,
	}
}

// SetCovariance attaches the 3x3 fit covariance over (amplitude, alpha, beta).
func (m *LogParabola) SetCovariance(rows [][]float64) error {
	cov, err := covarianceFromRows(3, rows)
	if err != nil {
		return err
	}
	m.cov = cov
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func checkAmplitudeReference(amplitude, reference float64) error {
	if amplitude <= 0 || math.IsNaN(amplitude) || math.IsInf(amplitude, 0) {
		return appErrors.NewValidation(fmt.Sprintf("amplitude must be positive and finite, got %g", amplitude))
	}
	if reference <= 0 || math.IsNaN(reference) || math.IsInf(reference, 0) {
		return appErrors.NewValidation(fmt.Sprintf("reference energy must be positive and finite, got %g", reference))
	}
	return nil
}

// covarianceFromRows builds a symmetric matrix from row data, validating
// shape and symmetry within a small tolerance.
func covarianceFromRows(n int, rows [][]float64) (*mat.SymDense, error) {
	if len(rows) != n {
		return nil, appErrors.NewValidation(fmt.Sprintf("covariance must have %d rows, got %d", n, len(rows)))
	}
	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, appErrors.NewValidation(fmt.Sprintf("covariance row %d must have %d entries, got %d", i, n, len(row)))
		}
		data = append(data, row...)
	}
	const tol = 1e-12
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := rows[i][j], rows[j][i]
			if diff := math.Abs(a - b); diff > tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return nil, appErrors.NewValidation(fmt.Sprintf("covariance is not symmetric at (%d,%d)", i, j))
			}
		}
	}
	return mat.NewSymDense(n, data), nil
}
