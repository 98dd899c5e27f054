package spectral

import (
	"fmt"
	"math"

	appErrors "sedcat-backend/pkg/errors"
)

// ErgPerTeV converts energies from TeV to erg.
const ErgPerTeV = 1.602176634

// FluxUnit selects the display unit for flux axes. The native unit of all
// models and flux points is cm^-2 s^-1 TeV^-1.
type FluxUnit string

const (
	// FluxPerTeV is differential flux per TeV, the native unit.
	FluxPerTeV FluxUnit = "cm-2 s-1 TeV-1"
	// FluxPerErg is differential flux per erg.
	FluxPerErg FluxUnit = "cm-2 s-1 erg-1"
	// FluxErg is energy flux in erg, the usual choice with EnergyPower 2.
	FluxErg FluxUnit = "erg cm-2 s-1"
)

// ParseFluxUnit validates a flux-unit string from configuration or a request.
func ParseFluxUnit(s string) (FluxUnit, error) {
	switch FluxUnit(s) {
	case FluxPerTeV, FluxPerErg, FluxErg:
		return FluxUnit(s), nil
	case "":
		return FluxPerTeV, nil
	}
	return "", appErrors.NewValidation(fmt.Sprintf("unsupported flux unit %q", s))
}

// Scale returns the multiplicative factor converting a native E^power * flux
// value into this display unit.
func (u FluxUnit) Scale(energyPower int) float64 {
	switch u {
	case FluxPerErg:
		return 1 / ErgPerTeV
	case FluxErg:
		// E^p * dN/dE carries TeV^(p-1); convert that energy dimension to erg.
		return math.Pow(ErgPerTeV, float64(energyPower-1))
	default:
		return 1
	}
}

// AxisLabel returns the y-axis label for this unit at a given energy power.
func (u FluxUnit) AxisLabel(energyPower int) string {
	switch energyPower {
	case 0:
		return fmt.Sprintf("dN/dE (%s)", string(u))
	case 1:
		return fmt.Sprintf("E dN/dE (%s)", string(u))
	case 2:
		return fmt.Sprintf("E^2 dN/dE (%s)", string(u))
	default:
		return fmt.Sprintf("E^%d dN/dE (%s)", energyPower, string(u))
	}
}
