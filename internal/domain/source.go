// Package domain holds the core entities of the catalog service.
package domain

import (
	"fmt"
	"math"

	"sedcat-backend/internal/domain/spectral"
	appErrors "sedcat-backend/pkg/errors"
)

// FluxPoint is one measured flux observation: energy in TeV, differential
// flux and its one-sigma uncertainty in cm^-2 s^-1 TeV^-1.
type FluxPoint struct {
	Energy  float64 `json:"energy" yaml:"energy"`
	Flux    float64 `json:"flux" yaml:"flux"`
	FluxErr float64 `json:"fluxErr" yaml:"flux_err"`
}

// SourceRecord is a single catalog entry. Records are constructed by the
// catalog loader and read-only afterwards.
type SourceRecord struct {
	// Name is the catalog identifier, e.g. "Vela X" or "3FHL J0835.3-4510".
	Name string

	// Classification is the source class ("pwn", "psr", ...).
	Classification string

	// Model is the fitted spectral model.
	Model spectral.Model

	// Range is the energy validity range of the fit.
	Range spectral.EnergyRange

	// Points are the measured flux points, ordered by increasing energy.
	Points []FluxPoint
}

// Validate checks the record invariants after loading.
func (s *SourceRecord) Validate() error {
	if s.Name == "" {
		return appErrors.NewValidation("source record name cannot be empty")
	}
	if s.Model == nil {
		return appErrors.NewValidation(fmt.Sprintf("source %q has no spectral model", s.Name))
	}
	if err := s.Range.Validate(); err != nil {
		return appErrors.Wrap(err, fmt.Sprintf("source %q", s.Name))
	}
	prev := 0.0
	for i, p := range s.Points {
		if p.Energy <= prev {
			return appErrors.NewValidation(fmt.Sprintf("source %q flux points must be ordered by increasing energy at index %d", s.Name, i))
		}
		if p.Flux < 0 || math.IsNaN(p.Flux) {
			return appErrors.NewValidation(fmt.Sprintf("source %q flux point %d has invalid flux %g", s.Name, i, p.Flux))
		}
		if p.FluxErr < 0 || math.IsNaN(p.FluxErr) {
			return appErrors.NewValidation(fmt.Sprintf("source %q flux point %d has invalid uncertainty %g", s.Name, i, p.FluxErr))
		}
		prev = p.Energy
	}
	return nil
}
