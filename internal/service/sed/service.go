// Package sed implements the spectral energy distribution service: grid
// construction, model evaluation and uncertainty propagation for catalog
// records.
package sed

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"sedcat-backend/internal/catalog"
	"sedcat-backend/internal/domain"
	"sedcat-backend/internal/domain/spectral"
	appErrors "sedcat-backend/pkg/errors"
)

const (
	// DefaultPoints is the grid size used when the caller does not choose one.
	DefaultPoints = 100

	// MaxPoints bounds request-supplied grid sizes.
	MaxPoints = 10000
)

// Options controls an SED evaluation.
type Options struct {
	// Points is the number of log-spaced grid points.
	Points int
	// EnergyPower is the display exponent p in E^p * dN/dE. It does not
	// affect evaluation, only how the result is meant to be displayed;
	// it is validated here so bad requests fail before rendering.
	EnergyPower int
	// FluxUnit is the display flux unit.
	FluxUnit spectral.FluxUnit
}

// DefaultOptions returns the options used by the documentation examples.
func DefaultOptions() Options {
	return Options{
		Points:      DefaultPoints,
		EnergyPower: 0,
		FluxUnit:    spectral.FluxPerTeV,
	}
}

func (o *Options) validate() error {
	if o.Points == 0 {
		o.Points = DefaultPoints
	}
	if o.Points < 2 || o.Points > MaxPoints {
		return appErrors.NewValidation(fmt.Sprintf("points must be between 2 and %d, got %d", MaxPoints, o.Points))
	}
	if o.EnergyPower < 0 || o.EnergyPower > 3 {
		return appErrors.NewValidation(fmt.Sprintf("energy power must be between 0 and 3, got %d", o.EnergyPower))
	}
	if o.FluxUnit == "" {
		o.FluxUnit = spectral.FluxPerTeV
	}
	if _, err := spectral.ParseFluxUnit(string(o.FluxUnit)); err != nil {
		return err
	}
	return nil
}

// Result is an evaluated SED for one catalog record.
type Result struct {
	Variant string
	Source  *domain.SourceRecord
	Options Options
	Band    *spectral.Band
}

// Service evaluates SEDs for catalog records.
type Service struct {
	registry *catalog.Registry
	logger   *zap.Logger
}

// NewService creates the SED service.
func NewService(registry *catalog.Registry, logger *zap.Logger) *Service {
	return &Service{registry: registry, logger: logger}
}

// Lookup fetches a record from a catalog variant.
func (s *Service) Lookup(variant, name string) (*domain.SourceRecord, error) {
	cat, err := s.registry.Get(variant)
	if err != nil {
		return nil, err
	}
	return cat.Lookup(name)
}

// SED looks up a record and evaluates its model with the uncertainty
// butterfly over a log-spaced grid spanning the record's own validity range.
func (s *Service) SED(ctx context.Context, variant, name string, opts Options) (*Result, error) {
	ctx, span := otel.Tracer("sedcat/sed").Start(ctx, "sed.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("catalog.variant", variant),
		attribute.String("source.name", name),
	)

	if err := opts.validate(); err != nil {
		return nil, err
	}

	rec, err := s.Lookup(variant, name)
	if err != nil {
		return nil, err
	}

	grid, err := spectral.GridForRange(rec.Range, opts.Points)
	if err != nil {
		return nil, err
	}

	band, err := s.EvaluateModel(ctx, rec.Model, rec.Range, grid)
	if err != nil {
		return nil, err
	}

	if rec.Model.Covariance() == nil {
		s.logger.Debug("Model has no covariance, butterfly collapses to the central curve",
			zap.String("source", name),
		)
	}

	return &Result{Variant: variant, Source: rec, Options: opts, Band: band}, nil
}

// EvaluateModel evaluates a model with its butterfly over an explicit grid.
// Grid values outside the model's validity range are rejected; the service
// never clamps or extrapolates beyond the fitted domain.
func (s *Service) EvaluateModel(ctx context.Context, model spectral.Model, rng spectral.EnergyRange, grid []float64) (*spectral.Band, error) {
	_ = ctx

	for i, e := range grid {
		if !rng.Contains(e) {
			return nil, appErrors.NewValidation(fmt.Sprintf(
				"grid energy %g TeV at index %d is outside the model validity range [%g, %g] TeV",
				e, i, rng.Min, rng.Max))
		}
	}

	band, err := spectral.Butterfly(model, grid)
	if err != nil {
		return nil, appErrors.Wrap(err, "butterfly evaluation")
	}
	return band, nil
}
