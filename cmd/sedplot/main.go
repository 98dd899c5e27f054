// Command sedplot renders spectral energy distributions from the bundled
// catalogs to an image file, without running the HTTP service.
//
// Sources are given as "variant/name" specs and share one plot surface:
//
//	sedplot -source "gamma-cat/Vela X" -source "3fhl/3FHL J0835.3-4510" -out sed.png
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"sedcat-backend/internal/catalog"
	"sedcat-backend/internal/domain/spectral"
	"sedcat-backend/internal/render"
	"sedcat-backend/internal/service/sed"
)

type sourceList []string

func (s *sourceList) String() string { return strings.Join(*s, ", ") }

func (s *sourceList) Set(value string) error {
	if !strings.Contains(value, "/") {
		return fmt.Errorf("source spec %q must be variant/name", value)
	}
	*s = append(*s, value)
	return nil
}

func main() {
	var sources sourceList
	flag.Var(&sources, "source", "source to draw, as variant/name (repeatable)")
	out := flag.String("out", "sed.png", "output file (.png or .svg)")
	points := flag.Int("points", sed.DefaultPoints, "grid points per source")
	energyPower := flag.Int("energy-power", 2, "display exponent p in E^p dN/dE")
	fluxUnit := flag.String("flux-unit", "erg cm-2 s-1", "display flux unit")
	title := flag.String("title", "", "plot title")
	ymin := flag.Float64("ymin", 0, "manual y-axis lower limit (0 for auto)")
	ymax := flag.Float64("ymax", 0, "manual y-axis upper limit (0 for auto)")
	withPoints := flag.Bool("flux-points", true, "draw catalog flux points")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "at least one -source is required")
		flag.Usage()
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	if err := run(sources, *out, *points, *energyPower, *fluxUnit, *title, *ymin, *ymax, *withPoints, logger); err != nil {
		fmt.Fprintf(os.Stderr, "sedplot: %v\n", err)
		os.Exit(1)
	}
}

func run(sources []string, out string, points, energyPower int, fluxUnit, title string, ymin, ymax float64, withPoints bool, logger *zap.Logger) error {
	unit, err := spectral.ParseFluxUnit(fluxUnit)
	if err != nil {
		return err
	}

	registry := catalog.NewRegistry(logger)
	if err := registry.LoadBundled(); err != nil {
		return err
	}
	service := sed.NewService(registry, logger)

	surface, err := render.New(render.Options{
		Title:       title,
		FluxUnit:    unit,
		EnergyPower: energyPower,
		YMin:        ymin,
		YMax:        ymax,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, spec := range sources {
		variant, name, _ := strings.Cut(spec, "/")

		result, err := service.SED(ctx, variant, name, sed.Options{
			Points:      points,
			EnergyPower: energyPower,
			FluxUnit:    unit,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", spec, err)
		}

		if err := surface.AddButterfly("", result.Band); err != nil {
			return err
		}
		if err := surface.AddModel(name, result.Band.Energies, result.Band.Flux); err != nil {
			return err
		}
		if withPoints && len(result.Source.Points) > 0 {
			if err := surface.AddFluxPoints(name+" points", result.Source.Points); err != nil {
				return err
			}
		}
	}

	if err := surface.Save(out); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d sources, %d legend entries)\n", out, len(sources), surface.LegendEntries())
	return nil
}
