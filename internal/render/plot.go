// Package render draws spectral energy distributions. An SEDPlot is a
// mutable plot surface that accumulates layers (model curves, butterfly
// bands, flux points) from one or more catalog records; the caller owns it
// for the duration of the composition and writes it out once.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"sedcat-backend/internal/domain"
	"sedcat-backend/internal/domain/spectral"
	appErrors "sedcat-backend/pkg/errors"
)

// Options configures a plot surface.
type Options struct {
	// Title is the plot title; empty for none.
	Title string
	// FluxUnit is the display unit driving the y-axis label and scaling.
	FluxUnit spectral.FluxUnit
	// EnergyPower is the display exponent p in E^p * dN/dE.
	EnergyPower int
	// YMin and YMax constrain the y axis when YMin < YMax; zero values
	// leave the axis autoscaled.
	YMin, YMax float64
	// WidthCm and HeightCm set the canvas size; zero uses defaults.
	WidthCm, HeightCm float64
}

// DefaultOptions returns the plot options used by the documentation examples.
func DefaultOptions() Options {
	return Options{
		FluxUnit:    spectral.FluxErg,
		EnergyPower: 2,
		WidthCm:     18,
		HeightCm:    12,
	}
}

// SEDPlot is a 2D plot surface with logarithmic axes. Successive Add calls
// compose layers in order; each labeled layer gets its own legend entry.
type SEDPlot struct {
	p       *plot.Plot
	opts    Options
	layers  int
	legends int
}

// New creates an empty SED plot surface.
func New(opts Options) (*SEDPlot, error) {
	unit, err := spectral.ParseFluxUnit(string(opts.FluxUnit))
	if err != nil {
		return nil, err
	}
	opts.FluxUnit = unit
	if opts.EnergyPower < 0 {
		return nil, appErrors.NewValidation(fmt.Sprintf("energy power must be non-negative, got %d", opts.EnergyPower))
	}
	if opts.WidthCm <= 0 {
		opts.WidthCm = 18
	}
	if opts.HeightCm <= 0 {
		opts.HeightCm = 12
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Energy (TeV)"
	p.Y.Label.Text = unit.AxisLabel(opts.EnergyPower)
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true

	if opts.YMin != 0 || opts.YMax != 0 {
		if opts.YMin <= 0 || opts.YMin >= opts.YMax {
			return nil, appErrors.NewValidation(fmt.Sprintf("y limits must satisfy 0 < min < max, got [%g, %g]", opts.YMin, opts.YMax))
		}
		p.Y.Min = opts.YMin
		p.Y.Max = opts.YMax
	}

	return &SEDPlot{p: p, opts: opts}, nil
}

// ScaleFlux applies the display transform to a flux series: each value is
// multiplied by energy^power and converted into the display unit. With
// power 2 this turns differential flux density into energy flux density.
func ScaleFlux(energies, flux []float64, power int, unit spectral.FluxUnit) []float64 {
	factor := unit.Scale(power)
	out := make([]float64, len(flux))
	for i, f := range flux {
		out[i] = f * math.Pow(energies[i], float64(power)) * factor
	}
	return out
}

// Layers returns how many layers have been composed onto the surface.
func (sp *SEDPlot) Layers() int { return sp.layers }

// LegendEntries returns how many labeled series carry a legend entry.
func (sp *SEDPlot) LegendEntries() int { return sp.legends }

// AddModel draws a model flux curve. Energies and flux must have equal,
// non-zero length.
func (sp *SEDPlot) AddModel(label string, energies, flux []float64) error {
	if err := checkSeries(energies, flux); err != nil {
		return err
	}

	scaled := ScaleFlux(energies, flux, sp.opts.EnergyPower, sp.opts.FluxUnit)
	pts := make(plotter.XYs, len(energies))
	for i := range energies {
		pts[i].X = energies[i]
		pts[i].Y = scaled[i]
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return appErrors.NewInternal("failed to build model curve", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = plotutil.Color(sp.layers)

	sp.p.Add(line)
	sp.addLegend(label, line)
	sp.layers++
	return nil
}

// AddButterfly draws an uncertainty envelope as a shaded region between the
// band's lower and upper bounds.
func (sp *SEDPlot) AddButterfly(label string, band *spectral.Band) error {
	if band == nil || band.Len() == 0 {
		return appErrors.NewValidation("butterfly band is empty")
	}
	if len(band.Lower) != band.Len() || len(band.Upper) != band.Len() {
		return appErrors.NewValidation("butterfly band bounds do not match its grid")
	}

	upper := ScaleFlux(band.Energies, band.Upper, sp.opts.EnergyPower, sp.opts.FluxUnit)
	lower := ScaleFlux(band.Energies, band.Lower, sp.opts.EnergyPower, sp.opts.FluxUnit)
	center := ScaleFlux(band.Energies, band.Flux, sp.opts.EnergyPower, sp.opts.FluxUnit)

	n := band.Len()
	pts := make(plotter.XYs, 0, 2*n)
	for i := 0; i < n; i++ {
		pts = append(pts, plotter.XY{X: band.Energies[i], Y: upper[i]})
	}
	for i := n - 1; i >= 0; i-- {
		lo := lower[i]
		if lo <= 0 {
			// The log axis cannot take non-positive values; pin the lower
			// edge three decades under the central curve instead.
			lo = center[i] * 1e-3
		}
		pts = append(pts, plotter.XY{X: band.Energies[i], Y: lo})
	}

	poly, err := plotter.NewPolygon(pts)
	if err != nil {
		return appErrors.NewInternal("failed to build butterfly band", err)
	}
	base := plotutil.Color(sp.layers)
	poly.Color = withAlpha(base, 60)
	poly.LineStyle.Width = 0

	sp.p.Add(poly)
	sp.addLegend(label, poly)
	sp.layers++
	return nil
}

// AddFluxPoints draws discrete flux measurements as markers with one-sigma
// error bars.
func (sp *SEDPlot) AddFluxPoints(label string, points []domain.FluxPoint) error {
	if len(points) == 0 {
		return appErrors.NewValidation("no flux points to draw")
	}

	energies := make([]float64, len(points))
	flux := make([]float64, len(points))
	errs := make([]float64, len(points))
	for i, fp := range points {
		energies[i] = fp.Energy
		flux[i] = fp.Flux
		errs[i] = fp.FluxErr
	}
	scaled := ScaleFlux(energies, flux, sp.opts.EnergyPower, sp.opts.FluxUnit)
	scaledErr := ScaleFlux(energies, errs, sp.opts.EnergyPower, sp.opts.FluxUnit)

	data := errPoints{
		XYs:     make(plotter.XYs, len(points)),
		YErrors: make(plotter.YErrors, len(points)),
	}
	for i := range points {
		data.XYs[i].X = energies[i]
		data.XYs[i].Y = scaled[i]
		low := scaledErr[i]
		if low >= scaled[i] {
			// Keep the lower whisker on the log axis.
			low = scaled[i] * 0.999
		}
		data.YErrors[i].Low = low
		data.YErrors[i].High = scaledErr[i]
	}

	scatter, err := plotter.NewScatter(data.XYs)
	if err != nil {
		return appErrors.NewInternal("failed to build flux point markers", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(2.5)
	scatter.GlyphStyle.Color = plotutil.Color(sp.layers)

	bars, err := plotter.NewYErrorBars(data)
	if err != nil {
		return appErrors.NewInternal("failed to build error bars", err)
	}
	bars.LineStyle.Color = plotutil.Color(sp.layers)

	sp.p.Add(bars, scatter)
	sp.addLegend(label, scatter)
	sp.layers++
	return nil
}

// WriteTo renders the surface in the given format ("png" or "svg").
func (sp *SEDPlot) WriteTo(w io.Writer, format string) error {
	switch format {
	case "png", "svg":
	default:
		return appErrors.NewValidation(fmt.Sprintf("unsupported image format %q", format))
	}
	width := vg.Length(sp.opts.WidthCm) * vg.Centimeter
	height := vg.Length(sp.opts.HeightCm) * vg.Centimeter
	wt, err := sp.p.WriterTo(width, height, format)
	if err != nil {
		return appErrors.NewInternal("failed to render plot", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return appErrors.NewInternal("failed to write plot", err)
	}
	return nil
}

// Save renders the surface to a file, inferring the format from the
// extension.
func (sp *SEDPlot) Save(path string) error {
	width := vg.Length(sp.opts.WidthCm) * vg.Centimeter
	height := vg.Length(sp.opts.HeightCm) * vg.Centimeter
	if err := sp.p.Save(width, height, path); err != nil {
		return appErrors.NewInternal("failed to save plot", err)
	}
	return nil
}

func (sp *SEDPlot) addLegend(label string, thumb plot.Thumbnailer) {
	if label == "" {
		return
	}
	sp.p.Legend.Add(label, thumb)
	sp.legends++
}

// errPoints bundles coordinates with their y error magnitudes for the
// error-bar plotter.
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

func checkSeries(energies, flux []float64) error {
	if len(energies) == 0 {
		return appErrors.NewValidation("series is empty")
	}
	if len(energies) != len(flux) {
		return appErrors.NewValidation(fmt.Sprintf("series length mismatch: %d energies, %d flux values", len(energies), len(flux)))
	}
	return nil
}

func withAlpha(c color.Color, alpha uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}
