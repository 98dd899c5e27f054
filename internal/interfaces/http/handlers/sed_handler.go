package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sedcat-backend/internal/config"
	"sedcat-backend/internal/domain/spectral"
	"sedcat-backend/internal/observability"
	"sedcat-backend/internal/render"
	"sedcat-backend/internal/service/sed"
	"sedcat-backend/pkg/api"
	appErrors "sedcat-backend/pkg/errors"
)

// SEDHandler serves spectral energy distributions, both as JSON bands and
// as rendered plots.
type SEDHandler struct {
	service   *sed.Service
	renderCfg config.Render
	collector *observability.Collector
	logger    *zap.Logger
}

// NewSEDHandler creates the SED handler.
func NewSEDHandler(service *sed.Service, renderCfg config.Render, collector *observability.Collector, logger *zap.Logger) *SEDHandler {
	return &SEDHandler{service: service, renderCfg: renderCfg, collector: collector, logger: logger}
}

// sedDTO is the JSON shape of an evaluated butterfly.
type sedDTO struct {
	Variant     string    `json:"variant"`
	Source      string    `json:"source"`
	EnergyPower int       `json:"energyPower"`
	FluxUnit    string    `json:"fluxUnit"`
	EnergiesTeV []float64 `json:"energiesTeV"`
	Flux        []float64 `json:"flux"`
	FluxLower   []float64 `json:"fluxLower"`
	FluxUpper   []float64 `json:"fluxUpper"`
}

// GetSED handles GET /api/v1/catalogs/{variant}/sources/{name}/sed.
//
// Query parameters: points, energy_power, flux_unit.
func (h *SEDHandler) GetSED(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	name := chi.URLParam(r, "name")

	opts, err := h.parseOptions(r)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	result, err := h.service.SED(r.Context(), variant, name, opts)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	h.collector.Evaluations.Inc()
	h.collector.GridPoints.Observe(float64(result.Band.Len()))

	power := result.Options.EnergyPower
	unit := result.Options.FluxUnit
	api.Success(w, http.StatusOK, sedDTO{
		Variant:     variant,
		Source:      result.Source.Name,
		EnergyPower: power,
		FluxUnit:    string(unit),
		EnergiesTeV: result.Band.Energies,
		Flux:        render.ScaleFlux(result.Band.Energies, result.Band.Flux, power, unit),
		FluxLower:   render.ScaleFlux(result.Band.Energies, result.Band.Lower, power, unit),
		FluxUpper:   render.ScaleFlux(result.Band.Energies, result.Band.Upper, power, unit),
	})
}

// RenderSED handles GET /api/v1/catalogs/{variant}/sources/{name}/sed.png.
//
// The response is a PNG with the model curve, its uncertainty butterfly and
// the catalog's flux points on shared log axes.
func (h *SEDHandler) RenderSED(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	name := chi.URLParam(r, "name")
	start := time.Now()

	opts, err := h.parseOptions(r)
	if err != nil {
		h.collector.Renders.WithLabelValues("png", "error").Inc()
		handleServiceError(w, err, h.logger)
		return
	}

	result, err := h.service.SED(r.Context(), variant, name, opts)
	if err != nil {
		h.collector.Renders.WithLabelValues("png", "error").Inc()
		handleServiceError(w, err, h.logger)
		return
	}
	h.collector.Evaluations.Inc()
	h.collector.GridPoints.Observe(float64(result.Band.Len()))

	surface, err := render.New(render.Options{
		Title:       result.Source.Name,
		FluxUnit:    result.Options.FluxUnit,
		EnergyPower: result.Options.EnergyPower,
		YMin:        h.renderCfg.YMin,
		YMax:        h.renderCfg.YMax,
		WidthCm:     h.renderCfg.WidthCm,
		HeightCm:    h.renderCfg.HeightCm,
	})
	if err != nil {
		h.collector.Renders.WithLabelValues("png", "error").Inc()
		handleServiceError(w, err, h.logger)
		return
	}

	if err := surface.AddButterfly("", result.Band); err != nil {
		h.collector.Renders.WithLabelValues("png", "error").Inc()
		handleServiceError(w, err, h.logger)
		return
	}
	if err := surface.AddModel(result.Source.Name, result.Band.Energies, result.Band.Flux); err != nil {
		h.collector.Renders.WithLabelValues("png", "error").Inc()
		handleServiceError(w, err, h.logger)
		return
	}
	if len(result.Source.Points) > 0 {
		if err := surface.AddFluxPoints("flux points", result.Source.Points); err != nil {
			h.collector.Renders.WithLabelValues("png", "error").Inc()
			handleServiceError(w, err, h.logger)
			return
		}
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := surface.WriteTo(w, "png"); err != nil {
		// Headers are gone at this point; log and give up on the body.
		h.collector.Renders.WithLabelValues("png", "error").Inc()
		h.logger.Error("Failed to stream rendered plot", zap.Error(err))
		return
	}

	h.collector.Renders.WithLabelValues("png", "ok").Inc()
	h.collector.RenderDuration.Observe(time.Since(start).Seconds())
}

// parseOptions reads the shared SED query parameters.
func (h *SEDHandler) parseOptions(r *http.Request) (sed.Options, error) {
	opts := sed.Options{
		Points:   h.renderCfg.DefaultPoints,
		FluxUnit: spectral.FluxUnit(h.renderCfg.DefaultFluxUnit),
	}
	q := r.URL.Query()

	if val := q.Get("points"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return opts, appErrors.NewValidation("points must be an integer")
		}
		opts.Points = n
	}
	if val := q.Get("energy_power"); val != "" {
		p, err := strconv.Atoi(val)
		if err != nil {
			return opts, appErrors.NewValidation("energy_power must be an integer")
		}
		opts.EnergyPower = p
	}
	if val := q.Get("flux_unit"); val != "" {
		unit, err := spectral.ParseFluxUnit(val)
		if err != nil {
			return opts, err
		}
		opts.FluxUnit = unit
	}

	return opts, nil
}
