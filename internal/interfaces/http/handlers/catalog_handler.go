package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sedcat-backend/internal/catalog"
	"sedcat-backend/internal/domain"
	"sedcat-backend/internal/observability"
	"sedcat-backend/pkg/api"
)

// CatalogHandler serves catalog metadata and source records.
type CatalogHandler struct {
	registry  *catalog.Registry
	collector *observability.Collector
	logger    *zap.Logger
}

// NewCatalogHandler creates the catalog handler.
func NewCatalogHandler(registry *catalog.Registry, collector *observability.Collector, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{registry: registry, collector: collector, logger: logger}
}

// catalogSummary describes one loaded catalog.
type catalogSummary struct {
	Variant     string `json:"variant"`
	Description string `json:"description"`
	Sources     int    `json:"sources"`
}

// parameterDTO is one spectral model parameter.
type parameterDTO struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// modelDTO describes a source's spectral model.
type modelDTO struct {
	Type       string         `json:"type"`
	Parameters []parameterDTO `json:"parameters"`
	Covariance [][]float64    `json:"covariance,omitempty"`
}

// sourceDTO is the full representation of a catalog record.
type sourceDTO struct {
	Name           string             `json:"name"`
	Classification string             `json:"classification,omitempty"`
	EnergyRangeTeV [2]float64         `json:"energyRangeTeV"`
	Model          modelDTO           `json:"model"`
	FluxPoints     []domain.FluxPoint `json:"fluxPoints,omitempty"`
}

// ListCatalogs handles GET /api/v1/catalogs.
func (h *CatalogHandler) ListCatalogs(w http.ResponseWriter, r *http.Request) {
	variants := h.registry.Variants()
	out := make([]catalogSummary, 0, len(variants))
	for _, v := range variants {
		cat, err := h.registry.Get(v)
		if err != nil {
			continue
		}
		out = append(out, catalogSummary{
			Variant:     cat.Variant(),
			Description: cat.Description(),
			Sources:     cat.Len(),
		})
	}
	api.Success(w, http.StatusOK, map[string]interface{}{"catalogs": out})
}

// ListSources handles GET /api/v1/catalogs/{variant}/sources.
func (h *CatalogHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")

	cat, err := h.registry.Get(variant)
	if err != nil {
		h.collector.CatalogLookups.WithLabelValues(variant, "miss").Inc()
		handleServiceError(w, err, h.logger)
		return
	}

	h.collector.CatalogLookups.WithLabelValues(variant, "hit").Inc()
	api.Success(w, http.StatusOK, map[string]interface{}{
		"variant": variant,
		"sources": cat.Names(),
	})
}

// GetSource handles GET /api/v1/catalogs/{variant}/sources/{name}.
func (h *CatalogHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	name := chi.URLParam(r, "name")

	cat, err := h.registry.Get(variant)
	if err != nil {
		h.collector.CatalogLookups.WithLabelValues(variant, "miss").Inc()
		handleServiceError(w, err, h.logger)
		return
	}

	rec, err := cat.Lookup(name)
	if err != nil {
		h.collector.CatalogLookups.WithLabelValues(variant, "miss").Inc()
		handleServiceError(w, err, h.logger)
		return
	}

	h.collector.CatalogLookups.WithLabelValues(variant, "hit").Inc()
	api.Success(w, http.StatusOK, toSourceDTO(rec))
}

func toSourceDTO(rec *domain.SourceRecord) sourceDTO {
	params := rec.Model.Parameters()
	dto := sourceDTO{
		Name:           rec.Name,
		Classification: rec.Classification,
		EnergyRangeTeV: [2]float64{rec.Range.Min, rec.Range.Max},
		Model: modelDTO{
			Type:       rec.Model.Type(),
			Parameters: make([]parameterDTO, len(params)),
		},
		FluxPoints: rec.Points,
	}
	for i, p := range params {
		dto.Model.Parameters[i] = parameterDTO{Name: p.Name, Value: p.Value, Unit: p.Unit}
	}
	if cov := rec.Model.Covariance(); cov != nil {
		dto.Model.Covariance = covarianceRows(cov)
	}
	return dto
}

func covarianceRows(cov interface {
	Dims() (int, int)
	At(i, j int) float64
}) [][]float64 {
	n, _ := cov.Dims()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = cov.At(i, j)
		}
	}
	return rows
}
