package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sedcat-backend/internal/catalog"
	"sedcat-backend/internal/config"
	"sedcat-backend/internal/interfaces/http/handlers"
	"sedcat-backend/internal/middleware"
	"sedcat-backend/internal/observability"
	"sedcat-backend/internal/service/sed"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: config.Development,
		Server: config.Server{
			Host:           "127.0.0.1",
			Port:           8080,
			RequestTimeout: 10 * time.Second,
		},
		Render: config.Render{
			WidthCm:         18,
			HeightCm:        12,
			DefaultFluxUnit: "erg cm-2 s-1",
			DefaultPoints:   50,
		},
		Metrics: config.Metrics{Enabled: true, Namespace: "sedcat", Path: "/metrics"},
		CORS:    config.CORS{AllowedOrigins: []string{"*"}, MaxAge: 300},
		Version: "test",
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	cfg := testConfig()
	collector := observability.NewCollector(cfg.Metrics.Namespace)

	registry := catalog.NewRegistry(logger)
	require.NoError(t, registry.LoadBundled())
	service := sed.NewService(registry, logger)

	router := NewRouter(RouterDeps{
		Config:    cfg,
		Logger:    logger,
		Collector: collector,
		Health:    handlers.NewHealthHandler(registry, cfg.Version),
		Catalog:   handlers.NewCatalogHandler(registry, collector, logger),
		SED:       handlers.NewSEDHandler(service, cfg.Render, collector, logger),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, server *httptest.Server, path string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestProbes(t *testing.T) {
	server := newTestServer(t)

	t.Run("health", func(t *testing.T) {
		var body map[string]string
		code := getJSON(t, server, "/health", &body)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("ready", func(t *testing.T) {
		code := getJSON(t, server, "/ready", nil)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("metrics", func(t *testing.T) {
		code := getJSON(t, server, "/metrics", nil)
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestCatalogRoutes(t *testing.T) {
	server := newTestServer(t)

	t.Run("lists catalogs", func(t *testing.T) {
		var body struct {
			Catalogs []struct {
				Variant string `json:"variant"`
				Sources int    `json:"sources"`
			} `json:"catalogs"`
		}
		code := getJSON(t, server, "/api/v1/catalogs", &body)
		require.Equal(t, http.StatusOK, code)
		require.Len(t, body.Catalogs, 2)
		assert.Equal(t, "3fhl", body.Catalogs[0].Variant)
		assert.Greater(t, body.Catalogs[0].Sources, 0)
	})

	t.Run("lists sources of a catalog", func(t *testing.T) {
		var body struct {
			Variant string   `json:"variant"`
			Sources []string `json:"sources"`
		}
		code := getJSON(t, server, "/api/v1/catalogs/gamma-cat/sources", &body)
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body.Sources, "Vela X")
	})

	t.Run("returns a source record", func(t *testing.T) {
		var body struct {
			Name           string     `json:"name"`
			EnergyRangeTeV [2]float64 `json:"energyRangeTeV"`
			Model          struct {
				Type string `json:"type"`
			} `json:"model"`
		}
		path := "/api/v1/catalogs/gamma-cat/sources/" + url.PathEscape("Vela X")
		code := getJSON(t, server, path, &body)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Vela X", body.Name)
		assert.Equal(t, "ecpl", body.Model.Type)
		assert.Less(t, body.EnergyRangeTeV[0], body.EnergyRangeTeV[1])
	})

	t.Run("unknown catalog is 404", func(t *testing.T) {
		code := getJSON(t, server, "/api/v1/catalogs/4fgl/sources", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("unknown source is 404", func(t *testing.T) {
		code := getJSON(t, server, "/api/v1/catalogs/gamma-cat/sources/nope", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestSEDRoutes(t *testing.T) {
	server := newTestServer(t)
	velaSED := "/api/v1/catalogs/gamma-cat/sources/" + url.PathEscape("Vela X") + "/sed"

	t.Run("returns the butterfly as JSON", func(t *testing.T) {
		var body struct {
			Source      string    `json:"source"`
			EnergiesTeV []float64 `json:"energiesTeV"`
			Flux        []float64 `json:"flux"`
			FluxLower   []float64 `json:"fluxLower"`
			FluxUpper   []float64 `json:"fluxUpper"`
		}
		code := getJSON(t, server, velaSED+"?points=25", &body)
		require.Equal(t, http.StatusOK, code)

		assert.Equal(t, "Vela X", body.Source)
		require.Len(t, body.EnergiesTeV, 25)
		require.Len(t, body.Flux, 25)
		for i := range body.Flux {
			assert.LessOrEqual(t, body.FluxLower[i], body.Flux[i])
			assert.GreaterOrEqual(t, body.FluxUpper[i], body.Flux[i])
		}
	})

	t.Run("energy power changes the series", func(t *testing.T) {
		var p0, p2 struct {
			Flux []float64 `json:"flux"`
		}
		require.Equal(t, http.StatusOK, getJSON(t, server, velaSED+"?points=10&energy_power=0", &p0))
		require.Equal(t, http.StatusOK, getJSON(t, server, velaSED+"?points=10&energy_power=2", &p2))
		assert.NotEqual(t, p0.Flux, p2.Flux)
	})

	t.Run("rejects bad query parameters", func(t *testing.T) {
		for _, q := range []string{"?points=abc", "?points=1", "?energy_power=9", "?flux_unit=Jy"} {
			code := getJSON(t, server, velaSED+q, nil)
			assert.Equal(t, http.StatusBadRequest, code, q)
		}
	})

	t.Run("renders a PNG", func(t *testing.T) {
		resp, err := http.Get(server.URL + velaSED + ".png?points=30")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

		magic := make([]byte, 4)
		_, err = io.ReadFull(resp.Body, magic)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, magic)
	})

	t.Run("requests carry an id", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	})
}

func TestRequestIDPropagation(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.RequestIDHeader, "caller-supplied-id")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "caller-supplied-id", resp.Header.Get(middleware.RequestIDHeader))
}
