package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "sedcat-backend/pkg/errors"
)

const mirrorCatalog = `
variant: hgps
description: mirror test catalog
sources:
  - name: HESS J1826-130
    classification: unid
    energy_range: {min: 0.5, max: 50}
    model:
      type: pl
      amplitude: 8.0e-13
      index: 1.6
`

func TestMirrorClient(t *testing.T) {
	t.Run("fetches and parses a catalog", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/hgps.yaml", r.URL.Path)
			w.Write([]byte(mirrorCatalog))
		}))
		defer server.Close()

		client := NewMirrorClient(server.URL, time.Second, zap.NewNop())
		cat, err := client.Fetch(context.Background(), "hgps")
		require.NoError(t, err)

		assert.Equal(t, "hgps", cat.Variant())
		assert.Equal(t, 1, cat.Len())
	})

	t.Run("missing variant is not found", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		client := NewMirrorClient(server.URL, time.Second, zap.NewNop())
		_, err := client.Fetch(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("server errors are unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewMirrorClient(server.URL, time.Second, zap.NewNop())
		_, err := client.Fetch(context.Background(), "hgps")
		require.Error(t, err)
		assert.True(t, appErrors.IsUnavailable(err))
	})

	t.Run("invalid payload is not retried as unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("variant: bad\nsources: []"))
		}))
		defer server.Close()

		client := NewMirrorClient(server.URL, time.Second, zap.NewNop())
		_, err := client.Fetch(context.Background(), "bad")
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})
}
