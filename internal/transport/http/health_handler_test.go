package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "optionrank/internal/errors"
	"optionrank/internal/services"
	"optionrank/pkg/contracts"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		ready      func() error
		endpoint   string
		wantStatus int
		wantField  string
		wantValue  interface{}
	}{
		{"health", nil, "/api/health", http.StatusOK, "status", "ok"},
		{"ready", nil, "/api/health/ready", http.StatusOK, "status", "ready"},
		{"not ready", func() error { return errors.New("scorer missing") }, "/api/health/ready", http.StatusServiceUnavailable, "status", "not_ready"},
		{"live", nil, "/api/health/live", http.StatusOK, "status", "alive"},
		{"version", nil, "/api/version", http.StatusOK, "version", contracts.Version},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(services.NewHealthService(t.TempDir(), tt.ready, nil), nil)
			r := chi.NewRouter()
			r.Route("/api", h.RegisterRoutes)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.endpoint, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantValue, body[tt.wantField])
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	errorHandler := apierrors.NewErrorHandler(nil, false)

	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewMetricsHandler(nil, errorHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("delegates", func(t *testing.T) {
		exposition := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# HELP up\n"))
		})
		rec := httptest.NewRecorder()
		NewMetricsHandler(exposition, errorHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "# HELP up\n", rec.Body.String())
	})
}
