package http

import (
	"net/http"

	apierrors "optionrank/internal/errors"
)

// MetricsHandler serves the Prometheus exposition of the engine metrics
type MetricsHandler struct {
	exposition   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a metrics handler. A nil exposition means
// metrics are disabled and the endpoint answers 503.
func NewMetricsHandler(exposition http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{exposition: exposition, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusServiceUnavailable,
			apierrors.CodeServiceUnavailable,
			"Metrics are disabled",
			map[string]interface{}{"setting": "OPTIONRANK_TELEMETRY_ENABLE_METRICS"},
		))
		return
	}
	h.exposition.ServeHTTP(w, r)
}
