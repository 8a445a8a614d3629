package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"IoMTSpectra/internal/query"

	"github.com/gorilla/mux"
)

// Handler holds the dependencies for the HTTP API.
type Handler struct {
	querier query.Querier
}

// NewRouter builds the API router over the given querier.
func NewRouter(q query.Querier) *mux.Router {
	h := &Handler{querier: q}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/metrics/latest", h.latestMetricsHandler).Methods("GET")
	r.HandleFunc("/api/v1/metrics/history", h.metricsHistoryHandler).Methods("GET")
	return r
}

// latestMetricsHandler serves the device rows of the most recent run.
func (h *Handler) latestMetricsHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.querier.LatestMetrics(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query metrics: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, results)
}

// metricsHistoryHandler serves rows in a time range. from/to are RFC3339
// query parameters; the default window is the last 24 hours.
func (h *Handler) metricsHistoryHandler(w http.ResponseWriter, r *http.Request) {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid 'from' timestamp: %v", err), http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid 'to' timestamp: %v", err), http.StatusBadRequest)
			return
		}
		to = t
	}

	results, err := h.querier.MetricsRange(r.Context(), from, to)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query metrics: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, results)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Error: failed to write response: %v", err)
	}
}
