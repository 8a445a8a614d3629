package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"IoMTSpectra/internal/query"
)

type stubQuerier struct {
	latest []query.StoredMetrics
	ranged []query.StoredMetrics
}

func (s *stubQuerier) LatestMetrics(ctx context.Context) ([]query.StoredMetrics, error) {
	return s.latest, nil
}

func (s *stubQuerier) MetricsRange(ctx context.Context, from, to time.Time) ([]query.StoredMetrics, error) {
	return s.ranged, nil
}

func TestLatestMetricsHandler(t *testing.T) {
	q := &stubQuerier{latest: []query.StoredMetrics{{Device: "Robot Ctrl", Safety: "pass"}}}
	router := NewRouter(q)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/latest", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var results []query.StoredMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 || results[0].Device != "Robot Ctrl" {
		t.Errorf("unexpected response: %+v", results)
	}
}

func TestMetricsHistoryHandler_BadTimestamp(t *testing.T) {
	router := NewRouter(&stubQuerier{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/history?from=yesterday", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed timestamp, got %d", rec.Code)
	}
}
