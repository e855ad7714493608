package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type mockHealthChecker struct {
	ready   bool
	healthy bool
}

func (m *mockHealthChecker) IsReady() bool   { return m.ready }
func (m *mockHealthChecker) IsHealthy() bool { return m.healthy }

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding %s body: %v", path, err)
		}
	}
	return rec.Code, body
}

func TestHealthServer_Probes(t *testing.T) {
	tests := []struct {
		name       string
		checker    mockHealthChecker
		shutting   bool
		path       string
		wantCode   int
		wantStatus string
	}{
		{"ready", mockHealthChecker{ready: true, healthy: true}, false, "/health/ready", 200, "ready"},
		{"not ready", mockHealthChecker{}, false, "/health/ready", 503, "not_ready"},
		{"live", mockHealthChecker{healthy: true}, false, "/health/live", 200, "healthy"},
		{"stalled", mockHealthChecker{ready: true}, false, "/health/live", 503, "unhealthy"},
		{"combined ok", mockHealthChecker{ready: true, healthy: true}, false, "/health", 200, "ok"},
		{"combined degraded", mockHealthChecker{ready: true}, false, "/health", 503, "degraded"},
		{"shutting down", mockHealthChecker{ready: true, healthy: true}, true, "/health/ready", 503, "shutting_down"},
		{"shutting down combined", mockHealthChecker{ready: true, healthy: true}, true, "/health", 503, "shutting_down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var shutting atomic.Bool
			shutting.Store(tt.shutting)
			checker := tt.checker
			hs := NewHealthServer(HealthServerConfig{Role: "open"}, &checker, &shutting)

			code, body := get(t, hs.Handler(), tt.path)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", body["status"], tt.wantStatus)
			}
			if body["role"] != "open" {
				t.Errorf("role = %v, want open", body["role"])
			}
		})
	}
}

func TestHealthServer_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "keeper_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	hs := NewHealthServer(HealthServerConfig{Gatherer: registry}, &mockHealthChecker{}, nil)
	rec := httptest.NewRecorder()
	hs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "keeper_test_total 1") {
		t.Errorf("metrics body missing counter: %s", rec.Body.String())
	}
}

func TestHealthServer_NoMetricsWithoutGatherer(t *testing.T) {
	hs := NewHealthServer(HealthServerConfig{}, &mockHealthChecker{}, nil)
	rec := httptest.NewRecorder()
	hs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
}
