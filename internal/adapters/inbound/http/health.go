// Package http serves the keeper's probe and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/archon-research/keeper/internal/ports/inbound"
)

// HealthServerConfig holds configuration for the health server.
type HealthServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Role is reported in every status body.
	Role         string
	Logger       *slog.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Gatherer backs /metrics. Nil leaves the endpoint unmounted.
	Gatherer prometheus.Gatherer
}

// HealthServer exposes:
//   - /health/ready: 200 once the keeper completed a cycle
//   - /health/live: 200 while cycles keep completing
//   - /health: both, for dashboards
//   - /metrics: Prometheus scrape endpoint
//
// All probes report 503 once shuttingDown is set.
type HealthServer struct {
	server       *http.Server
	checker      inbound.HealthChecker
	role         string
	shuttingDown *atomic.Bool
	logger       *slog.Logger
}

// NewHealthServer creates a new health server.
func NewHealthServer(config HealthServerConfig, checker inbound.HealthChecker, shuttingDown *atomic.Bool) *HealthServer {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 5 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if shuttingDown == nil {
		shuttingDown = &atomic.Bool{}
	}

	hs := &HealthServer{
		checker:      checker,
		role:         config.Role,
		shuttingDown: shuttingDown,
		logger:       config.Logger.With("component", "health-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health/ready", hs.handleReady)
	mux.HandleFunc("/health/live", hs.handleLive)
	mux.HandleFunc("/health", hs.handleHealth)
	if config.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	}

	hs.server = &http.Server{
		Addr:         config.Addr,
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return hs
}

// Handler returns the server's mux.
func (hs *HealthServer) Handler() http.Handler {
	return hs.server.Handler
}

// Start serves in a background goroutine.
func (hs *HealthServer) Start() {
	go func() {
		hs.logger.Info("starting health server", "addr", hs.server.Addr)
		if err := hs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hs.logger.Error("health server failed", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (hs *HealthServer) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return hs.server.Shutdown(ctx)
}

type probeStatus struct {
	Status       string `json:"status"`
	Role         string `json:"role,omitempty"`
	Ready        *bool  `json:"ready,omitempty"`
	Healthy      *bool  `json:"healthy,omitempty"`
	ShuttingDown bool   `json:"shuttingDown,omitempty"`
}

func (hs *HealthServer) probe(w http.ResponseWriter, ok bool, up, down string) {
	if hs.shuttingDown.Load() {
		hs.respondJSON(w, http.StatusServiceUnavailable, probeStatus{Status: "shutting_down", Role: hs.role, ShuttingDown: true})
		return
	}
	if ok {
		hs.respondJSON(w, http.StatusOK, probeStatus{Status: up, Role: hs.role})
		return
	}
	hs.respondJSON(w, http.StatusServiceUnavailable, probeStatus{Status: down, Role: hs.role})
}

func (hs *HealthServer) handleReady(w http.ResponseWriter, _ *http.Request) {
	hs.probe(w, hs.checker.IsReady(), "ready", "not_ready")
}

func (hs *HealthServer) handleLive(w http.ResponseWriter, _ *http.Request) {
	hs.probe(w, hs.checker.IsHealthy(), "healthy", "unhealthy")
}

func (hs *HealthServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if hs.shuttingDown.Load() {
		hs.respondJSON(w, http.StatusServiceUnavailable, probeStatus{Status: "shutting_down", Role: hs.role, ShuttingDown: true})
		return
	}

	ready, healthy := hs.checker.IsReady(), hs.checker.IsHealthy()
	body := probeStatus{Status: "ok", Role: hs.role, Ready: &ready, Healthy: &healthy}
	code := http.StatusOK
	if !ready || !healthy {
		body.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	hs.respondJSON(w, code, body)
}

func (hs *HealthServer) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		hs.logger.Error("failed to encode JSON response", "error", err)
	}
}
