// Package api is the HTTP observability surface: health, Prometheus
// metrics, the latest monitoring report, and an optional live event
// stream. None of it sits on the trading hot path.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"riskmond/internal/latency"
	"riskmond/internal/risk"
)

// Server runs the observability HTTP surface.
type Server struct {
	hub      *Hub
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
}

// Options configures NewServer. Stream enables the optional /stream route;
// AllowedOrigins restricts which Origins may open it (empty means
// same-host/localhost only).
type Options struct {
	ListenAddr     string
	Stream         bool
	AllowedOrigins []string
	IsConnected    func() bool
	LatestReport   func() *risk.Report
}

// NewServer builds the mux and underlying http.Server. It registers its own
// prometheus.Registry (not the global default) so the surface is
// self-contained and safe to construct more than once in tests.
func NewServer(opts Options, metrics *risk.Metrics, tracker *latency.Tracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	hub := NewHub(logger)
	handlers := NewHandlers(metrics, opts.IsConnected, opts.LatestReport, hub, opts.AllowedOrigins, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(newMetricsCollector(metrics, tracker))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/snapshot", handlers.HandleSnapshot)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if opts.Stream {
		mux.HandleFunc("/stream", handlers.HandleStream)
	}

	httpServer := &http.Server{
		Addr:         opts.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		hub:      hub,
		handlers: handlers,
		server:   httpServer,
		logger:   logger.With("component", "api-server"),
	}
}

// Broadcast pushes an event to every connected /stream client. A no-op if
// the stream route wasn't enabled (the hub simply has no clients).
func (s *Server) Broadcast(evt StreamEvent) { s.hub.Broadcast(evt) }

// Start starts the hub loop and blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	go s.hub.Run()

	s.logger.Info("observability server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.logger.Info("stopping observability server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
