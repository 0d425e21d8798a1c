package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"riskmond/internal/risk"
)

// Handlers holds all HTTP handler dependencies for the observability
// surface: health, the latest risk report, and the optional live stream.
type Handlers struct {
	metrics        *risk.Metrics
	isConnected    func() bool
	latestReport   func() *risk.Report
	hub            *Hub
	allowedOrigins []string
	logger         *slog.Logger
}

// NewHandlers creates a new handlers instance. isConnected and
// latestReport may be nil, in which case /healthz reports connected=false
// and /snapshot returns 404 until a report exists.
func NewHandlers(metrics *risk.Metrics, isConnected func() bool, latestReport func() *risk.Report,
	hub *Hub, allowedOrigins []string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		metrics:        metrics,
		isConnected:    isConnected,
		latestReport:   latestReport,
		hub:            hub,
		allowedOrigins: allowedOrigins,
		logger:         logger.With("component", "api-handlers"),
	}
}

// HandleHealthz reports feed connectivity and the gate's trading state.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	connected := h.isConnected != nil && h.isConnected()
	status := HealthStatus{Connected: connected}
	if h.metrics != nil {
		status.TradingEnabled = h.metrics.TradingEnabled()
		status.EmergencyStop = h.metrics.EmergencyStop()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// HandleSnapshot returns the most recent monitoring report as JSON.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.latestReport == nil {
		http.Error(w, "no report available", http.StatusNotFound)
		return
	}
	report := h.latestReport()
	if report == nil {
		http.Error(w, "no report available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Error("failed to encode report", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// HandleStream upgrades the connection to a read-only WebSocket event feed.
func (h *Handlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(req *http.Request) bool {
			return isOriginAllowed(req.Header.Get("Origin"), h.allowedOrigins, req.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("stream upgrade failed", "error", err)
		return
	}
	NewClient(h.hub, conn)
}
