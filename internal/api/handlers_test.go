package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"riskmond/internal/risk"
)

func TestIsOriginAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		reqHost        string
		want           bool
	}{
		{name: "empty origin is allowed", origin: "", reqHost: "localhost:8080", want: true},
		{name: "localhost origin allowed by default", origin: "http://localhost:8080", reqHost: "localhost:8080", want: true},
		{name: "non-local origin denied by default", origin: "https://evil.example", reqHost: "localhost:8080", want: false},
		{
			name:           "allowlist permits exact origin",
			origin:         "https://dash.example.com",
			allowedOrigins: []string{"https://dash.example.com"},
			reqHost:        "0.0.0.0:8080",
			want:           true,
		},
		{
			name:           "allowlist denies everything else",
			origin:         "https://evil.example",
			allowedOrigins: []string{"https://dash.example.com"},
			reqHost:        "0.0.0.0:8080",
			want:           false,
		},
		{name: "same host allowed when no allowlist", origin: "https://mm.internal:8080", reqHost: "mm.internal:8080", want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isOriginAllowed(tt.origin, tt.allowedOrigins, tt.reqHost); got != tt.want {
				t.Fatalf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestHandleHealthzReportsConnectionAndTradingState(t *testing.T) {
	t.Parallel()
	metrics := risk.NewMetrics()
	h := NewHandlers(metrics, func() bool { return true }, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.HandleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"connected":true`) {
		t.Errorf("body = %s, want connected:true", rec.Body.String())
	}
}

func TestHandleSnapshotReturns404WithoutReport(t *testing.T) {
	t.Parallel()
	h := NewHandlers(nil, nil, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	rec := httptest.NewRecorder()
	h.HandleSnapshot(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 with no report registered", rec.Code)
	}
}

func TestHandleSnapshotReturnsLatestReport(t *testing.T) {
	t.Parallel()
	report := &risk.Report{DailyPnL: 42}
	h := NewHandlers(nil, nil, func() *risk.Report { return report }, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	rec := httptest.NewRecorder()
	h.HandleSnapshot(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"DailyPnL":42`) {
		t.Errorf("body = %s, want DailyPnL:42", rec.Body.String())
	}
}
