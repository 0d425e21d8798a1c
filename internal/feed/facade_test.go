package feed

import (
	"context"
	"net"
	"testing"
	"time"

	"riskmond/internal/risk"
)

func TestHandlerDispatchesAndCountsMessages(t *testing.T) {
	t.Parallel()
	ln, host, port := listen(t)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(buildHeartbeatFrame())
	}()

	metrics := risk.NewMetrics()
	h := NewHandler(nil, metrics, Subscriptions{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.Start(ctx, host, port); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.Stop()

	// The heartbeat lands on the handler's own OnOther wiring, which counts it.
	deadline := time.Now().Add(2 * time.Second)
	for metrics.CurrentMessageRate() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for dispatch")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if metrics.CurrentMessageRate() == 0 {
		t.Error("expected message rate counter to be incremented by dispatch")
	}
}

func TestHandlerStopIsIdempotent(t *testing.T) {
	t.Parallel()
	ln, host, port := listen(t)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.(*net.TCPConn).SetLinger(0)
		}
	}()

	h := NewHandler(nil, risk.NewMetrics(), Subscriptions{}, nil, nil)
	ctx := context.Background()
	if err := h.Start(ctx, host, port); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	h.Stop()
	h.Stop()
	if h.IsConnected() {
		t.Error("expected IsConnected() = false after Stop")
	}
}
