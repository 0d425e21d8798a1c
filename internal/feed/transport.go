// Package feed implements the TCP transport that feeds bytes into the
// framing parser, and the handler facade that bridges typed callbacks to
// consumers.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"riskmond/internal/protocol"
	"riskmond/internal/ratelimit"
)

const (
	connectTimeout  = 5 * time.Second
	readPoll        = 1 * time.Second
	receiveBufBytes = 4096
	socketRcvBuf    = 1 << 20 // 1 MiB
)

// Transport owns one TCP connection to the exchange feed: connect,
// low-latency socket options, a receiver loop that feeds a Parser, and an
// idempotent disconnect. One Transport instance maps to one Parser
// instance (single-writer discipline: the receiver goroutine is the sole
// writer into the parser's buffer).
type Transport struct {
	logger *slog.Logger
	parser *protocol.Parser

	messageLimiter    *ratelimit.TokenBucket
	connectionLimiter *ratelimit.SlidingWindow
	priorityLimiter   *ratelimit.PriorityLimiter
	priorityTier      ratelimit.Tier

	mu        sync.Mutex
	conn      net.Conn
	connected atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	lastMessageNano atomic.Int64
}

// NewTransport constructs a Transport feeding parser, gated by the given
// message-rate (C1) and connection-rate (C2) limiters.
func NewTransport(logger *slog.Logger, parser *protocol.Parser, messageLimiter *ratelimit.TokenBucket, connectionLimiter *ratelimit.SlidingWindow) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{logger: logger, parser: parser, messageLimiter: messageLimiter, connectionLimiter: connectionLimiter}
}

// WithPriority attaches an optional priority-tiered limiter (C15), consulted
// ahead of the plain message-rate bucket on every read. tier is fixed for
// the lifetime of this connection: each feed connection gets one priority
// class, not a per-message one. Returns t for chaining at construction.
func (t *Transport) WithPriority(limiter *ratelimit.PriorityLimiter, tier ratelimit.Tier) *Transport {
	t.priorityLimiter = limiter
	t.priorityTier = tier
	return t
}

// Connect dials host:port and, on success, starts the receiver goroutine.
// It consults the connection-rate limiter first and refuses to dial when
// exhausted.
func (t *Transport) Connect(ctx context.Context, host string, port int) error {
	if t.connectionLimiter != nil && !t.connectionLimiter.TryAcquire() {
		return errors.New("feed: connection rate limit exceeded")
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
		_ = tcpConn.SetReadBuffer(socketRcvBuf)
	}

	t.mu.Lock()
	t.conn = conn
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	t.connected.Store(true)
	t.wg.Add(1)
	go t.receiveLoop(runCtx)

	return nil
}

// receiveLoop polls the socket with a read deadline standing in for the
// reference implementation's readiness-poll loop, reads up to 4KiB at a
// time, consults the message-rate limiter, and feeds accepted bytes to
// the parser. It exits on context cancellation, peer close, or an
// unrecoverable read error.
func (t *Transport) receiveLoop(ctx context.Context) {
	defer t.wg.Done()
	defer t.connected.Store(false)

	buf := make([]byte, receiveBufBytes)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = t.conn.SetReadDeadline(time.Now().Add(readPoll))
		n, err := t.conn.Read(buf)
		if n > 0 {
			if t.admit() {
				t.parser.Feed(buf[:n])
				t.lastMessageNano.Store(time.Now().UnixNano())
			} else {
				t.logger.Warn("message rate limit exceeded, dropping read")
			}
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue // 1s poll timeout: normal, keep polling
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn("feed receive loop exiting on read error", "err", err)
			return
		}
	}
}

// admit consults the priority limiter (if configured) ahead of the plain
// message-rate bucket, matching C15's "before C1" ordering.
func (t *Transport) admit() bool {
	if t.priorityLimiter != nil && !t.priorityLimiter.TryAcquire(t.priorityTier) {
		return false
	}
	return t.messageLimiter == nil || t.messageLimiter.TryAcquire(1)
}

// Disconnect tears down the connection. Idempotent: calling it twice in a
// row, or calling it when never connected, is a no-op the second time.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	conn := t.conn
	cancel := t.cancel
	t.conn = nil
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil && conn == nil {
		return
	}
	t.connected.Store(false)
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close() // unblocks any in-flight Read, standing in for shutdown()
	}
	t.wg.Wait()
}

// IsConnected reports the transport's current connection state.
func (t *Transport) IsConnected() bool { return t.connected.Load() }

// LastMessageTime returns the time of the most recently processed read, or
// the zero Value if none has been processed yet.
func (t *Transport) LastMessageTime() time.Time {
	ns := t.lastMessageNano.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
