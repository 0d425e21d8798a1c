package feed

import (
	"context"
	"log/slog"

	"riskmond/internal/protocol"
	"riskmond/internal/ratelimit"
	"riskmond/internal/risk"
)

// Handler is the facade a consumer actually talks to: it owns the parser,
// the transport, and the subscription surface, and wires every dispatched
// message into the shared risk Metrics' message counter. Consumers attach
// typed callbacks once, at construction, and then only call Start/Stop.
type Handler struct {
	logger    *slog.Logger
	parser    *protocol.Parser
	transport *Transport
	metrics   *risk.Metrics
}

// Subscriptions are the consumer-supplied callbacks for each message kind.
// Any field may be left nil.
type Subscriptions struct {
	OnTrade       func(protocol.TradeMessage)
	OnQuote       func(protocol.QuoteMessage)
	OnOrderUpdate func(protocol.OrderUpdateMessage)
}

// NewHandler builds the parser and transport for one feed connection and
// wires subs through to the parser's dispatch, recording a risk metric
// message count alongside each delivered callback. messageLimiter and
// connectionLimiter may be nil to disable that admission check.
func NewHandler(logger *slog.Logger, metrics *risk.Metrics, subs Subscriptions,
	messageLimiter *ratelimit.TokenBucket, connectionLimiter *ratelimit.SlidingWindow) *Handler {
	return newHandler(logger, metrics, subs, messageLimiter, connectionLimiter, nil, ratelimit.TierLow)
}

// NewPrioritizedHandler is NewHandler plus an optional C15 priority-tiered
// limiter consulted ahead of messageLimiter for this connection's tier.
func NewPrioritizedHandler(logger *slog.Logger, metrics *risk.Metrics, subs Subscriptions,
	messageLimiter *ratelimit.TokenBucket, connectionLimiter *ratelimit.SlidingWindow,
	priorityLimiter *ratelimit.PriorityLimiter, tier ratelimit.Tier) *Handler {
	return newHandler(logger, metrics, subs, messageLimiter, connectionLimiter, priorityLimiter, tier)
}

func newHandler(logger *slog.Logger, metrics *risk.Metrics, subs Subscriptions,
	messageLimiter *ratelimit.TokenBucket, connectionLimiter *ratelimit.SlidingWindow,
	priorityLimiter *ratelimit.PriorityLimiter, tier ratelimit.Tier) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{logger: logger, metrics: metrics}

	handlers := protocol.Handlers{
		OnTrade: func(m protocol.TradeMessage) {
			h.countMessage()
			if subs.OnTrade != nil {
				subs.OnTrade(m)
			}
		},
		OnQuote: func(m protocol.QuoteMessage) {
			h.countMessage()
			if subs.OnQuote != nil {
				subs.OnQuote(m)
			}
		},
		OnOrderUpdate: func(m protocol.OrderUpdateMessage) {
			h.countMessage()
			if subs.OnOrderUpdate != nil {
				subs.OnOrderUpdate(m)
			}
		},
		OnOther: func(protocol.Header, []byte) {
			h.countMessage()
		},
	}

	h.parser = protocol.NewParser(logger, handlers)
	h.transport = NewTransport(logger, h.parser, messageLimiter, connectionLimiter).WithPriority(priorityLimiter, tier)
	return h
}

func (h *Handler) countMessage() {
	if h.metrics != nil {
		h.metrics.RecordMessage()
	}
}

// Start connects the underlying transport to host:port.
func (h *Handler) Start(ctx context.Context, host string, port int) error {
	return h.transport.Connect(ctx, host, port)
}

// Stop disconnects the underlying transport. Idempotent.
func (h *Handler) Stop() { h.transport.Disconnect() }

// IsConnected reports the transport's current connection state.
func (h *Handler) IsConnected() bool { return h.transport.IsConnected() }

// MessagesProcessed returns the parser's lifetime dispatched-message count.
func (h *Handler) MessagesProcessed() uint64 { return h.parser.MessagesProcessed() }

// ParseErrors returns the parser's lifetime rejected-frame count.
func (h *Handler) ParseErrors() uint64 { return h.parser.ParseErrors() }
