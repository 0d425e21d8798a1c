package protocol

import (
	"log/slog"
	"sync/atomic"
)

// phase is the framing state of one connection's accumulation buffer.
type phase int

const (
	phaseWaitingHeader phase = iota
	phaseReadingPayload
	phaseMessageComplete
	phaseError
)

// bufferCapacity is the fixed size of the per-connection accumulation
// buffer. One Parser owns exactly one such buffer; it is never shared
// across goroutines (single-writer discipline — see SPEC_FULL.md §5).
const bufferCapacity = 1 << 20 // 1 MiB

// Handlers are the typed callbacks a Parser dispatches completed messages
// to. A nil field is a no-op at dispatch time (the tagged-variant-over-
// capability-set pattern from SPEC_FULL.md §13). Panics from a handler are
// recovered, logged, and do not propagate into the caller of Feed.
type Handlers struct {
	OnTrade       func(TradeMessage)
	OnQuote       func(QuoteMessage)
	OnOrderUpdate func(OrderUpdateMessage)
	OnOther       func(Header, []byte)
}

// Parser is the per-connection framing state machine: it turns an
// arbitrarily chunked byte stream into validated, dispatched messages.
// It holds no lock; callers must serialize calls to Feed for a given
// instance (normally satisfied by one receiver goroutine per connection).
type Parser struct {
	logger   *slog.Logger
	handlers Handlers

	state    phase
	buf      []byte
	writeOff int
	expected int // expected total frame size once header is known
	header   Header

	messagesProcessed atomic.Uint64
	parseErrors       atomic.Uint64
}

// NewParser creates a Parser dispatching completed messages to h.
func NewParser(logger *slog.Logger, h Handlers) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:   logger,
		handlers: h,
		buf:      make([]byte, bufferCapacity),
	}
}

// MessagesProcessed returns the count of successfully dispatched messages.
func (p *Parser) MessagesProcessed() uint64 { return p.messagesProcessed.Load() }

// ParseErrors returns the count of frames rejected at any validation step.
func (p *Parser) ParseErrors() uint64 { return p.parseErrors.Load() }

// Feed consumes from data, advancing the state machine as far as possible,
// and returns the number of bytes consumed. It never blocks and never
// writes past bufferCapacity. Feeding is associative over chunking: the
// sequence of dispatched messages for any partitioning of the same overall
// byte stream is identical (P1).
func (p *Parser) Feed(data []byte) int {
	consumed := 0
	for consumed < len(data) {
		switch p.state {
		case phaseWaitingHeader:
			n := p.fillWaitingHeader(data[consumed:])
			consumed += n
			if n == 0 {
				return consumed
			}
		case phaseReadingPayload:
			n := p.fillReadingPayload(data[consumed:])
			consumed += n
			if n == 0 {
				return consumed
			}
		case phaseMessageComplete:
			p.completeMessage()
		case phaseError:
			p.resetParserState()
		default:
			p.resetParserState()
		}
	}
	if p.state == phaseMessageComplete {
		p.completeMessage()
	}
	return consumed
}

func (p *Parser) fillWaitingHeader(data []byte) int {
	need := HeaderSize - p.writeOff
	if need <= 0 {
		return 0
	}
	n := min(need, len(data))
	if p.writeOff+n > bufferCapacity {
		p.enterError()
		return 0
	}
	copy(p.buf[p.writeOff:p.writeOff+n], data[:n])
	p.writeOff += n

	if p.writeOff < HeaderSize {
		return n
	}

	h := decodeHeader(p.buf[:HeaderSize])
	if !h.validate() {
		p.logger.Warn("rejected frame header", "kind", h.Kind, "exchange", h.Exchange, "length", h.Length)
		p.parseErrors.Add(1)
		// Resync: drop the fewest leading bytes that leave a plausible header prefix.
		skip := 1
		for ; skip < HeaderSize; skip++ {
			b := p.buf[skip:HeaderSize]
			l := uint32(MinMsgSize)
			if len(b) >= 6 {
				l = uint32(b[2])<<24 | uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])
			}
			if Kind(b[0]).valid() && (len(b) < 2 || Exchange(b[1]).valid()) && l >= MinMsgSize && l <= MaxMsgSize {
				break
			}
		}
		copy(p.buf, p.buf[skip:HeaderSize])
		p.writeOff = HeaderSize - skip
		return n
	}

	p.header = h
	p.expected = int(h.Length)
	if p.writeOff >= p.expected {
		// Header-only frame (e.g. a heartbeat): nothing left to accumulate.
		p.state = phaseMessageComplete
	} else {
		p.state = phaseReadingPayload
	}
	return n
}

func (p *Parser) fillReadingPayload(data []byte) int {
	need := p.expected - p.writeOff
	if need <= 0 {
		p.state = phaseMessageComplete
		return 0
	}
	n := min(need, len(data))
	if p.writeOff+n > bufferCapacity || p.writeOff+n > p.expected {
		p.enterError()
		return 0
	}
	copy(p.buf[p.writeOff:p.writeOff+n], data[:n])
	p.writeOff += n

	if p.writeOff >= p.expected {
		p.state = phaseMessageComplete
	}
	return n
}

func (p *Parser) completeMessage() {
	h := decodeHeader(p.buf[:HeaderSize])
	payload := p.buf[HeaderSize:p.writeOff]

	if !p.validateMessage(h, payload) {
		p.parseErrors.Add(1)
		p.resetParserState()
		return
	}

	p.dispatch(h, payload)
	p.messagesProcessed.Add(1)
	p.resetParserState()
}

func (p *Parser) validateMessage(h Header, payload []byte) bool {
	switch h.Kind {
	case KindTrade:
		if len(payload) < tradePayloadSize {
			return false
		}
		return validateTrade(decodeTrade(h, payload))
	case KindQuote:
		if len(payload) < quotePayloadSize {
			return false
		}
		return validateQuote(decodeQuote(h, payload))
	case KindOrderUpdate:
		if len(payload) < orderPayloadSize {
			return false
		}
		return validateOrderUpdate(decodeOrderUpdate(h, payload))
	case KindHeartbeat:
		return true
	default:
		return true // length-validated only, per §4.5
	}
}

func (p *Parser) dispatch(h Header, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("consumer handler panicked", "kind", h.Kind, "panic", r)
		}
	}()

	switch h.Kind {
	case KindTrade:
		if p.handlers.OnTrade != nil {
			p.handlers.OnTrade(decodeTrade(h, payload))
		}
	case KindQuote:
		if p.handlers.OnQuote != nil {
			p.handlers.OnQuote(decodeQuote(h, payload))
		}
	case KindOrderUpdate:
		if p.handlers.OnOrderUpdate != nil {
			p.handlers.OnOrderUpdate(decodeOrderUpdate(h, payload))
		}
	default:
		if p.handlers.OnOther != nil {
			p.handlers.OnOther(h, payload)
		} else {
			p.logger.Debug("unhandled message kind", "kind", h.Kind)
		}
	}
}

func (p *Parser) enterError() {
	p.parseErrors.Add(1)
	p.state = phaseError
}

// resetParserState returns the machine to WAITING_HEADER. Only the first
// 1KiB of the buffer is zeroed, matching the reference implementation's
// deliberate choice not to pay for zeroing the full 1MiB buffer on every
// message boundary; any stale bytes beyond that are always fully
// overwritten before being read again because writeOff resets to zero.
func (p *Parser) resetParserState() {
	const clearSpan = 1024
	n := min(clearSpan, len(p.buf))
	clear(p.buf[:n])
	p.writeOff = 0
	p.expected = 0
	p.state = phaseWaitingHeader
}
