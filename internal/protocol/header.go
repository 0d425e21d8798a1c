// Package protocol implements the exchange wire framing state machine and
// the typed message decoders that sit on top of it: a byte stream in,
// validated, dispatched messages out, tolerant of arbitrary chunking and
// adversarial input.
package protocol

import "encoding/binary"

// Kind tags the payload that follows a frame's header.
type Kind uint8

const (
	KindTrade Kind = iota + 1
	KindQuote
	KindOrderUpdate
	KindMarketStatus
	KindSymbolUpdate
	KindIndexUpdate
	KindHeartbeat
)

func (k Kind) valid() bool {
	return k >= KindTrade && k <= KindHeartbeat
}

func (k Kind) String() string {
	switch k {
	case KindTrade:
		return "TRADE"
	case KindQuote:
		return "QUOTE"
	case KindOrderUpdate:
		return "ORDER_UPDATE"
	case KindMarketStatus:
		return "MARKET_STATUS"
	case KindSymbolUpdate:
		return "SYMBOL_UPDATE"
	case KindIndexUpdate:
		return "INDEX_UPDATE"
	case KindHeartbeat:
		return "HEARTBEAT"
	default:
		return "UNKNOWN"
	}
}

// Exchange tags which venue produced the frame.
type Exchange uint8

const (
	ExchangeNSE Exchange = iota + 1
	ExchangeBSE
	ExchangeMCX
)

func (e Exchange) valid() bool {
	return e >= ExchangeNSE && e <= ExchangeMCX
}

const (
	// HeaderSize is the fixed wire size of Header: 1 (kind) + 1 (exchange)
	// + 4 (length) + 8 (sequence) + 8 (timestamp) bytes.
	HeaderSize = 22

	// MaxMsgSize bounds the total frame length (header + payload).
	MaxMsgSize = 4096
	// MinMsgSize is the smallest legal frame: a bare header (a heartbeat).
	MinMsgSize = HeaderSize

	// MaxPrice and MaxQuantity bound decoded payload fields.
	MaxPrice    = 999999.99
	MaxQuantity = 99999999999
)

// Header is the fixed-layout prefix of every frame. Length and Sequence are
// big-endian on the wire; Timestamp is also encoded big-endian here (the
// reference implementation left it in host order as an apparent oversight
// of its own byte-swap pass — this repo treats all multi-byte header
// integers uniformly, see DESIGN.md).
type Header struct {
	Kind      Kind
	Exchange  Exchange
	Length    uint32
	Sequence  uint64
	Timestamp int64 // nanoseconds since Unix epoch
}

// decodeHeader reads a Header from the first HeaderSize bytes of buf.
// buf must be at least HeaderSize long.
func decodeHeader(buf []byte) Header {
	return Header{
		Kind:      Kind(buf[0]),
		Exchange:  Exchange(buf[1]),
		Length:    binary.BigEndian.Uint32(buf[2:6]),
		Sequence:  binary.BigEndian.Uint64(buf[6:14]),
		Timestamp: int64(binary.BigEndian.Uint64(buf[14:22])),
	}
}

// EncodeHeader writes h to the first HeaderSize bytes of buf, which must be
// at least that long. Exposed for tests and for any producer-side tooling.
func EncodeHeader(buf []byte, h Header) {
	buf[0] = byte(h.Kind)
	buf[1] = byte(h.Exchange)
	binary.BigEndian.PutUint32(buf[2:6], h.Length)
	binary.BigEndian.PutUint64(buf[6:14], h.Sequence)
	binary.BigEndian.PutUint64(buf[14:22], uint64(h.Timestamp))
}

// validate checks kind/exchange membership and the total-length bound.
// It does not know the payload size for a given kind; the parser's
// validateMessage checks separately that the payload holds at least
// payloadSize(kind) bytes.
func (h Header) validate() bool {
	if !h.Kind.valid() || !h.Exchange.valid() {
		return false
	}
	return h.Length >= MinMsgSize && h.Length <= MaxMsgSize
}
