package protocol

import (
	"encoding/binary"
	"math"
)

// payloadSize returns the fixed payload length for kind, or (0, false) for
// kinds this repo does not decode a fixed payload for (length-validated
// only, per §4.5).
func payloadSize(k Kind) (int, bool) {
	switch k {
	case KindTrade:
		return tradePayloadSize, true
	case KindQuote:
		return quotePayloadSize, true
	case KindOrderUpdate:
		return orderPayloadSize, true
	case KindHeartbeat:
		return 0, true
	default:
		return 0, false
	}
}

// frameLength is the canonical msg_length for a frame of kind k: header
// plus payload. The reference source's trade-length check cancels the
// header size out of this sum; that arithmetic is not replicated here or
// anywhere downstream (see SPEC_FULL.md §13).
func frameLength(k Kind) (uint32, bool) {
	size, ok := payloadSize(k)
	if !ok {
		return 0, false
	}
	return uint32(HeaderSize + size), true
}

func readU64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }
func readF64(b []byte) float64 {
	return math.Float64frombits(binary.NativeEndian.Uint64(b))
}
func writeF64(b []byte, v float64) {
	binary.NativeEndian.PutUint64(b, math.Float64bits(v))
}

// --- TRADE ---

const tradePayloadSize = 8 + 8 + 8 + 8 + 8 + 8 // symbol,trade,price,qty,buyer[8],seller[8]

// TradeMessage is a single executed trade print.
type TradeMessage struct {
	Header       Header
	SymbolID     uint64
	TradeID      uint64
	Price        float64
	Quantity     uint64
	BuyerBroker  [8]byte
	SellerBroker [8]byte
}

func decodeTrade(h Header, p []byte) TradeMessage {
	var m TradeMessage
	m.Header = h
	m.SymbolID = readU64(p[0:8])
	m.TradeID = readU64(p[8:16])
	m.Price = readF64(p[16:24])
	m.Quantity = readU64(p[24:32])
	copy(m.BuyerBroker[:], p[32:40])
	copy(m.SellerBroker[:], p[40:48])
	m.BuyerBroker[7] = 0
	m.SellerBroker[7] = 0
	return m
}

// EncodeTrade is the wire-format inverse of decodeTrade, used by tests and
// any producer-side tooling exercising round-trip fidelity.
func EncodeTrade(buf []byte, m TradeMessage) {
	binary.BigEndian.PutUint64(buf[0:8], m.SymbolID)
	binary.BigEndian.PutUint64(buf[8:16], m.TradeID)
	writeF64(buf[16:24], m.Price)
	binary.BigEndian.PutUint64(buf[24:32], m.Quantity)
	copy(buf[32:40], m.BuyerBroker[:])
	copy(buf[40:48], m.SellerBroker[:])
}

func validateTrade(m TradeMessage) bool {
	if m.Price <= 0 || m.Price > MaxPrice {
		return false
	}
	if m.Quantity == 0 || m.Quantity > MaxQuantity {
		return false
	}
	return true
}

// --- QUOTE ---

const (
	quoteLevels      = 5
	quoteLevelSize   = 8 + 8 + 2 // price, quantity, numOrders
	quotePayloadSize = 8 + 8 + 8 + 8 + 8 + quoteLevels*quoteLevelSize*2
)

// QuoteLevel is one price level of a depth ladder.
type QuoteLevel struct {
	Price     float64
	Quantity  uint64
	NumOrders uint16
}

// QuoteMessage is a top-of-book plus five-level depth snapshot.
type QuoteMessage struct {
	Header       Header
	SymbolID     uint64
	BidPrice     float64
	BidQuantity  uint64
	AskPrice     float64
	AskQuantity  uint64
	BidLevels    [quoteLevels]QuoteLevel
	AskLevels    [quoteLevels]QuoteLevel
	CrossedQuote bool // informational: bid >= ask while both > 0
}

func decodeQuote(h Header, p []byte) QuoteMessage {
	var m QuoteMessage
	m.Header = h
	off := 0
	m.SymbolID = readU64(p[off : off+8])
	off += 8
	m.BidPrice = readF64(p[off : off+8])
	off += 8
	m.BidQuantity = readU64(p[off : off+8])
	off += 8
	m.AskPrice = readF64(p[off : off+8])
	off += 8
	m.AskQuantity = readU64(p[off : off+8])
	off += 8

	for i := 0; i < quoteLevels; i++ {
		m.BidLevels[i], off = decodeLevel(p, off)
	}
	for i := 0; i < quoteLevels; i++ {
		m.AskLevels[i], off = decodeLevel(p, off)
	}

	if m.BidPrice > 0 && m.AskPrice > 0 && m.BidPrice >= m.AskPrice {
		m.CrossedQuote = true
	}
	return m
}

func decodeLevel(p []byte, off int) (QuoteLevel, int) {
	lvl := QuoteLevel{
		Price:     readF64(p[off : off+8]),
		Quantity:  readU64(p[off+8 : off+16]),
		NumOrders: binary.BigEndian.Uint16(p[off+16 : off+18]),
	}
	return lvl, off + quoteLevelSize
}

func validateQuote(m QuoteMessage) bool {
	check := func(price float64) bool { return price >= 0 && price <= MaxPrice }
	if !check(m.BidPrice) || !check(m.AskPrice) {
		return false
	}
	for _, lvl := range m.BidLevels {
		if !check(lvl.Price) {
			return false
		}
	}
	for _, lvl := range m.AskLevels {
		if !check(lvl.Price) {
			return false
		}
	}
	return true
}

// --- ORDER UPDATE ---

const orderPayloadSize = 8 + 8 + 1 + 8 + 8 + 8 + 1

// OrderUpdateMessage reflects a change to a resting order's status.
type OrderUpdateMessage struct {
	Header            Header
	SymbolID          uint64
	OrderID           uint64
	OrderType         byte
	Price             float64
	Quantity          uint64
	DisclosedQuantity uint64
	OrderStatus       byte
}

func decodeOrderUpdate(h Header, p []byte) OrderUpdateMessage {
	return OrderUpdateMessage{
		Header:            h,
		SymbolID:          readU64(p[0:8]),
		OrderID:           readU64(p[8:16]),
		OrderType:         p[16],
		Price:             readF64(p[17:25]),
		Quantity:          readU64(p[25:33]),
		DisclosedQuantity: readU64(p[33:41]),
		OrderStatus:       p[41],
	}
}

func validateOrderUpdate(m OrderUpdateMessage) bool {
	if m.Price < 0 || m.Price > MaxPrice {
		return false
	}
	if m.Quantity > MaxQuantity {
		return false
	}
	return true
}
