// Package symbols implements the bidirectional symbol id/name registry,
// loaded at startup by cmd/riskmond.
package symbols

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
)

// InstrumentType classifies a listed instrument.
type InstrumentType string

const (
	Equity InstrumentType = "EQUITY"
	Future InstrumentType = "FUTURE"
	Option InstrumentType = "OPTION"
	Index  InstrumentType = "INDEX"
)

func parseInstrumentType(s string, logger *slog.Logger) InstrumentType {
	switch InstrumentType(s) {
	case Equity, Future, Option, Index:
		return InstrumentType(s)
	default:
		logger.Warn("unknown instrument type, defaulting to EQUITY", "type", s)
		return Equity
	}
}

// Info is the immutable metadata record for one instrument.
type Info struct {
	SymbolID      uint64
	SymbolName    string
	ISIN          string
	Type          InstrumentType
	TickSize      float64
	LotSize       uint64
	UpperCircuit  float64
	LowerCircuit  float64
}

// defaultSymbols is loaded when the master source cannot be opened, so the
// registry is never empty at startup.
var defaultSymbols = []Info{
	{SymbolID: 1, SymbolName: "RELIANCE", Type: Equity, TickSize: 0.05, LotSize: 1},
	{SymbolID: 2, SymbolName: "TCS", Type: Equity, TickSize: 0.05, LotSize: 1},
	{SymbolID: 3, SymbolName: "HDFCBANK", Type: Equity, TickSize: 0.05, LotSize: 1},
	{SymbolID: 4, SymbolName: "NIFTY", Type: Index, TickSize: 0.05, LotSize: 1},
	{SymbolID: 5, SymbolName: "BANKNIFTY", Type: Index, TickSize: 0.05, LotSize: 1},
}

// Registry is a bidirectional id<->name map, immutable after a load
// completes. Reload calls must be externally serialized; reads never
// block on each other.
type Registry struct {
	logger *slog.Logger

	mu     sync.RWMutex
	byID   map[uint64]Info
	byName map[string]Info
}

// New creates an empty registry. Call Load before using it.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, byID: map[uint64]Info{}, byName: map[string]Info{}}
}

// Load reads a CSV symbol master from r (header line skipped,
// "symbol_id,name,isin,type,tick_size,lot_size,upper_circuit,lower_circuit").
// Malformed lines are skipped and logged; the load itself never fails.
func (r *Registry) Load(src io.Reader) {
	byID := map[uint64]Info{}
	byName := map[string]Info{}

	scanner := bufio.NewScanner(src)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 8 {
			r.logger.Warn("skipping malformed symbol master line", "fields", len(fields))
			continue
		}

		info, ok := r.parseLine(fields)
		if !ok {
			continue
		}
		byID[info.SymbolID] = info
		byName[info.SymbolName] = info
	}

	r.mu.Lock()
	r.byID = byID
	r.byName = byName
	r.mu.Unlock()
}

func (r *Registry) parseLine(fields []string) (Info, bool) {
	symbolID, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		r.logger.Warn("skipping symbol master line: bad symbol_id", "err", err)
		return Info{}, false
	}
	tick, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		r.logger.Warn("skipping symbol master line: bad tick_size", "err", err)
		return Info{}, false
	}
	lot, err := strconv.ParseUint(strings.TrimSpace(fields[5]), 10, 64)
	if err != nil {
		r.logger.Warn("skipping symbol master line: bad lot_size", "err", err)
		return Info{}, false
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(fields[6]), 64)
	if err != nil {
		r.logger.Warn("skipping symbol master line: bad upper_circuit", "err", err)
		return Info{}, false
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(fields[7]), 64)
	if err != nil {
		r.logger.Warn("skipping symbol master line: bad lower_circuit", "err", err)
		return Info{}, false
	}

	return Info{
		SymbolID:     symbolID,
		SymbolName:   strings.TrimSpace(fields[1]),
		ISIN:         strings.TrimSpace(fields[2]),
		Type:         parseInstrumentType(strings.TrimSpace(fields[3]), r.logger),
		TickSize:     tick,
		LotSize:      lot,
		UpperCircuit: upper,
		LowerCircuit: lower,
	}, true
}

// LoadFile opens path and loads it as a CSV symbol master. If the file
// cannot be opened, the deterministic five-instrument fallback set is
// loaded instead and this still returns true (a warning is logged) — a
// missing symbol master is not fatal to startup.
func (r *Registry) LoadFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("symbol master unavailable, loading default instrument set", "path", path, "err", err)
		r.loadDefaults()
		return true
	}
	defer f.Close()
	r.Load(f)
	return true
}

func (r *Registry) loadDefaults() {
	byID := make(map[uint64]Info, len(defaultSymbols))
	byName := make(map[string]Info, len(defaultSymbols))
	for _, info := range defaultSymbols {
		byID[info.SymbolID] = info
		byName[info.SymbolName] = info
	}
	r.mu.Lock()
	r.byID = byID
	r.byName = byName
	r.mu.Unlock()
}

// ByID returns the instrument with the given id, or (zero, false).
func (r *Registry) ByID(id uint64) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byID[id]
	return info, ok
}

// ByName returns the instrument with the given ticker, or (zero, false).
func (r *Registry) ByName(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byName[name]
	return info, ok
}

// IDOf returns the symbol id for name, or 0 when absent.
func (r *Registry) IDOf(name string) uint64 {
	if info, ok := r.ByName(name); ok {
		return info.SymbolID
	}
	return 0
}

// NameOf returns the ticker for id, or "" when absent.
func (r *Registry) NameOf(id uint64) string {
	if info, ok := r.ByID(id); ok {
		return info.SymbolName
	}
	return ""
}

// Count returns the number of loaded instruments.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
