package symbols

import (
	"strings"
	"testing"
)

const sampleCSV = `symbol_id,name,isin,type,tick_size,lot_size,upper_circuit,lower_circuit
1,RELIANCE,INE002A01018,EQUITY,0.05,1,2900.00,2400.00
2,NIFTY,,INDEX,0.05,1,0,0
3,BADLINE,onlythreefields
`

func TestRegistryLoadFromCSV(t *testing.T) {
	t.Parallel()
	r := New(nil)
	r.Load(strings.NewReader(sampleCSV))

	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2 (malformed line must be skipped)", r.Count())
	}

	info, ok := r.ByID(1)
	if !ok || info.SymbolName != "RELIANCE" || info.Type != Equity {
		t.Errorf("ByID(1) = %+v, ok=%v", info, ok)
	}
	if r.IDOf("NIFTY") != 2 {
		t.Errorf("IDOf(NIFTY) = %d, want 2", r.IDOf("NIFTY"))
	}
	if r.NameOf(1) != "RELIANCE" {
		t.Errorf("NameOf(1) = %q, want RELIANCE", r.NameOf(1))
	}
}

func TestRegistryUnknownTypeFallsBackToEquity(t *testing.T) {
	t.Parallel()
	r := New(nil)
	r.Load(strings.NewReader("h\n1,FOO,ISIN1,BOND,0.05,1,0,0\n"))

	info, ok := r.ByID(1)
	if !ok {
		t.Fatal("expected symbol to load despite unknown type")
	}
	if info.Type != Equity {
		t.Errorf("Type = %v, want EQUITY fallback", info.Type)
	}
}

func TestRegistryLoadFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()
	r := New(nil)
	ok := r.LoadFile("/nonexistent/path/symbols.csv")

	if !ok {
		t.Fatal("LoadFile should return true even when the source is unopenable")
	}
	if r.Count() != len(defaultSymbols) {
		t.Fatalf("Count() = %d, want %d default instruments", r.Count(), len(defaultSymbols))
	}
	if r.IDOf("RELIANCE") != 1 {
		t.Error("expected RELIANCE to be among the default instruments")
	}
}

func TestRegistryIsBijection(t *testing.T) {
	t.Parallel()
	r := New(nil)
	r.Load(strings.NewReader(sampleCSV))

	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.byID) != len(r.byName) {
		t.Fatalf("byID has %d entries, byName has %d: not a bijection", len(r.byID), len(r.byName))
	}
	for id, info := range r.byID {
		byName, ok := r.byName[info.SymbolName]
		if !ok || byName.SymbolID != id {
			t.Errorf("id %d not reachable via byName bijectively", id)
		}
	}
}

func TestRegistryAbsentLookups(t *testing.T) {
	t.Parallel()
	r := New(nil)
	if _, ok := r.ByID(999); ok {
		t.Error("expected absent id to report ok=false")
	}
	if r.IDOf("NOPE") != 0 {
		t.Error("expected IDOf on absent name to return 0")
	}
	if r.NameOf(999) != "" {
		t.Error("expected NameOf on absent id to return empty string")
	}
}
