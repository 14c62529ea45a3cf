package main

import "testing"

func TestHistoryLookup(t *testing.T) {
	h := NewHistoryBuffer(HistorySamples)
	for i := int64(0); i < 30; i++ {
		h.Push(float64(i*10), 800, i*16)
	}

	s, ok := h.At(160)
	if !ok {
		t.Fatal("lookup inside window failed")
	}
	if s.X != 100 {
		t.Errorf("sample x = %f, want 100", s.X)
	}

	// Between two samples the nearest wins.
	s, _ = h.At(167)
	if s.X != 100 {
		t.Errorf("nearest sample x = %f, want 100", s.X)
	}
	s, _ = h.At(169)
	if s.X != 110 {
		t.Errorf("nearest sample x = %f, want 110", s.X)
	}
}

func TestHistoryWindowCap(t *testing.T) {
	h := NewHistoryBuffer(HistorySamples)
	h.Push(100, 800, 10000)

	if _, ok := h.At(10000 - LagCompWindowMs - 100); ok {
		t.Error("lookup succeeded beyond the lag-comp window")
	}
	if _, ok := h.At(10000 - 200); ok == false {
		t.Error("lookup failed inside the window")
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistoryBuffer(HistorySamples)
	if _, ok := h.At(0); ok {
		t.Error("empty buffer returned a sample")
	}
}

func TestHistoryWraps(t *testing.T) {
	h := NewHistoryBuffer(4)
	for i := int64(0); i < 10; i++ {
		h.Push(float64(i), 0, i*16)
	}
	if h.Len() != 4 {
		t.Errorf("len = %d, want 4", h.Len())
	}
	// Oldest retained sample is i=6.
	if s, ok := h.At(6 * 16); !ok || s.X != 6 {
		t.Errorf("wrapped lookup = %+v ok=%v, want x=6", s, ok)
	}
}
