package main

import "testing"

func TestConnGatePerIPLimit(t *testing.T) {
	cg := newConnGate(2, 100)
	if !cg.acquire("1.1.1.1") || !cg.acquire("1.1.1.1") {
		t.Fatal("slots under the per-IP limit refused")
	}
	if cg.acquire("1.1.1.1") {
		t.Error("third connection from one IP accepted")
	}
	if !cg.acquire("2.2.2.2") {
		t.Error("different IP blocked by another IP's count")
	}
	cg.release("1.1.1.1")
	if !cg.acquire("1.1.1.1") {
		t.Error("released slot not reusable")
	}
}

func TestConnGateTotalLimit(t *testing.T) {
	cg := newConnGate(10, 3)
	for i, ip := range []string{"a", "b", "c"} {
		if !cg.acquire(ip) {
			t.Fatalf("connection %d refused under the total limit", i)
		}
	}
	if cg.acquire("d") {
		t.Error("connection accepted past the total limit")
	}
	if cg.inUse() != 3 {
		t.Errorf("inUse = %d, want 3", cg.inUse())
	}
	cg.release("a")
	if !cg.acquire("d") {
		t.Error("freed total slot not reusable")
	}
}

func TestConnGateReleaseCleansMap(t *testing.T) {
	cg := newConnGate(5, 100)
	cg.acquire("9.9.9.9")
	cg.release("9.9.9.9")
	if _, ok := cg.perIP["9.9.9.9"]; ok {
		t.Error("zero-count IP entry left in the map")
	}
	if cg.inUse() != 0 {
		t.Errorf("inUse = %d, want 0", cg.inUse())
	}
}
