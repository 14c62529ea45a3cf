package main

import "testing"

func TestTimerQueueFiresInOrder(t *testing.T) {
	tq := NewTimerQueue()
	var fired []int
	tq.Schedule(300, func() { fired = append(fired, 3) })
	tq.Schedule(100, func() { fired = append(fired, 1) })
	tq.Schedule(200, func() { fired = append(fired, 2) })

	tq.Fire(50)
	if len(fired) != 0 {
		t.Fatalf("fired %v before any deadline", fired)
	}
	tq.Fire(250)
	if len(fired) != 2 || fired[0] != 1 || fired[1] != 2 {
		t.Fatalf("fired = %v, want [1 2]", fired)
	}
	tq.Fire(1000)
	if len(fired) != 3 || fired[2] != 3 {
		t.Fatalf("fired = %v, want [1 2 3]", fired)
	}
}

func TestTimerQueueTieBreaksByInsertion(t *testing.T) {
	tq := NewTimerQueue()
	var fired []int
	for i := 0; i < 5; i++ {
		i := i
		tq.Schedule(100, func() { fired = append(fired, i) })
	}
	tq.Fire(100)
	for i, v := range fired {
		if v != i {
			t.Fatalf("fired = %v, want insertion order", fired)
		}
	}
}

func TestTimerCancellation(t *testing.T) {
	tq := NewTimerQueue()
	ran := false
	h := tq.Schedule(100, func() { ran = true })
	h.Cancel()
	tq.Fire(200)
	if ran {
		t.Error("cancelled timer fired")
	}
	if tq.Pending() != 0 {
		t.Errorf("pending = %d, want 0", tq.Pending())
	}
	h.Cancel() // double-cancel is a no-op
}

func TestTimerCancelAll(t *testing.T) {
	tq := NewTimerQueue()
	count := 0
	for i := 0; i < 4; i++ {
		tq.Schedule(int64(100+i), func() { count++ })
	}
	tq.CancelAll()
	tq.Fire(1000)
	if count != 0 {
		t.Errorf("%d timers fired after CancelAll", count)
	}
}

func TestTimerReschedulingInsideCallback(t *testing.T) {
	tq := NewTimerQueue()
	var fired []string
	tq.Schedule(100, func() {
		fired = append(fired, "a")
		tq.Schedule(100, func() { fired = append(fired, "b") }) // due now
		tq.Schedule(500, func() { fired = append(fired, "c") }) // later
	})
	tq.Fire(100)
	if len(fired) != 2 || fired[0] != "a" || fired[1] != "b" {
		t.Fatalf("fired = %v, want [a b]", fired)
	}
	tq.Fire(500)
	if len(fired) != 3 || fired[2] != "c" {
		t.Fatalf("fired = %v, want [a b c]", fired)
	}
}
