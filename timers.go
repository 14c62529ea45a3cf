package main

import "container/heap"

// TimerHandle cancels a scheduled callback. Cancellation tombstones the
// entry; the heap drops it when it surfaces.
type TimerHandle struct {
	cancelled bool
}

// Cancel marks the timer as dead. Safe to call more than once.
func (t *TimerHandle) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

type timerEntry struct {
	fireAt int64 // sim ms
	seq    uint64
	fn     func()
	handle *TimerHandle
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// TimerQueue is the simulation-owned replacement for one-shot wall-clock
// timers. Entries fire against sim time, drained at the top of each tick, so
// skill expiries and goal resets are deterministic when tests step the
// scheduler by hand. Not safe for concurrent use; the loop owns it.
type TimerQueue struct {
	heap timerHeap
	seq  uint64
}

// NewTimerQueue creates an empty queue.
func NewTimerQueue() *TimerQueue {
	tq := &TimerQueue{}
	heap.Init(&tq.heap)
	return tq
}

// Schedule registers fn to run at sim time fireAt. Ties fire in insertion
// order.
func (tq *TimerQueue) Schedule(fireAt int64, fn func()) *TimerHandle {
	h := &TimerHandle{}
	tq.seq++
	heap.Push(&tq.heap, &timerEntry{fireAt: fireAt, seq: tq.seq, fn: fn, handle: h})
	return h
}

// Fire runs every due, uncancelled callback. Callbacks may schedule new
// timers; a callback scheduling at or before now fires within this drain.
func (tq *TimerQueue) Fire(now int64) {
	for tq.heap.Len() > 0 {
		next := tq.heap[0]
		if next.fireAt > now {
			return
		}
		heap.Pop(&tq.heap)
		if next.handle.cancelled {
			continue
		}
		next.fn()
	}
}

// CancelAll tombstones every pending entry. Used on game reset.
func (tq *TimerQueue) CancelAll() {
	for _, e := range tq.heap {
		e.handle.cancelled = true
	}
}

// Pending counts live entries, for tests and metrics.
func (tq *TimerQueue) Pending() int {
	n := 0
	for _, e := range tq.heap {
		if !e.handle.cancelled {
			n++
		}
	}
	return n
}
