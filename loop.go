package main

import (
	"sync/atomic"
	"time"
)

const (
	// maxCatchUp caps how much real time one wake may consume (10 steps),
	// so a stalled process does not spiral.
	maxCatchUp = 160 * time.Millisecond

	tickDuration = PhysicsTickMs * time.Millisecond
)

// loopRunning counts live loops process-wide; it must never exceed 1.
var loopRunning int32

// LoopRunning reports whether a simulation loop is active.
func LoopRunning() bool {
	return atomic.LoadInt32(&loopRunning) == 1
}

// maybeStartLoopLocked starts the loop when the first player takes a team.
// Caller holds the game lock.
func (g *Game) maybeStartLoopLocked() {
	if g.running || g.activeSoccerPlayersLocked() == 0 {
		return
	}
	if g.cfg == nil {
		// No config means a test harness steps the simulation by hand.
		return
	}
	if !atomic.CompareAndSwapInt32(&loopRunning, 0, 1) {
		// Double start: detectable in metrics, otherwise a no-op.
		g.log.Warn().Msg("simulation loop already running, start ignored")
		return
	}
	g.running = true
	g.stopCh = make(chan struct{})
	g.loopStarts++
	g.record(EvtLoopStart, 0, "")
	g.log.Info().Uint64("starts", g.loopStarts).Msg("simulation loop started")
	go g.runLoop(g.stopCh)
}

// StopLoop halts the loop. Idempotent.
func (g *Game) StopLoop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLoopLocked()
}

func (g *Game) stopLoopLocked() {
	if !g.running {
		return
	}
	g.running = false
	close(g.stopCh)
	atomic.StoreInt32(&loopRunning, 0)
	g.record(EvtLoopStop, 0, "")
	g.log.Info().Msg("simulation loop stopped")
}

// runLoop is the drift-corrected fixed-timestep driver. Real elapsed time
// accumulates into the physics and network accumulators; physics advances in
// exact 16 ms steps and snapshots go out at the network cadence. The sleep
// targets an absolute monotonic deadline, so oversleep on one iteration is
// recovered on the next instead of compounding.
func (g *Game) runLoop(stop chan struct{}) {
	netTick := 25 * time.Millisecond
	if g.cfg != nil && g.cfg.NetworkTickMs > 0 {
		netTick = time.Duration(g.cfg.NetworkTickMs) * time.Millisecond
	}

	var physAcc, netAcc time.Duration
	lastWake := time.Now()
	target := lastWake.Add(tickDuration)

	for {
		select {
		case <-stop:
			return
		default:
		}

		now := time.Now()
		elapsed := now.Sub(lastWake)
		if elapsed > maxCatchUp {
			elapsed = maxCatchUp
		}
		lastWake = now
		physAcc += elapsed
		netAcc += elapsed

		g.mu.Lock()
		for physAcc >= tickDuration {
			g.step()
			physAcc -= tickDuration
		}
		if netAcc >= netTick {
			g.broadcastSnapshotsLocked()
			for netAcc >= netTick {
				netAcc -= netTick
			}
		}
		g.mu.Unlock()

		target = target.Add(tickDuration)
		if until := time.Until(target); until > 0 {
			time.Sleep(until)
		} else {
			// Behind schedule; rebase instead of busy-spinning.
			target = time.Now()
		}
	}
}

// StepN advances the simulation n ticks synchronously. Test hook: exercises
// the exact step the loop runs, without wall-clock scheduling.
func (g *Game) StepN(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		g.step()
	}
}

// SimNow returns the current simulation time in ms.
func (g *Game) SimNow() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now
}

// Tick returns the current tick counter.
func (g *Game) Tick() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}
