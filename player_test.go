package main

import "testing"

func TestInputQueueStaleDrop(t *testing.T) {
	p := NewPlayerPhysics("p", "p", 100, 100)
	p.EnqueueInputs([]InputState{{Sequence: 1}, {Sequence: 2}, {Sequence: 3}})
	p.ConsumeInput()
	p.ConsumeInput()

	// Sequences at or below lastSeq=2 are dropped on arrival.
	p.EnqueueInputs([]InputState{{Sequence: 1}, {Sequence: 2}})
	if p.QueueLen() != 1 {
		t.Errorf("queue len = %d, want 1 (only seq 3 left)", p.QueueLen())
	}
}

func TestInputQueueDedupesTail(t *testing.T) {
	p := NewPlayerPhysics("p", "p", 100, 100)
	p.EnqueueInputs([]InputState{{Sequence: 5, Up: true}})
	p.EnqueueInputs([]InputState{{Sequence: 5, Down: true}})
	if p.QueueLen() != 1 {
		t.Fatalf("queue len = %d, want 1 after dedup", p.QueueLen())
	}
	in := p.ConsumeInput()
	if !in.Down || in.Up {
		t.Error("duplicate did not replace the queued entry")
	}
}

func TestInputQueueOverflowDropsFront(t *testing.T) {
	p := NewPlayerPhysics("p", "p", 100, 100)
	batch := make([]InputState, InputQueueCap+10)
	for i := range batch {
		batch[i] = InputState{Sequence: uint32(i + 1)}
	}
	p.EnqueueInputs(batch)
	if p.QueueLen() != InputQueueCap {
		t.Fatalf("queue len = %d, want cap %d", p.QueueLen(), InputQueueCap)
	}
	in := p.ConsumeInput()
	if in.Sequence != 11 {
		t.Errorf("front sequence = %d, want 11 (oldest dropped)", in.Sequence)
	}
}

func TestConsumeReusesLastInput(t *testing.T) {
	p := NewPlayerPhysics("p", "p", 100, 100)
	p.EnqueueInputs([]InputState{{Sequence: 1, Right: true}})
	p.ConsumeInput()

	// Dry queue: the held input repeats, the ack does not advance.
	in := p.ConsumeInput()
	if !in.Right {
		t.Error("dry queue did not repeat the held input")
	}
	if p.LastProcessedSequence() != 1 {
		t.Errorf("lastProcessedSequence = %d, want 1", p.LastProcessedSequence())
	}
}

func TestEffectiveStatsWithBuffExpiry(t *testing.T) {
	p := NewPlayerPhysics("p", "p", 100, 100)
	p.Stats = SoccerStats{Speed: 3, KickPower: 4, Dribbling: 8}
	p.KickPowerBuff = 5
	p.KickPowerBuffUntil = 1000

	if got := p.EffectiveKickPowerStat(500); got != 9 {
		t.Errorf("buffed kick power = %d, want 9", got)
	}
	if got := p.EffectiveKickPowerStat(1000); got != 4 {
		t.Errorf("expired kick power = %d, want 4", got)
	}
}

func TestClearEffects(t *testing.T) {
	p := NewPlayerPhysics("p", "p", 100, 100)
	p.SlowedUntil = 5000
	p.MetavisionUntil = 5000
	p.PhaseThrough = true
	p.LurkingUntil = 5000
	p.PowerShot = PowerShotWindow{KnockbackForce: 300, BallRetention: 0.8, Until: 5000}
	p.SpeedBuff = 2
	p.Cooldowns[SkillBlink] = 9000

	p.ClearEffects()

	if p.SlowedUntil != 0 || p.MetavisionUntil != 0 || p.PhaseThrough || p.LurkingUntil != 0 {
		t.Error("transient effects survived ClearEffects")
	}
	if p.PowerShot.Until != 0 || p.SpeedBuff != 0 {
		t.Error("windows/buffs survived ClearEffects")
	}
	if p.Cooldowns[SkillBlink] != 9000 {
		t.Error("cooldowns must survive ClearEffects")
	}
}
