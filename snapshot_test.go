package main

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestBallSnapshotRoundTrip(t *testing.T) {
	g, room, _ := newTestGame(t)
	addPitchPlayer(g, "p1", TeamRed, 1700, 800)
	g.ball.X, g.ball.Y = 1760, 800

	g.QueueKick(kickRequest{PlayerID: "p1", Angle: 0, BasePower: 600})
	g.StepN(1)

	room.mu.Lock()
	frames := append([][]byte(nil), room.binary...)
	room.mu.Unlock()
	if len(frames) == 0 {
		t.Fatal("no immediate ball snapshot after an accepted kick")
	}

	var snap BallSnapshot
	if err := msgpack.Unmarshal(frames[len(frames)-1], &snap); err != nil {
		t.Fatalf("msgpack unmarshal: %v", err)
	}
	if snap.T != FrameBallState {
		t.Errorf("frame tag = %q, want %q", snap.T, FrameBallState)
	}
	if snap.KickSequence != 1 {
		t.Errorf("kickSequence = %d, want 1", snap.KickSequence)
	}
	if snap.LastTouchID != "p1" {
		t.Errorf("lastTouchId = %q, want p1", snap.LastTouchID)
	}
	if snap.ServerTick != 1 {
		t.Errorf("serverTick = %d, want 1", snap.ServerTick)
	}
}

func TestPlayersFrameCarriesAcksAndFlags(t *testing.T) {
	g, room, _ := newTestGame(t)
	p := addPitchPlayer(g, "p1", TeamRed, 880, 800)
	p.PhaseThrough = true
	spec := g.AddPlayer("s1", "s1", 0, 0, 0)
	g.mu.Lock()
	spec.Team = TeamSpectator
	g.mu.Unlock()

	g.HandleInputBatch("p1", []InputState{{Right: true, Sequence: 7}})
	g.StepN(1)

	g.mu.Lock()
	g.broadcastSnapshotsLocked()
	g.mu.Unlock()

	room.mu.Lock()
	frames := append([][]byte(nil), room.binary...)
	room.mu.Unlock()

	var frame PlayersFrame
	found := false
	for _, raw := range frames {
		var probe struct {
			T string `msgpack:"t"`
		}
		if err := msgpack.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if probe.T == FramePlayersUpdate {
			if err := msgpack.Unmarshal(raw, &frame); err != nil {
				t.Fatalf("players frame unmarshal: %v", err)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("no players:physicsUpdate frame broadcast")
	}
	if len(frame.Players) != 2 {
		t.Fatalf("players in frame = %d, want 2", len(frame.Players))
	}
	byID := make(map[string]PlayerSnapshot)
	for _, ps := range frame.Players {
		byID[ps.ID] = ps
	}
	if !byID["p1"].IsGhosted {
		t.Error("phase-through player not flagged ghosted")
	}
	if byID["p1"].IsSpectator {
		t.Error("on-pitch player flagged spectator")
	}
	if !byID["s1"].IsSpectator {
		t.Error("spectator not flagged")
	}
	if byID["p1"].LastProcessedSequence != 7 {
		t.Errorf("ack = %d, want 7", byID["p1"].LastProcessedSequence)
	}
}

func TestSnapshotSequencesMonotonic(t *testing.T) {
	g, room, _ := newTestGame(t)
	p := addPitchPlayer(g, "p1", TeamRed, 1700, 800)

	var lastTick, lastKickSeq uint64
	var lastAck uint32
	for i := 0; i < 30; i++ {
		g.HandleInputBatch("p1", []InputState{{Right: true, Sequence: uint32(i + 1)}})
		if i%7 == 0 {
			g.mu.Lock()
			g.ball.X, g.ball.Y = p.X+40, p.Y
			g.mu.Unlock()
			g.QueueKick(kickRequest{PlayerID: "p1", Angle: 0, BasePower: 300})
		}
		g.StepN(25) // past the kick cooldown each round
		g.mu.Lock()
		g.broadcastSnapshotsLocked()
		g.mu.Unlock()
	}

	room.mu.Lock()
	frames := append([][]byte(nil), room.binary...)
	room.mu.Unlock()

	for _, raw := range frames {
		var probe struct {
			T string `msgpack:"t"`
		}
		if err := msgpack.Unmarshal(raw, &probe); err != nil {
			continue
		}
		switch probe.T {
		case FrameBallState:
			var snap BallSnapshot
			if err := msgpack.Unmarshal(raw, &snap); err != nil {
				t.Fatal(err)
			}
			if snap.ServerTick < lastTick {
				t.Fatalf("serverTick went backwards: %d -> %d", lastTick, snap.ServerTick)
			}
			lastTick = snap.ServerTick
			if snap.KickSequence < lastKickSeq {
				t.Fatalf("kickSequence went backwards: %d -> %d", lastKickSeq, snap.KickSequence)
			}
			lastKickSeq = snap.KickSequence
		case FramePlayersUpdate:
			var frame PlayersFrame
			if err := msgpack.Unmarshal(raw, &frame); err != nil {
				t.Fatal(err)
			}
			for _, ps := range frame.Players {
				if ps.ID == "p1" {
					if ps.LastProcessedSequence < lastAck {
						t.Fatalf("ack went backwards: %d -> %d", lastAck, ps.LastProcessedSequence)
					}
					lastAck = ps.LastProcessedSequence
				}
			}
		}
	}
	if lastKickSeq == 0 {
		t.Error("no kick ever landed in the snapshot stream")
	}
}
