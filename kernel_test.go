package main

import (
	"math"
	"testing"
)

func TestStatMultipliers(t *testing.T) {
	if got := SpeedMultiplier(0); got != 1.0 {
		t.Errorf("SpeedMultiplier(0) = %f, want 1.0", got)
	}
	if got := SpeedMultiplier(10); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("SpeedMultiplier(10) = %f, want 2.0", got)
	}
	if got := KickPowerMultiplier(5); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("KickPowerMultiplier(5) = %f, want 1.5", got)
	}
	if got := DragMultiplier(0); got != 1.0 {
		t.Errorf("DragMultiplier(0) = %f, want 1.0", got)
	}
	// Floor at 0.5: 15 dribbling would be 0.25 unfloored.
	if got := DragMultiplier(15); got != 0.5 {
		t.Errorf("DragMultiplier(15) = %f, want 0.5", got)
	}
}

func TestIntegrateBallDeterminism(t *testing.T) {
	run := func() (float64, float64, float64, float64) {
		x, y, vx, vy := 1760.0, 800.0, 617.3, -412.9
		for i := 0; i < 600; i++ {
			x, y, vx, vy = IntegrateBall(x, y, vx, vy, PhysicsDt)
		}
		return x, y, vx, vy
	}
	x1, y1, vx1, vy1 := run()
	x2, y2, vx2, vy2 := run()
	if x1 != x2 || y1 != y2 || vx1 != vx2 || vy1 != vy2 {
		t.Errorf("two identical runs diverged: (%v,%v,%v,%v) vs (%v,%v,%v,%v)",
			x1, y1, vx1, vy1, x2, y2, vx2, vy2)
	}
}

func TestIntegratePlayerDeterminism(t *testing.T) {
	inputs := []InputState{
		{Up: true}, {Up: true, Right: true}, {Right: true}, {Down: true}, {},
	}
	run := func() (float64, float64, float64, float64) {
		x, y, vx, vy := 1000.0, 800.0, 0.0, 0.0
		for i := 0; i < 500; i++ {
			x, y, vx, vy = IntegratePlayer(x, y, vx, vy, PhysicsDt, 0.85, 1.3, inputs[i%len(inputs)])
		}
		return x, y, vx, vy
	}
	x1, y1, vx1, vy1 := run()
	x2, y2, vx2, vy2 := run()
	if x1 != x2 || y1 != y2 || vx1 != vx2 || vy1 != vy2 {
		t.Error("two identical player runs diverged")
	}
}

func TestBallDragStopsBall(t *testing.T) {
	// 5 s of free rolling from 600 px/s: drag 1.0/s leaves ~4 px/s and the
	// ball cannot have travelled more than v0/drag.
	x, y, vx, vy := 1760.0, 800.0, 600.0, 0.0
	for i := 0; i < 313; i++ { // 313 ticks ≈ 5.008 s
		x, y, vx, vy = IntegrateBall(x, y, vx, vy, PhysicsDt)
	}
	speed := math.Sqrt(vx*vx + vy*vy)
	if speed >= BallStopSpeed {
		t.Errorf("speed after 5s = %f, want < %f", speed, BallStopSpeed)
	}
	if x >= 1760.0+600.0/BallDrag {
		t.Errorf("x = %f, travelled beyond v0/drag bound %f", x, 1760.0+600.0/BallDrag)
	}
	if y != 800.0 {
		t.Errorf("y drifted to %f", y)
	}
}

func TestBallEnergyNonCreation(t *testing.T) {
	x, y, vx, vy := 200.0, 300.0, -900.0, 750.0
	prev := math.Sqrt(vx*vx + vy*vy)
	for i := 0; i < 1000; i++ {
		x, y, vx, vy = IntegrateBall(x, y, vx, vy, PhysicsDt)
		speed := math.Sqrt(vx*vx + vy*vy)
		if speed > prev+1e-9 {
			t.Fatalf("tick %d: speed grew %f -> %f", i, prev, speed)
		}
		prev = speed
	}
}

func TestBallBoundaryClosure(t *testing.T) {
	x, y, vx, vy := 60.0, 60.0, -5000.0, -4000.0
	for i := 0; i < 2000; i++ {
		x, y, vx, vy = IntegrateBall(x, y, vx, vy, PhysicsDt)
		if x < BallRadius || x > PitchWidth-BallRadius || y < BallRadius || y > PitchHeight-BallRadius {
			t.Fatalf("tick %d: ball escaped pitch at (%f, %f)", i, x, y)
		}
	}
}

func TestBallWallReflectionDamps(t *testing.T) {
	// One clamp at the left wall must flip vx positive and damp it.
	x, _, vx, _ := IntegrateBall(BallRadius+1, 800, -500, 0, PhysicsDt)
	if x != BallRadius {
		t.Errorf("x = %f, want clamped to %f", x, BallRadius)
	}
	if vx <= 0 {
		t.Errorf("vx = %f, want positive after left-wall bounce", vx)
	}
	if vx > 500*BallBounce {
		t.Errorf("vx = %f, bounce added energy", vx)
	}
}

func TestPlayerSpeedCap(t *testing.T) {
	x, y, vx, vy := 1000.0, 800.0, 0.0, 0.0
	in := InputState{Right: true}
	for i := 0; i < 600; i++ {
		x, y, vx, vy = IntegratePlayer(x, y, vx, vy, PhysicsDt, 1.0, 1.0, in)
	}
	speed := math.Sqrt(vx*vx + vy*vy)
	if speed > PlayerMaxSpeed+1e-9 {
		t.Errorf("speed = %f exceeds cap %f", speed, PlayerMaxSpeed)
	}
	// Terminal velocity under exponential drag sits near accel/(drag·~1),
	// well under the cap for a zero-stat player.
	if speed < 350 {
		t.Errorf("speed = %f, expected near terminal velocity", speed)
	}
}

func TestPlayerBoundaryZeroesVelocity(t *testing.T) {
	x, _, vx, _ := IntegratePlayer(PlayerRadius+1, 800, -800, 0, PhysicsDt, 1.0, 1.0, InputState{Left: true})
	if x != PlayerRadius {
		t.Errorf("x = %f, want clamped to %f", x, PlayerRadius)
	}
	if vx != 0 {
		t.Errorf("vx = %f, want 0 after wall clamp", vx)
	}
}

func TestKickVelocity(t *testing.T) {
	vx, vy := KickVelocity(0, 1000, 0, false)
	if math.Abs(vx-1000) > 1e-9 || math.Abs(vy) > 1e-9 {
		t.Errorf("kick at angle 0 = (%f, %f), want (1000, 0)", vx, vy)
	}

	vx, _ = KickVelocity(0, 1000, 5, false)
	if math.Abs(vx-1500) > 1e-9 {
		t.Errorf("kickPower 5 vx = %f, want 1500", vx)
	}

	vx, _ = KickVelocity(0, 1000, 0, true)
	if math.Abs(vx-1200) > 1e-9 {
		t.Errorf("metavision vx = %f, want 1200", vx)
	}

	vx, vy = KickVelocity(math.Pi/2, 500, 0, false)
	if math.Abs(vx) > 1e-9 || math.Abs(vy-500) > 1e-9 {
		t.Errorf("kick at pi/2 = (%f, %f), want (0, 500)", vx, vy)
	}
}

func TestStatsValid(t *testing.T) {
	cases := []struct {
		stats SoccerStats
		want  bool
	}{
		{SoccerStats{5, 5, 5}, true},
		{SoccerStats{15, 0, 0}, true},
		{SoccerStats{0, 0, 15}, true},
		{SoccerStats{5, 5, 6}, false},
		{SoccerStats{-1, 8, 8}, false},
		{SoccerStats{7, 7, 0}, false},
	}
	for _, c := range cases {
		if got := c.stats.Valid(); got != c.want {
			t.Errorf("Valid(%+v) = %v, want %v", c.stats, got, c.want)
		}
	}
}
