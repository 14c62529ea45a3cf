package main

import "math"

// Pitch and kinematic constants. These are mirrored by the client's
// prediction kernel; changing any of them is a protocol break.
const (
	PitchWidth  = 3520.0
	PitchHeight = 1600.0

	BallRadius   = 30.0
	PlayerRadius = 30.0

	BallDrag   = 1.0 // exponential, per second
	PlayerDrag = 4.0

	PlayerAccel    = 1600.0 // pixels/s²
	PlayerMaxSpeed = 600.0  // pixels/s

	BallBounce = 0.7

	PhysicsTickMs = 16
	PhysicsDt     = 0.016 // seconds, fixed

	BallStopSpeed = 10.0 // below this the ball is parked
)

// Drag factors for the fixed timestep, precomputed so both endpoints
// evaluate exp() against the exact same argument.
var (
	ballDragFactor = math.Exp(-BallDrag * PhysicsDt)
)

// InputState is one frame of directional input.
type InputState struct {
	Up       bool   `json:"up" msgpack:"u"`
	Down     bool   `json:"down" msgpack:"d"`
	Left     bool   `json:"left" msgpack:"l"`
	Right    bool   `json:"right" msgpack:"r"`
	Sequence uint32 `json:"sequence" msgpack:"s"`
}

// SpeedMultiplier converts the speed stat to an accel/max-speed multiplier.
func SpeedMultiplier(speed int) float64 {
	return 1.0 + 0.1*float64(speed)
}

// KickPowerMultiplier converts the kickPower stat to a kick velocity multiplier.
func KickPowerMultiplier(kickPower int) float64 {
	return 1.0 + 0.1*float64(kickPower)
}

// DragMultiplier converts the dribbling stat to a drag multiplier, floored
// at 0.5 so a maxed dribbler still decelerates.
func DragMultiplier(dribbling int) float64 {
	m := 1.0 - 0.05*float64(dribbling)
	if m < 0.5 {
		m = 0.5
	}
	return m
}

// IntegrateBall advances ball kinematics by dt seconds: drag, move, then
// wall clamps in fixed left/right/top/bottom order. Each clamp rewrites the
// velocity component as -sign·|v|·bounce so a ball pinned against a wall
// cannot gain energy from repeated reflection.
func IntegrateBall(x, y, vx, vy, dt float64) (nx, ny, nvx, nvy float64) {
	var drag float64
	if dt == PhysicsDt {
		drag = ballDragFactor
	} else {
		drag = math.Exp(-BallDrag * dt)
	}
	vx *= drag
	vy *= drag

	x += vx * dt
	y += vy * dt

	if x < BallRadius {
		x = BallRadius
		vx = math.Abs(vx) * BallBounce
	}
	if x > PitchWidth-BallRadius {
		x = PitchWidth - BallRadius
		vx = -math.Abs(vx) * BallBounce
	}
	if y < BallRadius {
		y = BallRadius
		vy = math.Abs(vy) * BallBounce
	}
	if y > PitchHeight-BallRadius {
		y = PitchHeight - BallRadius
		vy = -math.Abs(vy) * BallBounce
	}
	return x, y, vx, vy
}

// IntegratePlayer advances one player by dt seconds. Operation order is
// fixed: accelerate, drag, speed-cap, move, clamp. The same code runs inside
// the client's prediction loop, so identical inputs must produce bit-equal
// results.
func IntegratePlayer(x, y, vx, vy, dt, dragMul, speedMul float64, in InputState) (nx, ny, nvx, nvy float64) {
	accel := PlayerAccel * speedMul
	maxSpeed := PlayerMaxSpeed * speedMul

	if in.Up {
		vy -= accel * dt
	}
	if in.Down {
		vy += accel * dt
	}
	if in.Left {
		vx -= accel * dt
	}
	if in.Right {
		vx += accel * dt
	}

	drag := math.Exp(-PlayerDrag * dragMul * dt)
	vx *= drag
	vy *= drag

	speed := math.Sqrt(vx*vx + vy*vy)
	if speed > maxSpeed {
		scale := maxSpeed / speed
		vx *= scale
		vy *= scale
	}

	x += vx * dt
	y += vy * dt

	if x < PlayerRadius {
		x = PlayerRadius
		vx = 0
	}
	if x > PitchWidth-PlayerRadius {
		x = PitchWidth - PlayerRadius
		vx = 0
	}
	if y < PlayerRadius {
		y = PlayerRadius
		vy = 0
	}
	if y > PitchHeight-PlayerRadius {
		y = PitchHeight - PlayerRadius
		vy = 0
	}
	return x, y, vx, vy
}

// KickVelocity computes the ball velocity for a kick at the given angle.
// Metavision boosts kick power by 20%.
func KickVelocity(angle, basePower float64, kickPower int, metavision bool) (vx, vy float64) {
	power := basePower * KickPowerMultiplier(kickPower)
	if metavision {
		power *= 1.2
	}
	return math.Cos(angle) * power, math.Sin(angle) * power
}
