package main

import "math"

// BallState is the authoritative ball. KickSequence increases on every
// velocity replacement (kick, dribble, teleport, goal reset) so clients can
// tell an impulse from ordinary integration drift.
type BallState struct {
	X, Y    float64
	VX, VY  float64
	Moving  bool
	Radius  float64

	LastTouchID     string
	PreviousTouchID string
	LastTouchAt     int64 // sim ms

	KickSequence uint64
}

// NewBall returns a parked ball at the pitch centre.
func NewBall() *BallState {
	return &BallState{
		X:      PitchCenterX,
		Y:      PitchCenterY,
		Radius: BallRadius,
	}
}

// Speed returns the current velocity magnitude.
func (b *BallState) Speed() float64 {
	return math.Sqrt(b.VX*b.VX + b.VY*b.VY)
}

// SetVelocity replaces the ball velocity as an authoritative impulse,
// bumping the kick sequence.
func (b *BallState) SetVelocity(vx, vy float64) {
	b.VX = vx
	b.VY = vy
	b.Moving = vx != 0 || vy != 0
	b.KickSequence++
}

// Touch records a player contact, rotating the touch chain.
func (b *BallState) Touch(playerID string, now int64) {
	if b.LastTouchID != playerID {
		b.PreviousTouchID = b.LastTouchID
		b.LastTouchID = playerID
	}
	b.LastTouchAt = now
}

// ResetToCenter parks the ball at the centre spot. Counts as an impulse.
func (b *BallState) ResetToCenter() {
	b.X = PitchCenterX
	b.Y = PitchCenterY
	b.VX = 0
	b.VY = 0
	b.Moving = false
	b.LastTouchID = ""
	b.PreviousTouchID = ""
	b.KickSequence++
}
