package main

import "math"

const (
	// KickCooldownMs is the minimum gap between accepted kicks per player.
	KickCooldownMs = 300

	// Max kicker-to-ball distance; metavision widens it.
	KickMaxDistance           = 250.0
	KickMaxDistanceMetavision = 300.0

	// KickRecoil shoves the kicker opposite the kick direction.
	KickRecoil = 400.0

	// Dribbling: rejected right after any kick, bounded range, fixed speed.
	DribbleLockoutMs   = 100
	MaxDribbleDistance = 300.0
	DribbleSpeed       = 300.0
)

// drainKicks validates and applies queued kicks in arrival order. Rejections
// are silent: the client's prediction snaps back on the next snapshot.
func (g *Game) drainKicks() {
	kicks := g.pendingKicks
	g.pendingKicks = g.pendingKicks[:0]

	for _, req := range kicks {
		p, err := g.playerByID(req.PlayerID)
		if err != nil {
			continue
		}
		if !p.OnPitch() {
			continue
		}
		if p.LastKickAt != 0 && g.now-p.LastKickAt < KickCooldownMs {
			continue
		}

		px, py := p.X, p.Y
		bx, by := g.ball.X, g.ball.Y
		// Lag compensation: rewind both kicker and ball to the client's
		// timestamp when it falls inside the window. The timestamp is a
		// hint; history decides.
		if req.ClientStamp > 0 && g.now-req.ClientStamp <= LagCompWindowMs {
			if s, ok := p.History.At(req.ClientStamp); ok {
				px, py = s.X, s.Y
			}
			if s, ok := g.ballHistory().At(req.ClientStamp); ok {
				bx, by = s.X, s.Y
			}
		}

		maxDist := KickMaxDistance
		if p.MetavisionActive(g.now) {
			maxDist = KickMaxDistanceMetavision
		}
		if Distance(px, py, bx, by) > maxDist {
			continue
		}

		vx, vy := KickVelocity(req.Angle, req.BasePower, p.EffectiveKickPowerStat(g.now), p.MetavisionActive(g.now))
		g.ball.SetVelocity(vx, vy)
		g.ball.Touch(p.ID, g.now)
		p.LastKickAt = g.now
		g.lastKickAnyAt = g.now

		p.VX -= math.Cos(req.Angle) * KickRecoil
		p.VY -= math.Sin(req.Angle) * KickRecoil

		g.broadcast(Envelope{T: MsgBallKicked, Data: BallKickedMsg{
			KickerID:     p.ID,
			KickSequence: g.ball.KickSequence,
			LocalKickID:  req.LocalKickID,
			Angle:        req.Angle,
		}})
		g.emitBallSnapshot()
	}
}

// drainDribbles applies queued dribble requests: a short nudge of the ball
// directly away from the player.
func (g *Game) drainDribbles() {
	dribbles := g.pendingDribbles
	g.pendingDribbles = g.pendingDribbles[:0]

	for _, req := range dribbles {
		p, err := g.playerByID(req.PlayerID)
		if err != nil {
			continue
		}
		if !p.OnPitch() {
			continue
		}
		if g.lastKickAnyAt != 0 && g.now-g.lastKickAnyAt < DribbleLockoutMs {
			continue
		}
		dx := g.ball.X - p.X
		dy := g.ball.Y - p.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist > MaxDribbleDistance || dist == 0 {
			continue
		}
		g.ball.SetVelocity(dx/dist*DribbleSpeed, dy/dist*DribbleSpeed)
		g.ball.Touch(p.ID, g.now)
		g.emitBallSnapshot()
	}
}
