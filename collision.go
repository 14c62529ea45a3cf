package main

import "math"

const (
	// Player-player elastic push applied to each side of an overlap.
	PlayerPushImpulse = 150.0

	// Moving-ball knockback on overlapping players.
	BallKnockbackMinSpeed = 100.0
	BallKnockbackScale    = 0.6
	BallKnockbackCap      = 200.0

	// Ball-player restitution outside a power-shot window.
	BallPlayerRestitution = 0.6

	// GoalResetDelayMs is the pause between a goal and the centre restart.
	GoalResetDelayMs = 3000
)

// CirclesOverlap checks if two circles intersect.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	radSum := r1 + r2
	return dx*dx+dy*dy <= radSum*radSum
}

// closestPointOnRect returns the rect point nearest to (x, y).
func closestPointOnRect(r Rect, x, y float64) (float64, float64) {
	cx := Clamp(x, r.X, r.X+r.Width)
	cy := Clamp(y, r.Y, r.Y+r.Height)
	return cx, cy
}

// resolvePlayerPairs separates overlapping on-pitch players and applies an
// elastic push. Spectators never collide; a phased player collides only
// while near the ball.
func (g *Game) resolvePlayerPairs() {
	for i := 0; i < len(g.order); i++ {
		a := g.players[g.order[i]]
		if !g.collidable(a) {
			continue
		}
		for j := i + 1; j < len(g.order); j++ {
			b := g.players[g.order[j]]
			if !g.collidable(b) {
				continue
			}
			dx := b.X - a.X
			dy := b.Y - a.Y
			dist := math.Sqrt(dx*dx + dy*dy)
			minDist := a.Radius + b.Radius
			if dist >= minDist || dist == 0 {
				continue
			}
			nx := dx / dist
			ny := dy / dist
			pen := minDist - dist
			a.X -= nx * pen / 2
			a.Y -= ny * pen / 2
			b.X += nx * pen / 2
			b.Y += ny * pen / 2
			a.VX -= nx * PlayerPushImpulse
			a.VY -= ny * PlayerPushImpulse
			b.VX += nx * PlayerPushImpulse
			b.VY += ny * PlayerPushImpulse
		}
	}
}

// collidable reports whether a player takes part in player-player contact.
func (g *Game) collidable(p *PlayerPhysics) bool {
	if !p.OnPitch() {
		return false
	}
	if p.PhaseThrough && !g.nearBall(p) {
		return false
	}
	return true
}

// nearBall reports ball proximity for the phase-through exemption.
func (g *Game) nearBall(p *PlayerPhysics) bool {
	return CirclesOverlap(p.X, p.Y, p.Radius*2, g.ball.X, g.ball.Y, g.ball.Radius)
}

// applyBallKnockback shoves players overlapping a fast-moving ball. A live
// power-shot window replaces the speed-scaled impulse with its own force.
func (g *Game) applyBallKnockback() {
	speed := g.ball.Speed()
	if !g.ball.Moving || speed <= BallKnockbackMinSpeed {
		return
	}
	for _, id := range g.order {
		p := g.players[id]
		if !p.OnPitch() {
			continue
		}
		if !CirclesOverlap(p.X, p.Y, p.Radius, g.ball.X, g.ball.Y, g.ball.Radius) {
			continue
		}
		force := math.Min(speed*BallKnockbackScale, BallKnockbackCap)
		if g.now < g.contactOverride.Until {
			force = g.contactOverride.KnockbackForce
		}
		dx := p.X - g.ball.X
		dy := p.Y - g.ball.Y
		d := math.Sqrt(dx*dx + dy*dy)
		if d == 0 {
			continue
		}
		p.VX += dx / d * force
		p.VY += dy / d * force
	}
}

// resolveBallPlayers reflects the ball off the first overlapping on-pitch
// player, updates the touch chain, and credits interceptions on a change of
// team.
func (g *Game) resolveBallPlayers() {
	for _, id := range g.order {
		p := g.players[id]
		if !p.OnPitch() {
			continue
		}
		dx := g.ball.X - p.X
		dy := g.ball.Y - p.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		minDist := p.Radius + g.ball.Radius
		if dist >= minDist || dist == 0 {
			continue
		}
		nx := dx / dist
		ny := dy / dist

		restitution := BallPlayerRestitution
		if g.now < g.contactOverride.Until {
			restitution = g.contactOverride.BallRetention
		}

		dot := g.ball.VX*nx + g.ball.VY*ny
		g.ball.VX = (g.ball.VX - 2*dot*nx) * restitution
		g.ball.VY = (g.ball.VY - 2*dot*ny) * restitution
		g.ball.Moving = g.ball.VX != 0 || g.ball.VY != 0

		pen := minDist - dist
		g.ball.X += nx * (pen + 1)
		g.ball.Y += ny * (pen + 1)

		prevToucher := g.ball.LastTouchID
		g.ball.Touch(p.ID, g.now)
		if prev, ok := g.players[prevToucher]; ok && prevToucher != p.ID && prev.Team != p.Team && prev.OnPitch() {
			p.Match.Interceptions++
			g.broadcast(Envelope{T: MsgBallIntercepted, Data: BallInterceptedMsg{
				PlayerID: p.ID,
				FromID:   prevToucher,
			}})
		}
		return // first contact only per step
	}
}

// resolveBallRects reflects the ball off the first intersecting static rect.
func (g *Game) resolveBallRects() {
	for _, r := range g.world.Colliders {
		cx, cy := closestPointOnRect(r, g.ball.X, g.ball.Y)
		dx := g.ball.X - cx
		dy := g.ball.Y - cy
		dist2 := dx*dx + dy*dy
		if dist2 >= g.ball.Radius*g.ball.Radius {
			continue
		}
		dist := math.Sqrt(dist2)
		var nx, ny float64
		if dist > 0 {
			nx = dx / dist
			ny = dy / dist
		} else {
			// Centre inside the rect: push out along the shortest axis.
			nx, ny = rectEscapeNormal(r, g.ball.X, g.ball.Y)
			dist = 0
		}
		dot := g.ball.VX*nx + g.ball.VY*ny
		g.ball.VX = (g.ball.VX - 2*dot*nx) * BallBounce
		g.ball.VY = (g.ball.VY - 2*dot*ny) * BallBounce
		pen := g.ball.Radius - dist
		g.ball.X += nx * (pen + 1)
		g.ball.Y += ny * (pen + 1)
		return
	}
}

// rectEscapeNormal picks the outward normal of the nearest rect face for a
// point inside the rect.
func rectEscapeNormal(r Rect, x, y float64) (float64, float64) {
	left := x - r.X
	right := r.X + r.Width - x
	top := y - r.Y
	bottom := r.Y + r.Height - y
	min := left
	nx, ny := -1.0, 0.0
	if right < min {
		min = right
		nx, ny = 1, 0
	}
	if top < min {
		min = top
		nx, ny = 0, -1
	}
	if bottom < min {
		nx, ny = 0, 1
	}
	return nx, ny
}

// checkGoal awards a goal when the ball centre sits inside a zone and no
// reset is already pending.
func (g *Game) checkGoal() {
	if g.goalResetPending || g.match.Status != StatusActive {
		return
	}
	zone := g.world.GoalAt(g.ball.X, g.ball.Y)
	if zone == nil {
		return
	}
	scoringTeam := TeamBlue
	if zone.Team == TeamBlue {
		scoringTeam = TeamRed
	}
	g.goalResetPending = true
	g.ball.VX = 0
	g.ball.VY = 0
	g.ball.Moving = false

	g.match.AddScore(scoringTeam)

	scorerID := g.ball.LastTouchID
	assistID := ""
	if scorer, ok := g.players[scorerID]; ok {
		scorer.Match.Goals++
		if prev, ok := g.players[g.ball.PreviousTouchID]; ok && prev.ID != scorerID && prev.Team == scorer.Team {
			prev.Match.Assists++
			assistID = prev.ID
		}
	}

	g.broadcast(Envelope{T: MsgGoalScored, Data: GoalScoredMsg{
		ScoringTeam: scoringTeam,
		ScorerID:    scorerID,
		AssistID:    assistID,
		ScoreRed:    g.match.ScoreRed,
		ScoreBlue:   g.match.ScoreBlue,
		Zone:        zone.Name,
	}})
	g.record(EvtGoal, 0, scoringTeam)

	g.timers.Schedule(g.now+GoalResetDelayMs, func() {
		g.resetAfterGoal()
	})
}

// resetAfterGoal restarts play from the centre spot.
func (g *Game) resetAfterGoal() {
	g.ball.ResetToCenter()
	slots := map[string]int{TeamRed: 0, TeamBlue: 0}
	for _, id := range g.order {
		p := g.players[id]
		if !p.OnPitch() {
			continue
		}
		x, y := SpawnFor(p.Team, slots[p.Team])
		slots[p.Team]++
		p.X = x
		p.Y = y
		p.ResetMotion()
		g.broadcast(Envelope{T: MsgPlayerReset, Data: PlayerResetMsg{
			PlayerID: p.ID,
			X:        x,
			Y:        y,
		}})
	}
	g.goalResetPending = false
	g.emitBallSnapshot()
}

// clampBall re-applies the pitch boundary after rect push-outs.
func (g *Game) clampBall() {
	b := g.ball
	if b.X < b.Radius {
		b.X = b.Radius
		b.VX = math.Abs(b.VX) * BallBounce
	}
	if b.X > PitchWidth-b.Radius {
		b.X = PitchWidth - b.Radius
		b.VX = -math.Abs(b.VX) * BallBounce
	}
	if b.Y < b.Radius {
		b.Y = b.Radius
		b.VY = math.Abs(b.VY) * BallBounce
	}
	if b.Y > PitchHeight-b.Radius {
		b.Y = PitchHeight - b.Radius
		b.VY = -math.Abs(b.VY) * BallBounce
	}
}

// resolveSpectatorWalls keeps spectators out of static geometry by pushing
// along the shortest axis and zeroing the matching velocity component.
func (g *Game) resolveSpectatorWalls() {
	for _, id := range g.order {
		p := g.players[id]
		if p.OnPitch() {
			continue
		}
		for _, r := range g.world.Colliders {
			cx, cy := closestPointOnRect(r, p.X, p.Y)
			dx := p.X - cx
			dy := p.Y - cy
			dist2 := dx*dx + dy*dy
			if dist2 >= p.Radius*p.Radius {
				continue
			}
			nx, ny := rectEscapeNormal(r, p.X, p.Y)
			if dist2 > 0 {
				dist := math.Sqrt(dist2)
				nx = dx / dist
				ny = dy / dist
				pen := p.Radius - dist
				p.X += nx * pen
				p.Y += ny * pen
			} else {
				p.X += nx * p.Radius
				p.Y += ny * p.Radius
			}
			if nx != 0 {
				p.VX = 0
			}
			if ny != 0 {
				p.VY = 0
			}
		}
	}
}
