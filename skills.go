package main

import "math"

// Skill identifiers.
const (
	SkillSlowdown   = "slowdown"
	SkillBlink      = "blink"
	SkillMetavision = "metavision"
	SkillNinjaStep  = "ninja_step"
	SkillLurking    = "lurking_radius"
	SkillPowerShot  = "power_shot"
)

const (
	SlowdownCooldownMs = 30000
	SlowdownDurationMs = 5000
	SlowdownFactor     = 0.35

	BlinkCooldownMs = 12000
	BlinkMinDist    = 300.0
	BlinkMaxDist    = 400.0

	MetavisionCooldownMs = 20000
	MetavisionDurationMs = 8000

	LurkingCooldownMs = 20000
	LurkingWindowMs   = 5000
	LurkingRadius     = 500.0
	LurkingOffset     = 40.0

	PowerShotCooldownMs  = 20000
	PowerShotWindowMs    = 3000
	PowerShotRange       = 200.0
	PowerShotSpeed       = 2000.0
	PowerShotKnockback   = 300.0
	PowerShotRetention   = 0.8
	PowerShotKickBuff    = 5
)

// SkillEffect is the tagged variant describing what a skill does to the
// simulation. One handler pattern-matches over it; there is no per-skill
// subclassing.
type SkillEffect interface {
	skillTag()
}

type SpeedSlow struct {
	Mul        float64
	DurationMs int64
}

type Blink struct {
	MinDist     float64
	MaxDist     float64
	PreventClip bool // spectators cancel instead of clipping into geometry
}

type Metavision struct {
	DurationMs int64
}

type NinjaStep struct{}

type Lurking struct {
	Radius   float64
	WindowMs int64
}

type PowerShot struct {
	Speed     float64
	Knockback float64
	Retention float64
	WindowMs  int64
}

func (SpeedSlow) skillTag()  {}
func (Blink) skillTag()      {}
func (Metavision) skillTag() {}
func (NinjaStep) skillTag()  {}
func (Lurking) skillTag()    {}
func (PowerShot) skillTag()  {}

// SkillSpec is the client-visible skill description plus its effect.
type SkillSpec struct {
	ID         string `json:"id"`
	Key        string `json:"key"`
	CooldownMs int64  `json:"cooldownMs"`
	DurationMs int64  `json:"durationMs"`
	Effect     SkillEffect `json:"-"`
}

// SkillTable is the full skill registry, in pick-list order.
var SkillTable = []SkillSpec{
	{ID: SkillSlowdown, Key: "Q", CooldownMs: SlowdownCooldownMs, DurationMs: SlowdownDurationMs,
		Effect: SpeedSlow{Mul: SlowdownFactor, DurationMs: SlowdownDurationMs}},
	{ID: SkillBlink, Key: "Q", CooldownMs: BlinkCooldownMs, DurationMs: 0,
		Effect: Blink{MinDist: BlinkMinDist, MaxDist: BlinkMaxDist, PreventClip: true}},
	{ID: SkillMetavision, Key: "Q", CooldownMs: MetavisionCooldownMs, DurationMs: MetavisionDurationMs,
		Effect: Metavision{DurationMs: MetavisionDurationMs}},
	{ID: SkillNinjaStep, Key: "Q", CooldownMs: 0, DurationMs: 0,
		Effect: NinjaStep{}},
	{ID: SkillLurking, Key: "Q", CooldownMs: LurkingCooldownMs, DurationMs: LurkingWindowMs,
		Effect: Lurking{Radius: LurkingRadius, WindowMs: LurkingWindowMs}},
	{ID: SkillPowerShot, Key: "Q", CooldownMs: PowerShotCooldownMs, DurationMs: PowerShotWindowMs,
		Effect: PowerShot{Speed: PowerShotSpeed, Knockback: PowerShotKnockback, Retention: PowerShotRetention, WindowMs: PowerShotWindowMs}},
}

// SkillByID looks up a skill spec.
func SkillByID(id string) (SkillSpec, bool) {
	for _, s := range SkillTable {
		if s.ID == id {
			return s, true
		}
	}
	return SkillSpec{}, false
}

// AllSkillIDs returns the registry IDs in order.
func AllSkillIDs() []string {
	ids := make([]string, len(SkillTable))
	for i, s := range SkillTable {
		ids[i] = s.ID
	}
	return ids
}

// drainSkills runs queued activations synchronously inside the step's
// input-drain phase, in arrival order.
func (g *Game) drainSkills() {
	reqs := g.pendingSkills
	g.pendingSkills = g.pendingSkills[:0]
	for _, req := range reqs {
		g.activateSkill(req)
	}
}

// activateSkill validates ownership and cooldown, then applies the effect.
// All rejections are silent per the drop policy.
func (g *Game) activateSkill(req skillRequest) {
	p, err := g.playerByID(req.PlayerID)
	if err != nil {
		return
	}
	spec, ok := SkillByID(req.SkillID)
	if !ok {
		return
	}
	// Outside the lobby only the assigned skill may fire.
	if g.match.Status != StatusLobby && p.AssignedSkill != spec.ID {
		return
	}
	if until, ok := p.Cooldowns[spec.ID]; ok && g.now < until {
		// Lurking's second activation arrives inside the cooldown its first
		// activation just started; the open window lets it through.
		_, isLurking := spec.Effect.(Lurking)
		if !(isLurking && g.now < p.LurkingUntil) {
			return
		}
	}

	applied := false
	switch eff := spec.Effect.(type) {
	case SpeedSlow:
		applied = g.applySlowdown(p, eff)
	case Blink:
		applied = g.applyBlink(p, eff, req)
	case Metavision:
		applied = g.applyMetavision(p, eff)
	case NinjaStep:
		applied = g.applyNinjaStep(p)
	case Lurking:
		applied = g.applyLurking(p, eff)
	case PowerShot:
		applied = g.applyPowerShot(p, eff)
	}
	if !applied {
		return
	}

	if spec.CooldownMs > 0 {
		p.Cooldowns[spec.ID] = g.now + spec.CooldownMs
	}
	g.broadcast(Envelope{T: MsgSkillActivated, Data: SkillEventMsg{
		PlayerID: p.ID,
		SkillID:  spec.ID,
	}})
}

func (g *Game) applySlowdown(caster *PlayerPhysics, eff SpeedSlow) bool {
	if !caster.OnPitch() {
		return false
	}
	until := g.now + eff.DurationMs
	for _, id := range g.order {
		p := g.players[id]
		if p.ID == caster.ID || !p.OnPitch() {
			continue
		}
		p.VX *= eff.Mul
		p.VY *= eff.Mul
		p.SlowedUntil = until
	}
	casterID := caster.ID
	g.timers.Schedule(until, func() {
		g.broadcast(Envelope{T: MsgSkillEnded, Data: SkillEventMsg{PlayerID: casterID, SkillID: SkillSlowdown}})
	})
	return true
}

func (g *Game) applyBlink(p *PlayerPhysics, eff Blink, req skillRequest) bool {
	if !req.HasFacing {
		return false
	}
	fromX, fromY := p.X, p.Y
	dirX := math.Cos(req.Facing)
	dirY := math.Sin(req.Facing)

	toX := Clamp(fromX+dirX*eff.MaxDist, PlayerRadius, PitchWidth-PlayerRadius)
	toY := Clamp(fromY+dirY*eff.MaxDist, PlayerRadius, PitchHeight-PlayerRadius)

	// Spectators cancel rather than blink into geometry; the short hop is
	// tried first. On-pitch players always land.
	if p.Team == TeamSpectator && eff.PreventClip {
		if clipsCollider(g.world, toX, toY, p.Radius) {
			toX = Clamp(fromX+dirX*eff.MinDist, PlayerRadius, PitchWidth-PlayerRadius)
			toY = Clamp(fromY+dirY*eff.MinDist, PlayerRadius, PitchHeight-PlayerRadius)
			if clipsCollider(g.world, toX, toY, p.Radius) {
				return false
			}
		}
	}

	p.X = toX
	p.Y = toY
	p.VX = 0
	p.VY = 0
	g.broadcast(Envelope{T: MsgBlinkActivated, Data: BlinkActivatedMsg{
		PlayerID: p.ID,
		FromX:    fromX,
		FromY:    fromY,
		ToX:      toX,
		ToY:      toY,
	}})
	return true
}

// clipsCollider reports whether a circle at (x, y) intersects any static rect.
func clipsCollider(w *World, x, y, radius float64) bool {
	for _, r := range w.Colliders {
		cx, cy := closestPointOnRect(r, x, y)
		if Distance(x, y, cx, cy) < radius {
			return true
		}
	}
	return false
}

func (g *Game) applyMetavision(p *PlayerPhysics, eff Metavision) bool {
	if !p.OnPitch() {
		return false
	}
	p.MetavisionUntil = g.now + eff.DurationMs
	pid := p.ID
	g.timers.Schedule(p.MetavisionUntil, func() {
		g.broadcast(Envelope{T: MsgSkillEnded, Data: SkillEventMsg{PlayerID: pid, SkillID: SkillMetavision}})
	})
	return true
}

func (g *Game) applyNinjaStep(p *PlayerPhysics) bool {
	if !p.OnPitch() {
		return false
	}
	p.PhaseThrough = !p.PhaseThrough
	if !p.PhaseThrough {
		g.broadcast(Envelope{T: MsgSkillEnded, Data: SkillEventMsg{PlayerID: p.ID, SkillID: SkillNinjaStep}})
	}
	return true
}

// applyLurking arms a 5 s window on the first activation; a second
// activation inside the window snatches a ball within radius.
func (g *Game) applyLurking(p *PlayerPhysics, eff Lurking) bool {
	if !p.OnPitch() {
		return false
	}
	if g.now >= p.LurkingUntil {
		// First activation: arm.
		p.LurkingUntil = g.now + eff.WindowMs
		pid := p.ID
		g.timers.Schedule(p.LurkingUntil, func() {
			g.broadcast(Envelope{T: MsgSkillEnded, Data: SkillEventMsg{PlayerID: pid, SkillID: SkillLurking}})
		})
		return true
	}
	// Second activation inside the window.
	if Distance(p.X, p.Y, g.ball.X, g.ball.Y) > eff.Radius {
		return false
	}
	// Land just behind the ball so it sits on the attacking side.
	p.X = Clamp(g.ball.X-LurkingOffset*AttackDirection(p.Team), PlayerRadius, PitchWidth-PlayerRadius)
	p.Y = g.ball.Y
	p.VX = 0
	p.VY = 0
	g.ball.SetVelocity(0, 0)
	g.ball.Touch(p.ID, g.now)
	p.LurkingUntil = 0
	g.broadcast(Envelope{T: MsgSkillTriggered, Data: SkillEventMsg{PlayerID: p.ID, SkillID: SkillLurking}})
	g.emitBallSnapshot()
	return true
}

func (g *Game) applyPowerShot(p *PlayerPhysics, eff PowerShot) bool {
	if !p.OnPitch() {
		return false
	}
	if Distance(p.X, p.Y, g.ball.X, g.ball.Y) > PowerShotRange {
		return false
	}
	gx, gy := OpponentGoalTarget(p.Team)
	dx := gx - g.ball.X
	dy := gy - g.ball.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist == 0 {
		return false
	}
	speed := eff.Speed * KickPowerMultiplier(p.EffectiveKickPowerStat(g.now))
	g.ball.SetVelocity(dx/dist*speed, dy/dist*speed)
	g.ball.Touch(p.ID, g.now)
	p.LastKickAt = g.now
	g.lastKickAnyAt = g.now

	p.VX -= dx / dist * KickRecoil
	p.VY -= dy / dist * KickRecoil

	until := g.now + eff.WindowMs
	p.PowerShot = PowerShotWindow{
		KnockbackForce: eff.Knockback,
		BallRetention:  eff.Retention,
		Until:          until,
	}
	g.contactOverride = p.PowerShot
	p.KickPowerBuff = PowerShotKickBuff
	p.KickPowerBuffUntil = until
	pid := p.ID
	g.timers.Schedule(until, func() {
		g.broadcast(Envelope{T: MsgSkillEnded, Data: SkillEventMsg{PlayerID: pid, SkillID: SkillPowerShot}})
	})
	g.broadcast(Envelope{T: MsgSkillTriggered, Data: SkillEventMsg{PlayerID: p.ID, SkillID: SkillPowerShot}})
	g.emitBallSnapshot()
	return true
}
