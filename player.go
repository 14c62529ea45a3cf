package main

// Team identifiers. Spectators stand on the pitch apron and never collide
// with on-pitch players or the ball.
const (
	TeamNone      = "none"
	TeamRed       = "red"
	TeamBlue      = "blue"
	TeamSpectator = "spectator"
)

const (
	// StatPointTotal is the fixed budget split across speed/kickPower/dribbling.
	StatPointTotal = 15

	// InputQueueCap bounds the per-player input backlog (~2 s at 60 Hz).
	InputQueueCap = 120
)

// SoccerStats is the persisted 15-point stat split.
type SoccerStats struct {
	Speed     int `json:"speed"`
	KickPower int `json:"kickPower"`
	Dribbling int `json:"dribbling"`
}

// Valid checks the stat invariant: non-negative integers summing to 15.
func (s SoccerStats) Valid() bool {
	if s.Speed < 0 || s.KickPower < 0 || s.Dribbling < 0 {
		return false
	}
	return s.Speed+s.KickPower+s.Dribbling == StatPointTotal
}

// MatchStats accumulates per-player scoring over one match.
type MatchStats struct {
	Goals         int `json:"goals"`
	Assists       int `json:"assists"`
	Interceptions int `json:"interceptions"`
}

// PlayerPhysics is the authoritative per-player simulation record. All
// fields are owned by the simulation loop; ingress handlers only append to
// the input queue under the game lock.
type PlayerPhysics struct {
	ID           string
	AuthPlayerID int64
	Name         string

	X, Y   float64
	VX, VY float64
	Radius float64

	Team     string
	TeamSlot int

	Stats       SoccerStats
	StatsLoaded bool

	// Input pipeline
	inputQueue   []InputState
	currentInput InputState
	lastSeq      uint32 // last processed sequence, never decreases

	LastKickAt int64 // sim ms of last accepted kick, 0 = never
	History    *HistoryBuffer
	Match      MatchStats

	// Skill layer
	AssignedSkill string
	Cooldowns     map[string]int64 // skillID -> sim ms when usable again

	SlowedUntil     int64
	MetavisionUntil int64
	PhaseThrough    bool
	LurkingUntil    int64
	PowerShot       PowerShotWindow

	KickPowerBuff      int
	KickPowerBuffUntil int64
	SpeedBuff          int
	SpeedBuffUntil     int64
}

// PowerShotWindow is the transient contact override granted by power_shot.
type PowerShotWindow struct {
	KnockbackForce float64
	BallRetention  float64
	Until          int64
}

// NewPlayerPhysics creates a player record at the given position.
func NewPlayerPhysics(id, name string, x, y float64) *PlayerPhysics {
	return &PlayerPhysics{
		ID:        id,
		Name:      name,
		X:         x,
		Y:         y,
		Radius:    PlayerRadius,
		Team:      TeamNone,
		History:   NewHistoryBuffer(HistorySamples),
		Cooldowns: make(map[string]int64),
	}
}

// OnPitch reports whether the player participates in match physics.
func (p *PlayerPhysics) OnPitch() bool {
	return p.Team == TeamRed || p.Team == TeamBlue
}

// EnqueueInputs appends an ordered input batch, dropping entries at or below
// the last processed sequence and coalescing duplicates of the tail. The
// queue is capped; overflow drops from the front so the newest intent wins.
func (p *PlayerPhysics) EnqueueInputs(batch []InputState) {
	for _, in := range batch {
		if in.Sequence <= p.lastSeq {
			continue
		}
		if n := len(p.inputQueue); n > 0 && p.inputQueue[n-1].Sequence == in.Sequence {
			p.inputQueue[n-1] = in
			continue
		}
		p.inputQueue = append(p.inputQueue, in)
	}
	if over := len(p.inputQueue) - InputQueueCap; over > 0 {
		p.inputQueue = p.inputQueue[over:]
	}
}

// ConsumeInput pops the next queued input, or repeats the last applied one
// when the queue is dry (the client's send cadence outruns the tick rate, so
// a dry queue means a gap, not a release).
func (p *PlayerPhysics) ConsumeInput() InputState {
	if len(p.inputQueue) > 0 {
		p.currentInput = p.inputQueue[0]
		p.inputQueue = p.inputQueue[1:]
		p.lastSeq = p.currentInput.Sequence
	}
	return p.currentInput
}

// LastProcessedSequence is echoed inside every snapshot for reconciliation.
func (p *PlayerPhysics) LastProcessedSequence() uint32 {
	return p.lastSeq
}

// QueueLen is exposed for tests and metrics.
func (p *PlayerPhysics) QueueLen() int {
	return len(p.inputQueue)
}

// EffectiveSpeedStat folds in timed buffs.
func (p *PlayerPhysics) EffectiveSpeedStat(now int64) int {
	s := p.Stats.Speed
	if p.SpeedBuff != 0 && now < p.SpeedBuffUntil {
		s += p.SpeedBuff
	}
	return s
}

// EffectiveKickPowerStat folds in timed buffs.
func (p *PlayerPhysics) EffectiveKickPowerStat(now int64) int {
	s := p.Stats.KickPower
	if p.KickPowerBuff != 0 && now < p.KickPowerBuffUntil {
		s += p.KickPowerBuff
	}
	return s
}

// SpeedMulAt is the integration speed multiplier at sim time now, including
// the slow-effect penalty.
func (p *PlayerPhysics) SpeedMulAt(now int64) float64 {
	mul := SpeedMultiplier(p.EffectiveSpeedStat(now))
	if now < p.SlowedUntil {
		mul *= SlowdownFactor
	}
	return mul
}

// MetavisionActive reports whether the metavision window is open.
func (p *PlayerPhysics) MetavisionActive(now int64) bool {
	return now < p.MetavisionUntil
}

// PowerShotActive reports whether the power-shot contact window is open.
func (p *PlayerPhysics) PowerShotActive(now int64) bool {
	return now < p.PowerShot.Until
}

// ClearEffects drops every transient skill effect and buff. Used on game
// reset and disconnect; cooldowns survive a reset on purpose.
func (p *PlayerPhysics) ClearEffects() {
	p.SlowedUntil = 0
	p.MetavisionUntil = 0
	p.PhaseThrough = false
	p.LurkingUntil = 0
	p.PowerShot = PowerShotWindow{}
	p.KickPowerBuff = 0
	p.KickPowerBuffUntil = 0
	p.SpeedBuff = 0
	p.SpeedBuffUntil = 0
}

// ResetMotion zeroes velocity and pending input, keeping position.
func (p *PlayerPhysics) ResetMotion() {
	p.VX = 0
	p.VY = 0
	p.inputQueue = p.inputQueue[:0]
	p.currentInput = InputState{Sequence: p.currentInput.Sequence}
}
