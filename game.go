package main

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// SoccerScene is the room name every simulation message fans out to.
const SoccerScene = "scene:SoccerMap"

// RoomSender abstracts the hub for the simulation: fan-out to the scene room
// and direct sends to one player.
type RoomSender interface {
	BroadcastJSON(room string, msg interface{})
	BroadcastBinary(room string, data []byte)
	SendToPlayer(playerID string, msg interface{})
}

// StatsRepository is the persistence boundary. Implemented by DB; faked in
// tests.
type StatsRepository interface {
	FindStatsByUserID(userID int64) (*SoccerStatsRow, error)
	SaveStats(userID int64, stats SoccerStats) error
	UpdateMMR(userID int64, delta int, won bool) (int, error)
	AddMatchHistory(entry MatchHistoryEntry) error
}

// kickRequest is a queued ball:kick message, validated on the loop.
type kickRequest struct {
	PlayerID    string
	Angle       float64
	BasePower   float64
	ClientStamp int64 // client timestamp hint, 0 = none
	LocalKickID string
}

// dribbleRequest is a queued ball:dribble message.
type dribbleRequest struct {
	PlayerID    string
	ClientStamp int64
}

// skillRequest is a queued soccer:activateSkill message.
type skillRequest struct {
	PlayerID string
	SkillID  string
	Facing   float64
	HasFacing bool
}

// Game owns the entire simulation: ball, player records, input queues, the
// timer queue, and the match state machine. Ingress handlers take the lock
// only to append to queues; every physics mutation happens on the loop
// goroutine inside step().
type Game struct {
	mu sync.Mutex

	log    zerolog.Logger
	cfg    *Config
	world  *World
	room   RoomSender
	repo   StatsRepository
	events *EventRecorder

	players  map[string]*PlayerPhysics
	order    []string // join order; map iteration is randomized, steps are not
	ball     *BallState
	ballHist *HistoryBuffer
	timers   *TimerQueue
	match    *MatchState

	tick uint64
	now  int64 // sim ms, advances 16 per step

	pendingKicks    []kickRequest
	pendingDribbles []dribbleRequest
	pendingSkills   []skillRequest

	goalResetPending bool
	lastKickAnyAt    int64 // sim ms of last accepted kick by anyone, gates dribbles

	// contactOverride is the live power-shot window. Game-level: it keeps
	// overriding ball contact even after the touch chain moves on.
	contactOverride PowerShotWindow

	// Loop lifecycle
	running    bool
	stopCh     chan struct{}
	loopStarts uint64
}

// NewGame wires a simulation over the given world. room, repo and events may
// be nil in unit tests.
func NewGame(cfg *Config, world *World, room RoomSender, repo StatsRepository, events *EventRecorder, log zerolog.Logger) *Game {
	return &Game{
		log:     log,
		cfg:     cfg,
		world:   world,
		room:    room,
		repo:    repo,
		events:  events,
		players: make(map[string]*PlayerPhysics),
		ball:    NewBall(),
		timers:  NewTimerQueue(),
		match:   NewMatchState(cfg),
	}
}

// AddPlayer registers a player entering the soccer scene. Stats are read
// through the repository; a missing row joins with zero stats and a null
// stats payload so the client prompts for assignment.
func (g *Game) AddPlayer(id, name string, authID int64, x, y float64) *PlayerPhysics {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.players[id]; ok {
		return g.players[id]
	}
	if x == 0 && y == 0 {
		x, y = spectatorSpawn[0], spectatorSpawn[1]
	}
	p := NewPlayerPhysics(id, name, x, y)
	p.AuthPlayerID = authID
	if g.match.Status != StatusLobby {
		// Joining mid-match puts you on the apron.
		p.Team = TeamSpectator
	}

	if g.repo != nil && authID != 0 {
		row, err := g.repo.FindStatsByUserID(authID)
		if err != nil {
			g.log.Warn().Err(err).Str("player", id).Msg("stats lookup failed, joining with zero stats")
		} else if row != nil {
			p.Stats = row.Stats
			p.StatsLoaded = true
		}
	}

	g.players[id] = p
	g.order = append(g.order, id)
	g.maybeStartLoopLocked()
	return p
}

// RemovePlayer drops a player and cancels anything they own. Stops the loop
// when the pitch empties.
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	p, ok := g.players[id]
	if ok {
		p.ClearEffects()
		delete(g.players, id)
		for i, pid := range g.order {
			if pid == id {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
		g.match.HandleDisconnect(g, id)
	}
	empty := len(g.players) == 0
	g.mu.Unlock()

	if empty {
		g.StopLoop()
	}
}

// PlayerCount returns the number of registered players.
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// SetStats replaces a player's stat split after a successful persist.
func (g *Game) SetStats(playerID string, stats SoccerStats) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.players[playerID]; ok {
		p.Stats = stats
		p.StatsLoaded = true
	}
}

// HandleInputBatch appends a player's ordered input batch to their queue.
func (g *Game) HandleInputBatch(playerID string, batch []InputState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.players[playerID]; ok {
		p.EnqueueInputs(batch)
	}
}

// QueueKick enqueues a kick for validation at the head of the next step.
func (g *Game) QueueKick(req kickRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pendingKicks = append(g.pendingKicks, req)
}

// QueueDribble enqueues a dribble request.
func (g *Game) QueueDribble(req dribbleRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pendingDribbles = append(g.pendingDribbles, req)
}

// QueueSkill enqueues a skill activation.
func (g *Game) QueueSkill(req skillRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pendingSkills = append(g.pendingSkills, req)
}

// step advances the simulation by exactly one 16 ms tick. Caller holds the
// lock. A panic inside one step is logged and aborts only that step.
func (g *Game) step() {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Uint64("tick", g.tick).Msg("simulation step aborted")
		}
	}()

	g.tick++
	g.now += PhysicsTickMs

	// Discrete events first, in arrival order, before integration.
	g.drainSkills()
	g.drainKicks()
	g.drainDribbles()

	// Player integration: one queued input each.
	for _, id := range g.order {
		p := g.players[id]
		in := p.ConsumeInput()
		p.X, p.Y, p.VX, p.VY = IntegratePlayer(
			p.X, p.Y, p.VX, p.VY, PhysicsDt,
			DragMultiplier(p.Stats.Dribbling),
			p.SpeedMulAt(g.now),
			in,
		)
	}

	g.resolvePlayerPairs()
	g.applyBallKnockback()

	g.ball.X, g.ball.Y, g.ball.VX, g.ball.VY = IntegrateBall(g.ball.X, g.ball.Y, g.ball.VX, g.ball.VY, PhysicsDt)

	g.resolveBallPlayers()
	g.resolveBallRects()
	g.checkGoal()
	g.clampBall()

	if g.ball.Moving && g.ball.Speed() < BallStopSpeed {
		g.ball.VX = 0
		g.ball.VY = 0
		g.ball.Moving = false
	}

	g.resolveSpectatorWalls()

	for _, id := range g.order {
		p := g.players[id]
		p.History.Push(p.X, p.Y, g.now)
	}
	// Ball shares the history mechanism for rewound kick validation.
	g.ballHistory().Push(g.ball.X, g.ball.Y, g.now)

	g.timers.Fire(g.now)
	g.match.Advance(g, PhysicsDt)
}

func (g *Game) ballHistory() *HistoryBuffer {
	if g.ballHist == nil {
		g.ballHist = NewHistoryBuffer(HistorySamples)
	}
	return g.ballHist
}

// activeSoccerPlayersLocked counts players in the scene: the loop runs
// while this is nonzero.
func (g *Game) activeSoccerPlayersLocked() int {
	return len(g.players)
}

// broadcast is a nil-safe room fan-out.
func (g *Game) broadcast(msg interface{}) {
	if g.room != nil {
		g.room.BroadcastJSON(SoccerScene, msg)
	}
}

func (g *Game) broadcastBinary(data []byte) {
	if g.room != nil {
		g.room.BroadcastBinary(SoccerScene, data)
	}
}

func (g *Game) sendTo(playerID string, msg interface{}) {
	if g.room != nil {
		g.room.SendToPlayer(playerID, msg)
	}
}

func (g *Game) record(evt string, playerID int64, data string) {
	if g.events != nil {
		g.events.Track(evt, playerID, data)
	}
}

// playerByID is a lock-free helper for loop-internal code.
func (g *Game) playerByID(id string) (*PlayerPhysics, error) {
	p, ok := g.players[id]
	if !ok {
		return nil, fmt.Errorf("unknown player %s", id)
	}
	return p, nil
}
