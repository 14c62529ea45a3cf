package main

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Binary frame type tags. Frames are msgpack-encoded and carried in binary
// websocket messages; everything else is the JSON envelope.
const (
	FrameBallState     = "ball:state"
	FramePlayersUpdate = "players:physicsUpdate"
)

// BallSnapshot is the authoritative ball broadcast.
type BallSnapshot struct {
	T            string  `msgpack:"t" json:"-"`
	X            float64 `msgpack:"x" json:"x"`
	Y            float64 `msgpack:"y" json:"y"`
	VX           float64 `msgpack:"vx" json:"vx"`
	VY           float64 `msgpack:"vy" json:"vy"`
	LastTouchID  string  `msgpack:"lt" json:"lastTouchId"`
	KickSequence uint64  `msgpack:"ks" json:"kickSequence"`
	ServerTick   uint64  `msgpack:"st" json:"serverTick"`
	Timestamp    int64   `msgpack:"ts" json:"timestamp"`
}

// PlayerSnapshot carries one player's state plus the reconciliation ack.
type PlayerSnapshot struct {
	ID                    string  `msgpack:"id"`
	X                     float64 `msgpack:"x"`
	Y                     float64 `msgpack:"y"`
	VX                    float64 `msgpack:"vx"`
	VY                    float64 `msgpack:"vy"`
	IsGhosted             bool    `msgpack:"g"`
	IsSpectator           bool    `msgpack:"sp"`
	LastProcessedSequence uint32  `msgpack:"seq"`
	Timestamp             int64   `msgpack:"ts"`
}

// PlayersFrame is the per-cadence player array broadcast.
type PlayersFrame struct {
	T          string           `msgpack:"t"`
	ServerTick uint64           `msgpack:"st"`
	Players    []PlayerSnapshot `msgpack:"p"`
}

// ballSnapshotLocked builds the current ball frame. Caller holds the lock.
func (g *Game) ballSnapshotLocked() BallSnapshot {
	return BallSnapshot{
		T:            FrameBallState,
		X:            g.ball.X,
		Y:            g.ball.Y,
		VX:           g.ball.VX,
		VY:           g.ball.VY,
		LastTouchID:  g.ball.LastTouchID,
		KickSequence: g.ball.KickSequence,
		ServerTick:   g.tick,
		Timestamp:    g.now,
	}
}

// emitBallSnapshot pushes a ball frame immediately, outside the network
// cadence. Used after kicks, dribbles and teleports so clients see the
// authoritative impulse as soon as it exists.
func (g *Game) emitBallSnapshot() {
	snap := g.ballSnapshotLocked()
	data, err := msgpack.Marshal(snap)
	if err != nil {
		g.log.Error().Err(err).Msg("ball snapshot encode failed")
		return
	}
	g.broadcastBinary(data)
}

// broadcastSnapshotsLocked emits the cadence frames: ball state and the full
// player array. Caller holds the lock.
func (g *Game) broadcastSnapshotsLocked() {
	ball, err := msgpack.Marshal(g.ballSnapshotLocked())
	if err != nil {
		g.log.Error().Err(err).Msg("ball snapshot encode failed")
		return
	}
	g.broadcastBinary(ball)

	frame := PlayersFrame{
		T:          FramePlayersUpdate,
		ServerTick: g.tick,
		Players:    make([]PlayerSnapshot, 0, len(g.order)),
	}
	for _, id := range g.order {
		p := g.players[id]
		frame.Players = append(frame.Players, PlayerSnapshot{
			ID:                    p.ID,
			X:                     p.X,
			Y:                     p.Y,
			VX:                    p.VX,
			VY:                    p.VY,
			IsGhosted:             p.PhaseThrough,
			IsSpectator:           !p.OnPitch(),
			LastProcessedSequence: p.LastProcessedSequence(),
			Timestamp:             g.now,
		})
	}
	players, err := msgpack.Marshal(frame)
	if err != nil {
		g.log.Error().Err(err).Msg("players snapshot encode failed")
		return
	}
	g.broadcastBinary(players)
}

// GameStateReply answers soccer:requestGameState.
type GameStateReply struct {
	Status         string            `json:"status"`
	ScoreRed       int               `json:"scoreRed"`
	ScoreBlue      int               `json:"scoreBlue"`
	SecondsLeft    int               `json:"secondsLeft"`
	Overtime       bool              `json:"overtime"`
	AssignedSkills map[string]string `json:"assignedSkills"`
	Ball           BallSnapshot      `json:"ball"`
}

// gameStateReplyLocked builds the request/reply state dump.
func (g *Game) gameStateReplyLocked() GameStateReply {
	skills := make(map[string]string)
	for _, id := range g.order {
		if s := g.players[id].AssignedSkill; s != "" {
			skills[id] = s
		}
	}
	return GameStateReply{
		Status:         g.match.Status,
		ScoreRed:       g.match.ScoreRed,
		ScoreBlue:      g.match.ScoreBlue,
		SecondsLeft:    int(g.match.ClockRemaining),
		Overtime:       g.match.OvertimeUsed,
		AssignedSkills: skills,
		Ball:           g.ballSnapshotLocked(),
	}
}

// RequestGameState is the request/reply entry point used by the client.
func (g *Game) RequestGameState(playerID string) {
	g.mu.Lock()
	reply := g.gameStateReplyLocked()
	g.mu.Unlock()
	g.sendTo(playerID, Envelope{T: MsgGameState, Data: reply})
}

// PlayerListEntry answers soccer:getPlayers.
type PlayerListEntry struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Team  string      `json:"team"`
	Stats SoccerStats `json:"stats"`
	Skill string      `json:"skill,omitempty"`
}

// RequestPlayers replies with the current roster.
func (g *Game) RequestPlayers(playerID string) {
	g.mu.Lock()
	list := make([]PlayerListEntry, 0, len(g.order))
	for _, id := range g.order {
		p := g.players[id]
		list = append(list, PlayerListEntry{
			ID:    p.ID,
			Name:  p.Name,
			Team:  p.Team,
			Stats: p.Stats,
			Skill: p.AssignedSkill,
		})
	}
	g.mu.Unlock()
	g.sendTo(playerID, Envelope{T: MsgPlayers, Data: list})
}

// RequestSkillConfig replies with the skill registry.
func (g *Game) RequestSkillConfig(playerID string) {
	g.sendTo(playerID, Envelope{T: MsgSkillConfig, Data: SkillTable})
}
