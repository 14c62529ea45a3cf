package main

import (
	"math/rand"

	"github.com/google/uuid"
)

// Match statuses.
const (
	StatusLobby          = "LOBBY"
	StatusSkillSelection = "SKILL_SELECTION"
	StatusActive         = "ACTIVE"
)

// SelectionTurnMs is the per-pick deadline during skill selection.
const SelectionTurnMs = 30000

// MVP score weights and feat thresholds.
const (
	mvpGoalWeight         = 10
	mvpAssistWeight       = 5
	mvpInterceptionWeight = 2

	featGoals         = 2
	featAssists       = 2
	featInterceptions = 3
	featCap           = 3
)

// MatchState is the orchestrator: lobby, snake skill selection, active play
// with clock and overtime, and end-of-game settlement. Owned by the
// simulation loop like everything else.
type MatchState struct {
	Status    string
	MatchID   string
	ScoreRed  int
	ScoreBlue int

	ClockRemaining float64 // seconds
	lastWholeSec   int
	OvertimeUsed   bool

	GameDuration float64
	Overtime     float64

	// Skill selection
	SelectionOrder []string
	PickIndex      int
	Reverse        bool // snake direction for the current pass
	Available      []string
	deadline       *TimerHandle

	startedAt int64
}

// NewMatchState creates a lobby-state match.
func NewMatchState(cfg *Config) *MatchState {
	duration := 300.0
	overtime := 60.0
	if cfg != nil {
		duration = cfg.GameDurationS
		overtime = cfg.OvertimeS
	}
	return &MatchState{
		Status:       StatusLobby,
		GameDuration: duration,
		Overtime:     overtime,
	}
}

// AddScore bumps a team's score.
func (m *MatchState) AddScore(team string) {
	if team == TeamRed {
		m.ScoreRed++
	} else if team == TeamBlue {
		m.ScoreBlue++
	}
}

// AssignTeam puts a player on the smaller team at the next spawn slot.
// Mid-match joiners get a personal skill pick.
func (g *Game) AssignTeam(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.playerByID(playerID)
	if err != nil {
		return
	}
	red, blue := 0, 0
	for _, other := range g.players {
		switch other.Team {
		case TeamRed:
			red++
		case TeamBlue:
			blue++
		}
	}
	team := TeamRed
	slot := red
	if blue < red {
		team = TeamBlue
		slot = blue
	}
	g.placeOnTeam(p, team, slot)

	if g.match.Status == StatusActive && p.AssignedSkill == "" {
		g.sendTo(p.ID, Envelope{T: MsgStartMidGamePick, Data: MidGamePickMsg{
			PlayerID:  p.ID,
			Available: append([]string(nil), g.match.Available...),
		}})
	}
	g.maybeStartLoopLocked()
}

// placeOnTeam teleports a player to a team spawn. Caller holds the lock.
func (g *Game) placeOnTeam(p *PlayerPhysics, team string, slot int) {
	p.Team = team
	p.TeamSlot = slot
	x, y := SpawnFor(team, slot)
	p.X = x
	p.Y = y
	p.ResetMotion()
	g.broadcast(Envelope{T: MsgTeamAssigned, Data: TeamAssignedMsg{
		PlayerID: p.ID,
		Team:     team,
		X:        x,
		Y:        y,
	}})
}

// RandomizeTeams shuffles every non-spectator across the two teams.
func (g *Game) RandomizeTeams() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.match.Status != StatusLobby {
		return
	}

	var ids []string
	for _, id := range g.order {
		if g.players[id].Team != TeamSpectator {
			ids = append(ids, id)
		}
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	slots := map[string]int{TeamRed: 0, TeamBlue: 0}
	for i, id := range ids {
		team := TeamRed
		if i%2 == 1 {
			team = TeamBlue
		}
		g.placeOnTeam(g.players[id], team, slots[team])
		slots[team]++
	}
	g.maybeStartLoopLocked()
}

// ResetGame returns everything to the lobby: score, clock, effects, timers.
func (g *Game) ResetGame() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetGameLocked()
	g.broadcast(Envelope{T: MsgGameReset, Data: nil})
}

func (g *Game) resetGameLocked() {
	g.timers.CancelAll()
	g.goalResetPending = false
	g.contactOverride = PowerShotWindow{}
	g.ball.ResetToCenter()

	m := g.match
	m.Status = StatusLobby
	m.ScoreRed = 0
	m.ScoreBlue = 0
	m.ClockRemaining = 0
	m.OvertimeUsed = false
	m.SelectionOrder = nil
	m.Available = nil
	m.PickIndex = 0
	m.Reverse = false
	m.deadline = nil

	slots := map[string]int{TeamRed: 0, TeamBlue: 0}
	for _, id := range g.order {
		p := g.players[id]
		p.ClearEffects()
		p.Match = MatchStats{}
		p.AssignedSkill = ""
		if p.OnPitch() {
			x, y := SpawnFor(p.Team, slots[p.Team])
			slots[p.Team]++
			p.X = x
			p.Y = y
		}
		p.ResetMotion()
	}
}

// StartGame moves the lobby into skill selection. Needs a body on each team.
func (g *Game) StartGame() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.match.Status != StatusLobby {
		return
	}
	red, blue := 0, 0
	var order []string
	for _, id := range g.order {
		switch g.players[id].Team {
		case TeamRed:
			red++
			order = append(order, id)
		case TeamBlue:
			blue++
			order = append(order, id)
		}
	}
	if red == 0 || blue == 0 {
		return
	}

	m := g.match
	m.Status = StatusSkillSelection
	m.MatchID = uuid.NewString()
	m.SelectionOrder = order
	m.PickIndex = 0
	m.Reverse = false
	m.Available = AllSkillIDs()

	g.broadcast(Envelope{T: MsgSelectionPhaseStarted, Data: SelectionMsg{
		Order:     order,
		Available: append([]string(nil), m.Available...),
		Current:   order[0],
		TurnMs:    SelectionTurnMs,
	}})
	g.armSelectionDeadline()
}

// armSelectionDeadline schedules the auto-pick for the current picker.
// Caller holds the lock.
func (g *Game) armSelectionDeadline() {
	m := g.match
	m.deadline.Cancel()
	picker := m.SelectionOrder[m.PickIndex]
	m.deadline = g.timers.Schedule(g.now+SelectionTurnMs, func() {
		g.autoPick(picker)
	})
}

// autoPick fires when a picker sleeps through their turn: uniform choice
// from the remaining set.
func (g *Game) autoPick(playerID string) {
	m := g.match
	if m.Status != StatusSkillSelection {
		return
	}
	if m.SelectionOrder[m.PickIndex] != playerID {
		return
	}
	if len(m.Available) == 0 {
		return
	}
	skillID := m.Available[rand.Intn(len(m.Available))]
	g.applyPickLocked(playerID, skillID)
}

// PickSkill handles an explicit soccer:pickSkill. Wrong picker, unknown or
// taken skill: silent drop.
func (g *Game) PickSkill(playerID, skillID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.match

	// Mid-game picks for late joiners.
	if m.Status == StatusActive {
		p, err := g.playerByID(playerID)
		if err != nil || p.AssignedSkill != "" || !p.OnPitch() {
			return
		}
		if !g.takeAvailable(skillID) {
			return
		}
		p.AssignedSkill = skillID
		g.broadcast(Envelope{T: MsgSkillPicked, Data: SkillPickedMsg{PlayerID: playerID, SkillID: skillID}})
		return
	}

	if m.Status != StatusSkillSelection {
		return
	}
	if m.SelectionOrder[m.PickIndex] != playerID {
		return
	}
	if !containsString(m.Available, skillID) {
		return
	}
	g.applyPickLocked(playerID, skillID)
}

// applyPickLocked commits a pick, advances the snake, and starts the match
// after the last pick. Caller holds the lock.
func (g *Game) applyPickLocked(playerID, skillID string) {
	m := g.match
	p, err := g.playerByID(playerID)
	if err != nil {
		g.advancePicker()
		return
	}
	g.takeAvailable(skillID)
	p.AssignedSkill = skillID
	g.broadcast(Envelope{T: MsgSkillPicked, Data: SkillPickedMsg{PlayerID: playerID, SkillID: skillID}})
	g.advancePicker()
	if m.Status == StatusSkillSelection {
		g.broadcast(Envelope{T: MsgSelectionUpdate, Data: SelectionMsg{
			Order:     m.SelectionOrder,
			Available: append([]string(nil), m.Available...),
			Current:   m.SelectionOrder[m.PickIndex],
			TurnMs:    SelectionTurnMs,
		}})
	}
}

// advancePicker moves the snake cursor; past the end it flips direction on
// the next pass or, with everyone served, starts play. Caller holds lock.
func (g *Game) advancePicker() {
	m := g.match
	m.deadline.Cancel()

	allPicked := true
	for _, id := range m.SelectionOrder {
		if p, ok := g.players[id]; ok && p.AssignedSkill == "" {
			allPicked = false
			break
		}
	}
	if allPicked {
		g.startActiveLocked()
		return
	}

	for {
		if m.Reverse {
			m.PickIndex--
			if m.PickIndex < 0 {
				m.PickIndex = 0
				m.Reverse = false
			}
		} else {
			m.PickIndex++
			if m.PickIndex >= len(m.SelectionOrder) {
				m.PickIndex = len(m.SelectionOrder) - 1
				m.Reverse = true
			}
		}
		p, ok := g.players[m.SelectionOrder[m.PickIndex]]
		if ok && p.AssignedSkill == "" {
			break
		}
	}
	g.armSelectionDeadline()
}

// takeAvailable removes a skill from the pool. Caller holds the lock.
func (g *Game) takeAvailable(skillID string) bool {
	m := g.match
	for i, id := range m.Available {
		if id == skillID {
			m.Available = append(m.Available[:i], m.Available[i+1:]...)
			return true
		}
	}
	return false
}

// startActiveLocked kicks off active play. Caller holds the lock.
func (g *Game) startActiveLocked() {
	m := g.match
	m.Status = StatusActive
	m.ClockRemaining = m.GameDuration
	m.lastWholeSec = int(m.GameDuration)
	m.OvertimeUsed = false
	m.ScoreRed = 0
	m.ScoreBlue = 0
	m.startedAt = g.now

	g.ball.ResetToCenter()
	slots := map[string]int{TeamRed: 0, TeamBlue: 0}
	for _, id := range g.order {
		p := g.players[id]
		p.Match = MatchStats{}
		if p.OnPitch() {
			x, y := SpawnFor(p.Team, slots[p.Team])
			slots[p.Team]++
			p.X = x
			p.Y = y
			p.ResetMotion()
		}
	}

	g.broadcast(Envelope{T: MsgGameStarted, Data: GameStartedMsg{
		MatchID:  m.MatchID,
		Duration: m.GameDuration,
	}})
	g.record(EvtMatchStart, 0, m.MatchID)
}

// Advance runs the clock during active play and fires end/overtime.
// Called once per physics step with the lock held.
func (m *MatchState) Advance(g *Game, dt float64) {
	if m.Status != StatusActive {
		return
	}
	m.ClockRemaining -= dt
	if whole := int(m.ClockRemaining); whole != m.lastWholeSec && m.ClockRemaining >= 0 {
		m.lastWholeSec = whole
		g.broadcast(Envelope{T: MsgTimerUpdate, Data: TimerUpdateMsg{SecondsRemaining: whole}})
	}
	if m.ClockRemaining > 0 {
		return
	}
	if m.ScoreRed == m.ScoreBlue && !m.OvertimeUsed {
		m.OvertimeUsed = true
		m.ClockRemaining = m.Overtime
		m.lastWholeSec = int(m.Overtime)
		g.broadcast(Envelope{T: MsgOvertime, Data: TimerUpdateMsg{SecondsRemaining: int(m.Overtime)}})
		return
	}
	g.endGameLocked()
}

// mvpAndFeats scores every on-pitch player. MVP ties go to join order.
func (g *Game) mvpAndFeats() (mvpID string, feats map[string]int) {
	feats = make(map[string]int)
	best := -1
	for _, id := range g.order {
		p := g.players[id]
		if !p.OnPitch() {
			continue
		}
		score := p.Match.Goals*mvpGoalWeight + p.Match.Assists*mvpAssistWeight + p.Match.Interceptions*mvpInterceptionWeight
		if score > best {
			best = score
			mvpID = id
		}
		f := 0
		if p.Match.Goals >= featGoals {
			f++
		}
		if p.Match.Assists >= featAssists {
			f++
		}
		if p.Match.Interceptions >= featInterceptions {
			f++
		}
		if f > featCap {
			f = featCap
		}
		feats[id] = f
	}
	return mvpID, feats
}

// endGameLocked settles the match: winner, MVP, MMR, history, broadcast.
// Persistence failures are logged per player and never block the event.
func (g *Game) endGameLocked() {
	m := g.match
	winner := "draw"
	if m.ScoreRed > m.ScoreBlue {
		winner = TeamRed
	} else if m.ScoreBlue > m.ScoreRed {
		winner = TeamBlue
	}
	mvpID, feats := g.mvpAndFeats()

	updates := make([]MMRUpdate, 0, len(g.order))
	for _, id := range g.order {
		p := g.players[id]
		if !p.OnPitch() {
			continue
		}
		won := p.Team == winner
		delta := 0
		if winner != "draw" {
			streak := 0
			var newMMR int
			if g.repo != nil && p.AuthPlayerID != 0 {
				if row, err := g.repo.FindStatsByUserID(p.AuthPlayerID); err == nil && row != nil {
					streak = row.Streak
				}
			}
			delta = MMRDelta(won, streak, id == mvpID, feats[id])
			if g.repo != nil && p.AuthPlayerID != 0 {
				var err error
				newMMR, err = g.repo.UpdateMMR(p.AuthPlayerID, delta, won)
				if err != nil {
					g.log.Error().Err(err).Str("player", id).Msg("mmr update failed")
				}
				if err := g.repo.AddMatchHistory(MatchHistoryEntry{
					MatchID:       m.MatchID,
					PlayerID:      p.AuthPlayerID,
					Team:          p.Team,
					Goals:         p.Match.Goals,
					Assists:       p.Match.Assists,
					Interceptions: p.Match.Interceptions,
					MVP:           id == mvpID,
					MMRDelta:      delta,
					Won:           won,
				}); err != nil {
					g.log.Error().Err(err).Str("player", id).Msg("match history write failed")
				}
			}
			updates = append(updates, MMRUpdate{PlayerID: id, Delta: delta, NewMMR: newMMR})
		} else {
			updates = append(updates, MMRUpdate{PlayerID: id, Delta: 0})
		}
	}

	g.broadcast(Envelope{T: MsgGameEnd, Data: GameEndMsg{
		Winner:     winner,
		ScoreRed:   m.ScoreRed,
		ScoreBlue:  m.ScoreBlue,
		MVP:        mvpID,
		MMRUpdates: updates,
	}})
	g.record(EvtMatchEnd, 0, m.MatchID)

	// Back to the lobby; timers and effects die with the match.
	g.timers.CancelAll()
	g.goalResetPending = false
	g.contactOverride = PowerShotWindow{}
	for _, id := range g.order {
		g.players[id].ClearEffects()
	}
	m.Status = StatusLobby
	m.ClockRemaining = 0
}

// HandleDisconnect tidies selection state when a player drops. Caller holds
// the lock (called from RemovePlayer).
func (m *MatchState) HandleDisconnect(g *Game, playerID string) {
	if m.Status != StatusSkillSelection {
		return
	}
	idx := -1
	for i, id := range m.SelectionOrder {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	wasCurrent := idx == m.PickIndex
	m.SelectionOrder = append(m.SelectionOrder[:idx], m.SelectionOrder[idx+1:]...)
	if len(m.SelectionOrder) == 0 {
		m.deadline.Cancel()
		m.Status = StatusLobby
		return
	}
	if idx < m.PickIndex {
		m.PickIndex--
	}
	if m.PickIndex >= len(m.SelectionOrder) {
		m.PickIndex = len(m.SelectionOrder) - 1
	}
	if !wasCurrent {
		return
	}
	m.deadline.Cancel()
	// The slot may now hold someone already served; advancePicker also
	// starts the match if the dropout was the last unpicked player.
	if cur, ok := g.players[m.SelectionOrder[m.PickIndex]]; ok && cur.AssignedSkill == "" {
		g.armSelectionDeadline()
	} else {
		g.advancePicker()
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
