package main

import "encoding/json"

// Client -> Server message types
const (
	MsgRegister         = "register"
	MsgLogin            = "login"
	MsgGuest            = "guest"
	MsgAuth             = "auth"
	MsgPlayerJoin       = "playerJoin"
	MsgPlayerInputBatch = "playerInputBatch"
	MsgBallKick         = "ball:kick"
	MsgBallDribble      = "ball:dribble"
	MsgAssignTeam       = "soccer:assignTeam"
	MsgResetGame        = "soccer:resetGame"
	MsgStartGame        = "soccer:startGame"
	MsgRandomizeTeams   = "soccer:randomizeTeams"
	MsgPickSkill        = "soccer:pickSkill"
	MsgActivateSkill    = "soccer:activateSkill"
	MsgRequestGameState = "soccer:requestGameState"
	MsgRequestSkillCfg  = "soccer:requestSkillConfig"
	MsgGetPlayers       = "soccer:getPlayers"
	MsgAssignStats      = "soccer:assignStats"
	MsgLeaderboard      = "soccer:leaderboard"
	MsgSceneChange      = "player:sceneChange"
)

// Server -> Client message types
const (
	MsgAuthOK                = "authOk"
	MsgError                 = "error"
	MsgJoined                = "joined"
	MsgBallKicked            = "ball:kicked"
	MsgBallIntercepted       = "ball:intercepted"
	MsgGoalScored            = "goal:scored"
	MsgPlayerReset           = "soccer:playerReset"
	MsgTeamAssigned          = "soccer:teamAssigned"
	MsgGameReset             = "soccer:gameReset"
	MsgSelectionPhaseStarted = "soccer:selectionPhaseStarted"
	MsgSelectionUpdate       = "soccer:selectionUpdate"
	MsgSkillPicked           = "soccer:skillPicked"
	MsgStartMidGamePick      = "soccer:startMidGamePick"
	MsgSkillActivated        = "soccer:skillActivated"
	MsgSkillEnded            = "soccer:skillEnded"
	MsgSkillTriggered        = "soccer:skillTriggered"
	MsgBlinkActivated        = "soccer:blinkActivated"
	MsgGameStarted           = "soccer:gameStarted"
	MsgOvertime              = "soccer:overtime"
	MsgTimerUpdate           = "soccer:timerUpdate"
	MsgGameEnd               = "soccer:gameEnd"
	MsgGameState             = "soccer:gameState"
	MsgSkillConfig           = "soccer:skillConfig"
	MsgPlayers               = "soccer:players"
	MsgLeaderboardData       = "soccer:leaderboardData"
	MsgStatsAssigned         = "soccer:statsAssigned"
)

// Envelope wraps all outgoing JSON messages with a type field.
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids
// double-unmarshal.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// RegisterMsg creates an account.
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates by password.
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg authenticates by bearer token.
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication.
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"playerId"`
}

// PlayerJoinMsg registers the player in a scene.
type PlayerJoinMsg struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scene string  `json:"scene"`
}

// JoinedMsg answers playerJoin. Stats is null when the account has no stat
// row yet; the client prompts for assignment.
type JoinedMsg struct {
	PlayerID string       `json:"playerId"`
	Scene    string       `json:"scene"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Team     string       `json:"team"`
	Stats    *SoccerStats `json:"stats"`
}

// InputBatchMsg carries an ordered run of input frames.
type InputBatchMsg struct {
	Inputs []InputState `json:"inputs"`
}

// KickMsg requests a kick.
type KickMsg struct {
	Angle       float64 `json:"angle"`
	KickPower   float64 `json:"kickPower"`
	Timestamp   int64   `json:"timestamp,omitempty"`
	LocalKickID string  `json:"localKickId,omitempty"`
}

// DribbleMsg requests a dribble nudge. Client kinematics are hints only;
// the server validates against its own state.
type DribbleMsg struct {
	PlayerX   float64 `json:"playerX"`
	PlayerY   float64 `json:"playerY"`
	PlayerVX  float64 `json:"playerVx"`
	PlayerVY  float64 `json:"playerVy"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// PickSkillMsg picks a skill during selection.
type PickSkillMsg struct {
	SkillID string `json:"skillId"`
}

// ActivateSkillMsg triggers the assigned skill.
type ActivateSkillMsg struct {
	SkillID         string   `json:"skillId"`
	FacingDirection *float64 `json:"facingDirection,omitempty"`
}

// AssignStatsMsg sets the 15-point stat split.
type AssignStatsMsg struct {
	Speed     int `json:"speed"`
	KickPower int `json:"kickPower"`
	Dribbling int `json:"dribbling"`
}

// SceneChangeMsg moves the player to another scene.
type SceneChangeMsg struct {
	NewScene string  `json:"newScene"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// BallKickedMsg is the edge-triggered kick event.
type BallKickedMsg struct {
	KickerID     string  `json:"kickerId"`
	KickSequence uint64  `json:"kickSequence"`
	LocalKickID  string  `json:"localKickId,omitempty"`
	Angle        float64 `json:"angle"`
}

// BallInterceptedMsg credits a change of possession.
type BallInterceptedMsg struct {
	PlayerID string `json:"playerId"`
	FromID   string `json:"fromId"`
}

// GoalScoredMsg announces a goal.
type GoalScoredMsg struct {
	ScoringTeam string `json:"scoringTeam"`
	ScorerID    string `json:"scorerId,omitempty"`
	AssistID    string `json:"assistId,omitempty"`
	ScoreRed    int    `json:"scoreRed"`
	ScoreBlue   int    `json:"scoreBlue"`
	Zone        string `json:"zone"`
}

// PlayerResetMsg teleports a player to a spawn after a goal or reset.
type PlayerResetMsg struct {
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// TeamAssignedMsg announces a team change.
type TeamAssignedMsg struct {
	PlayerID string  `json:"playerId"`
	Team     string  `json:"team"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// SelectionMsg drives the skill-selection UI.
type SelectionMsg struct {
	Order     []string `json:"order"`
	Available []string `json:"available"`
	Current   string   `json:"current"`
	TurnMs    int64    `json:"turnMs"`
}

// SkillPickedMsg announces a committed pick.
type SkillPickedMsg struct {
	PlayerID string `json:"playerId"`
	SkillID  string `json:"skillId"`
}

// MidGamePickMsg prompts a late joiner to pick.
type MidGamePickMsg struct {
	PlayerID  string   `json:"playerId"`
	Available []string `json:"available"`
}

// SkillEventMsg is shared by activated/ended/triggered events.
type SkillEventMsg struct {
	PlayerID string `json:"playerId"`
	SkillID  string `json:"skillId"`
}

// BlinkActivatedMsg carries the teleport endpoints.
type BlinkActivatedMsg struct {
	PlayerID string  `json:"playerId"`
	FromX    float64 `json:"fromX"`
	FromY    float64 `json:"fromY"`
	ToX      float64 `json:"toX"`
	ToY      float64 `json:"toY"`
}

// GameStartedMsg opens active play.
type GameStartedMsg struct {
	MatchID  string  `json:"matchId"`
	Duration float64 `json:"duration"`
}

// TimerUpdateMsg fires on whole-second clock changes (and overtime start).
type TimerUpdateMsg struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

// MMRUpdate is one player's rating change at game end.
type MMRUpdate struct {
	PlayerID string `json:"playerId"`
	Delta    int    `json:"delta"`
	NewMMR   int    `json:"newMmr,omitempty"`
}

// GameEndMsg settles the match.
type GameEndMsg struct {
	Winner     string      `json:"winner"`
	ScoreRed   int         `json:"scoreRed"`
	ScoreBlue  int         `json:"scoreBlue"`
	MVP        string      `json:"mvp"`
	MMRUpdates []MMRUpdate `json:"mmrUpdates"`
}

// ErrorMsg sends an error to the client.
type ErrorMsg struct {
	Msg string `json:"msg"`
}
