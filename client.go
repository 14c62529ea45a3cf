package main

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 8192
	sendBufSize       = 256
	maxMessagesPerSec = 200 // input batches arrive at ~125 Hz worst case
)

// Client represents one WebSocket connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string // in-game entity ID, set on playerJoin
	scene      string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time

	// Auth state; gameplay messages are rejected until set.
	authPlayerID int64
	authUsername string
}

// NewClient creates a new Client.
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.gate.release(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("addr", c.remoteAddr).Msg("ws read error")
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.hub.log.Warn().Str("addr", c.remoteAddr).Msg("rate limit exceeded, disconnecting")
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks pre-encoded binary frames (snapshots).
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client.
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.log.Error().Err(err).Msg("marshal error")
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message. A slow client drops
// the message instead of blocking the sender.
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages. Malformed payloads are dropped,
// never disconnected.
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	// Pre-auth message set.
	switch env.T {
	case MsgRegister:
		c.handleRegister(env.D)
		return
	case MsgLogin:
		c.handleLogin(env.D)
		return
	case MsgGuest:
		c.handleGuest()
		return
	case MsgAuth:
		c.handleAuth(env.D)
		return
	}

	// Everything below is gameplay: bearer token required first.
	if c.authPlayerID == 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "not authenticated"}})
		return
	}

	switch env.T {
	case MsgPlayerJoin:
		c.handlePlayerJoin(env.D)
	case MsgPlayerInputBatch:
		c.handleInputBatch(env.D)
	case MsgBallKick:
		c.handleKick(env.D)
	case MsgBallDribble:
		c.handleDribble(env.D)
	case MsgAssignTeam:
		if c.inSoccer() {
			c.hub.game.AssignTeam(c.playerID)
		}
	case MsgResetGame:
		if c.inSoccer() {
			c.hub.game.ResetGame()
		}
	case MsgStartGame:
		if c.inSoccer() {
			c.hub.game.StartGame()
		}
	case MsgRandomizeTeams:
		if c.inSoccer() {
			c.hub.game.RandomizeTeams()
		}
	case MsgPickSkill:
		c.handlePickSkill(env.D)
	case MsgActivateSkill:
		c.handleActivateSkill(env.D)
	case MsgRequestGameState:
		if c.inSoccer() {
			c.hub.game.RequestGameState(c.playerID)
		}
	case MsgRequestSkillCfg:
		if c.inSoccer() {
			c.hub.game.RequestSkillConfig(c.playerID)
		}
	case MsgGetPlayers:
		if c.inSoccer() {
			c.hub.game.RequestPlayers(c.playerID)
		}
	case MsgAssignStats:
		c.handleAssignStats(env.D)
	case MsgLeaderboard:
		c.handleLeaderboard()
	case MsgSceneChange:
		c.handleSceneChange(env.D)
	}
}

func (c *Client) inSoccer() bool {
	return c.playerID != "" && c.scene == "SoccerMap"
}

func (c *Client) handleRegister(data json.RawMessage) {
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.authPlayerID = id
	c.authUsername = msg.Username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
}

func (c *Client) handleLogin(data json.RawMessage) {
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.authPlayerID = id
	c.authUsername = msg.Username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
}

func (c *Client) handleGuest() {
	if c.authPlayerID != 0 {
		return // already authenticated
	}
	id, username, token, err := c.hub.auth.Guest()
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.authPlayerID = id
	c.authUsername = username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: username, PlayerID: id}})
}

func (c *Client) handleAuth(data json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	c.authPlayerID = id
	c.authUsername = username
	c.hub.SetOnline(id, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: msg.Token, Username: username, PlayerID: id}})
}

func (c *Client) handlePlayerJoin(data json.RawMessage) {
	var msg PlayerJoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.playerID != "" {
		return // already joined
	}
	if msg.Scene == "" {
		msg.Scene = "SoccerMap"
	}

	c.playerID = GenerateID(4)
	c.scene = msg.Scene
	c.hub.BindPlayer(c.playerID, c)
	c.hub.JoinRoom("scene:"+msg.Scene, c)

	if msg.Scene != "SoccerMap" {
		c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{
			PlayerID: c.playerID, Scene: msg.Scene, X: msg.X, Y: msg.Y, Team: TeamNone,
		}})
		return
	}

	p := c.hub.game.AddPlayer(c.playerID, c.authUsername, c.authPlayerID, msg.X, msg.Y)
	c.hub.game.record(EvtJoin, c.authPlayerID, c.playerID)

	var stats *SoccerStats
	if p.StatsLoaded {
		s := p.Stats
		stats = &s
	}
	// A nil stats payload tells the client to prompt for assignment.
	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{
		PlayerID: c.playerID,
		Scene:    msg.Scene,
		X:        p.X,
		Y:        p.Y,
		Team:     p.Team,
		Stats:    stats,
	}})
}

func (c *Client) handleInputBatch(data json.RawMessage) {
	if !c.inSoccer() {
		return
	}
	var msg InputBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.game.HandleInputBatch(c.playerID, msg.Inputs)
}

func (c *Client) handleKick(data json.RawMessage) {
	if !c.inSoccer() {
		return
	}
	var msg KickMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.game.QueueKick(kickRequest{
		PlayerID:    c.playerID,
		Angle:       msg.Angle,
		BasePower:   msg.KickPower,
		ClientStamp: msg.Timestamp,
		LocalKickID: msg.LocalKickID,
	})
}

func (c *Client) handleDribble(data json.RawMessage) {
	if !c.inSoccer() {
		return
	}
	var msg DribbleMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.game.QueueDribble(dribbleRequest{
		PlayerID:    c.playerID,
		ClientStamp: msg.Timestamp,
	})
}

func (c *Client) handlePickSkill(data json.RawMessage) {
	if !c.inSoccer() {
		return
	}
	var msg PickSkillMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.game.PickSkill(c.playerID, msg.SkillID)
}

func (c *Client) handleActivateSkill(data json.RawMessage) {
	if !c.inSoccer() {
		return
	}
	var msg ActivateSkillMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	req := skillRequest{PlayerID: c.playerID, SkillID: msg.SkillID}
	if msg.FacingDirection != nil {
		req.Facing = *msg.FacingDirection
		req.HasFacing = true
	}
	c.hub.game.QueueSkill(req)
}

func (c *Client) handleAssignStats(data json.RawMessage) {
	var msg AssignStatsMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	stats := SoccerStats{Speed: msg.Speed, KickPower: msg.KickPower, Dribbling: msg.Dribbling}
	if !stats.Valid() {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: errInvalidStats.Error()}})
		return
	}
	if c.hub.db != nil {
		if err := c.hub.db.SaveStats(c.authPlayerID, stats); err != nil {
			c.hub.log.Error().Err(err).Int64("user", c.authPlayerID).Msg("stats save failed")
			c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "could not save stats"}})
			return
		}
	}
	if c.inSoccer() {
		c.hub.game.SetStats(c.playerID, stats)
	}
	c.SendJSON(Envelope{T: MsgStatsAssigned, Data: stats})
}

func (c *Client) handleLeaderboard() {
	if c.hub.db == nil {
		return
	}
	entries, err := c.hub.db.Leaderboard(20)
	if err != nil {
		c.hub.log.Error().Err(err).Msg("leaderboard query failed")
		return
	}
	c.SendJSON(Envelope{T: MsgLeaderboardData, Data: entries})
}

func (c *Client) handleSceneChange(data json.RawMessage) {
	var msg SceneChangeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.playerID == "" || msg.NewScene == c.scene {
		return
	}
	c.hub.LeaveRoom("scene:"+c.scene, c)
	if c.scene == "SoccerMap" {
		c.hub.game.RemovePlayer(c.playerID)
	}
	oldScene := c.scene
	c.scene = msg.NewScene
	c.hub.JoinRoom("scene:"+msg.NewScene, c)
	if msg.NewScene == "SoccerMap" {
		c.hub.game.AddPlayer(c.playerID, c.authUsername, c.authPlayerID, msg.X, msg.Y)
	}
	c.hub.log.Debug().Str("player", c.playerID).Str("from", oldScene).Str("to", msg.NewScene).Msg("scene change")
}
