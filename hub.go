package main

import (
	"sync"

	"github.com/rs/zerolog"
)

// connGate bounds concurrent connections per IP and process-wide. A slot is
// claimed and counted in one critical section, so two racing upgrades from
// the same IP cannot both squeeze past the limit.
type connGate struct {
	mu       sync.Mutex
	perIP    map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newConnGate(maxPerIP, maxTotal int) *connGate {
	return &connGate{perIP: make(map[string]int), maxPerIP: maxPerIP, maxTotal: maxTotal}
}

// acquire claims a connection slot for ip, or reports that the caller must
// refuse the connection.
func (cg *connGate) acquire(ip string) bool {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	if cg.total >= cg.maxTotal || cg.perIP[ip] >= cg.maxPerIP {
		return false
	}
	cg.perIP[ip]++
	cg.total++
	return true
}

// release returns a slot claimed by acquire.
func (cg *connGate) release(ip string) {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	if cg.perIP[ip] <= 1 {
		delete(cg.perIP, ip)
	} else {
		cg.perIP[ip]--
	}
	cg.total--
}

// inUse reports the live slot count, for metrics and tests.
func (cg *connGate) inUse() int {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	return cg.total
}

// Hub manages connected clients, named rooms for fan-out, and the single
// soccer simulation.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	byPlayerID map[string]*Client
	register   chan *Client
	unregister chan *Client

	gate *connGate

	db   *DB
	auth *Auth
	game *Game
	log  zerolog.Logger

	onlineMu    sync.RWMutex
	onlineUsers map[int64]*Client
}

// NewHub creates a Hub over the database and simulation.
func NewHub(db *DB, auth *Auth, game *Game, log zerolog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		byPlayerID:  make(map[string]*Client),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		gate:        newConnGate(5, 1000),
		db:          db,
		auth:        auth,
		game:        game,
		log:         log,
		onlineUsers: make(map[int64]*Client),
	}
}

// Run processes register/unregister events.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if client.playerID != "" {
					delete(h.byPlayerID, client.playerID)
				}
				for _, members := range h.rooms {
					delete(members, client)
				}
				close(client.send)
			}
			h.mu.Unlock()
			if client.playerID != "" {
				h.game.RemovePlayer(client.playerID)
				h.game.record(EvtLeave, client.authPlayerID, client.playerID)
			}
			if client.authPlayerID != 0 {
				h.SetOffline(client.authPlayerID)
			}
		}
	}
}

// BindPlayer associates a client with its in-game player ID.
func (h *Hub) BindPlayer(playerID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byPlayerID[playerID] = c
}

// JoinRoom adds a client to a named room.
func (h *Hub) JoinRoom(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
}

// LeaveRoom removes a client from a named room.
func (h *Hub) LeaveRoom(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], c)
}

// BroadcastJSON fans a JSON envelope out to every client in a room.
func (h *Hub) BroadcastJSON(room string, msg interface{}) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()
	for _, c := range members {
		c.SendJSON(msg)
	}
}

// BroadcastBinary fans a binary frame out to every client in a room.
func (h *Hub) BroadcastBinary(room string, data []byte) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()
	for _, c := range members {
		c.SendBinary(data)
	}
}

// SendToPlayer delivers a JSON envelope to one player's connection.
func (h *Hub) SendToPlayer(playerID string, msg interface{}) {
	h.mu.RLock()
	c := h.byPlayerID[playerID]
	h.mu.RUnlock()
	if c != nil {
		c.SendJSON(msg)
	}
}

// SetOnline marks an authenticated user as online.
func (h *Hub) SetOnline(playerID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	h.onlineUsers[playerID] = client
}

// SetOffline removes an authenticated user from online tracking.
func (h *Hub) SetOffline(playerID int64) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	delete(h.onlineUsers, playerID)
}

// IsOnline checks if a user is online.
func (h *Hub) IsOnline(playerID int64) bool {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	_, ok := h.onlineUsers[playerID]
	return ok
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of clients in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
