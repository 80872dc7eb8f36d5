package ws

import (
	"strconv"
	"sync"
	"time"

	"github.com/ryteapp/ryte-gateway/globals"
	"github.com/ryteapp/ryte-gateway/persistence"
	"github.com/ryteapp/ryte-gateway/presence"
	"github.com/ryteapp/ryte-gateway/types"
)

const (
	maxMessageSize = 4096
	pongWait       = 2 * time.Minute
	pingPeriod     = time.Minute
	writeWait      = 10 * time.Second
)

// Well-known room names. Chat and personal rooms are derived per id.
const (
	RoomLiveFeed      = "live-feed"
	RoomFollowingFeed = "following-feed"
)

func ChatRoom(chatID int64) string {
	return "chat:" + strconv.FormatInt(chatID, 10)
}

func UserRoom(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// Hub tracks all registered connections and their room memberships. Rooms are
// named multicast groups held in memory only; membership is connection-scoped
// and released implicitly at disconnect.
type Hub struct {
	// Registered clients.
	clients     map[*Client]struct{}
	clientsByID map[string]*Client

	// room name -> members, and the reverse index used for implicit
	// room-leave at disconnect.
	rooms       map[string]map[*Client]struct{}
	memberships map[*Client]map[string]struct{}

	Presence  *presence.Registry
	Persister persistence.Persister

	// mutex for manipulating the clients and rooms
	sync.RWMutex
}

func NewHub(persister persistence.Persister, registry *presence.Registry) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		clientsByID: make(map[string]*Client),
		rooms:       make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
		Presence:    registry,
		Persister:   persister,
	}
}

// Register adds a freshly authenticated connection: presence entry, personal
// notification room, and the conditional following-feed enrollment. The
// following check is point-in-time; membership deliberately goes stale if the
// user's social graph changes later in the connection's life (reconnect picks
// it up).
func (h *Hub) Register(c *Client) {
	h.Lock()
	h.clients[c] = struct{}{}
	h.clientsByID[c.id] = c
	h.memberships[c] = make(map[string]struct{})
	h.Unlock()

	h.Presence.Register(c.identity.UserID, c.id)
	h.Join(c, UserRoom(c.identity.UserID))

	followingIds, err := h.Persister.GetFollowingIds(c.identity.UserID)
	if err != nil {
		globals.AppLogger.Error("could not load following ids", "userId", c.identity.UserID, "error", err)
		return
	}
	if len(followingIds) > 0 {
		h.Join(c, RoomFollowingFeed)
	}
}

// Unregister tears down a connection: presence (only if this connection still
// owns the entry), every room membership, and the send channel. Safe to call
// more than once.
func (h *Hub) Unregister(c *Client) {
	h.Presence.Unregister(c.identity.UserID, c.id)

	h.Lock()
	defer h.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	for room := range h.memberships[c] {
		h.removeFromRoom(c, room)
	}
	delete(h.memberships, c)
	delete(h.clientsByID, c.id)
	delete(h.clients, c)
	// all senders check registration under the hub lock before writing, so
	// closing here cannot race a send
	close(c.Send)
}

// Join enrolls the connection in the named room. No-op for an unregistered
// connection.
func (h *Hub) Join(c *Client, room string) {
	h.Lock()
	defer h.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	h.memberships[c][room] = struct{}{}
}

// Leave removes the connection from the named room. Leaving a room never
// joined is a no-op.
func (h *Hub) Leave(c *Client, room string) {
	h.Lock()
	defer h.Unlock()
	h.removeFromRoom(c, room)
	if m, ok := h.memberships[c]; ok {
		delete(m, room)
	}
}

// removeFromRoom must be called with the hub lock held.
func (h *Hub) removeFromRoom(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// InRoom reports whether the connection is currently a member of the room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.RLock()
	defer h.RUnlock()
	_, ok := h.rooms[room][c]
	return ok
}

// RoomSize returns the current number of members in the room.
func (h *Hub) RoomSize(room string) int {
	h.RLock()
	defer h.RUnlock()
	return len(h.rooms[room])
}

// NoClients returns the number of clients registered.
func (h *Hub) NoClients() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

// broadcastRoom sends one event to every current member of the room. A member
// whose send buffer is full has the frame dropped (and logged) rather than
// blocking the rest of the room.
func (h *Hub) broadcastRoom(room string, event string, payload interface{}) {
	data, err := types.NewWebsocketMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal event", "event", event, "error", err)
		return
	}
	h.RLock()
	defer h.RUnlock()
	for c := range h.rooms[room] {
		c.trySend(data)
	}
}

// sendToClient delivers one event to a single connection if it is still
// registered.
func (h *Hub) sendToClient(c *Client, event string, payload interface{}) {
	data, err := types.NewWebsocketMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal event", "event", event, "error", err)
		return
	}
	h.RLock()
	defer h.RUnlock()
	if _, ok := h.clients[c]; ok {
		c.trySend(data)
	}
}

// NotifyUser delivers one event to the user's active connection, if present.
// Delivery is independent of any room membership of that connection.
func (h *Hub) NotifyUser(userID int64, event string, payload interface{}) {
	connID, ok := h.Presence.Lookup(userID)
	if !ok {
		return
	}
	data, err := types.NewWebsocketMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal event", "event", event, "error", err)
		return
	}
	h.RLock()
	defer h.RUnlock()
	if c, ok := h.clientsByID[connID]; ok {
		c.trySend(data)
	}
}
