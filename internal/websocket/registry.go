package websocket

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/solacecare/counselcall/internal/models"
	"github.com/solacecare/counselcall/internal/roomref"
)

// Registry owns the live membership map: roomID -> principalID -> client.
// It is a cache of currently-open connections only; the room store stays
// the source of truth for durable state. Every mutation and every
// delivery decision happens under one lock, which keeps join/leave
// serialized per room and guarantees that a joiner's membership snapshot
// is enqueued before any later user-joined/user-left event for that room.
// Enqueueing never blocks (clients buffer their own sends), so holding
// the lock across delivery is safe.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[string]*Client
	log   zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]map[string]*Client),
		log:   log.With().Str("component", "room_registry").Logger(),
	}
}

// Join registers the client, replies to it with the current membership
// snapshot and announces user-joined to everyone else, atomically. A
// stale connection for the same principal is displaced and closed.
func (r *Registry) Join(roomID string, role models.Role, c *Client) error {
	key := roomref.Normalize(c.PrincipalID.String())

	r.mu.Lock()
	defer r.mu.Unlock()

	if c.roomID != "" {
		return ErrAlreadyInRoom
	}

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[roomID] = members
	}

	if old, ok := members[key]; ok && old != c {
		r.log.Debug().Str("room_id", roomID).Str("principal_id", key).Msg("displacing stale connection")
		old.roomID = ""
		old.Close()
	}

	snapshot := make([]Member, 0, len(members))
	for k, m := range members {
		if k == key {
			continue
		}
		snapshot = append(snapshot, Member{PrincipalID: m.PrincipalID.String(), Role: string(m.Role)})
	}

	members[key] = c
	c.Role = role
	c.roomID = roomID

	r.deliver(roomID, c, NewRoomJoined(roomID, role, snapshot))
	joined := NewUserJoined(c.PrincipalID.String())
	for k, m := range members {
		if k == key {
			continue
		}
		r.deliver(roomID, m, joined)
	}

	return nil
}

// Leave deregisters the client and announces user-left to the remaining
// members. It reports the room id and whether the room is now empty so
// the caller can apply its grace policy. Idempotent for clients that
// never joined or already left.
func (r *Registry) Leave(c *Client) (roomID string, empty bool) {
	key := roomref.Normalize(c.PrincipalID.String())

	r.mu.Lock()
	defer r.mu.Unlock()

	roomID = c.roomID
	if roomID == "" {
		return "", false
	}

	members, ok := r.rooms[roomID]
	if !ok || members[key] != c {
		c.roomID = ""
		return "", false
	}

	delete(members, key)
	c.roomID = ""

	left := NewUserLeft(c.PrincipalID.String())
	for _, m := range members {
		r.deliver(roomID, m, left)
	}

	if len(members) == 0 {
		delete(r.rooms, roomID)
		return roomID, true
	}
	return roomID, false
}

// Relay forwards a directed signaling message to the named recipient,
// and only if that recipient is currently a member of the sender's room.
// Anything else is dropped; the caller decides whether to log it.
func (r *Registry) Relay(from *Client, msg Message) bool {
	to := roomref.Normalize(msg.To)

	r.mu.Lock()
	defer r.mu.Unlock()

	if from.roomID == "" {
		return false
	}
	recipient, ok := r.rooms[from.roomID][to]
	if !ok || recipient == from {
		return false
	}

	msg.SenderID = from.PrincipalID.String()
	r.deliver(from.roomID, recipient, msg)
	return true
}

// BroadcastChat fans a transient chat message out to the other members
// of the sender's room. Nothing is persisted.
func (r *Registry) BroadcastChat(from *Client, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if from.roomID == "" {
		return ErrNotInRoom
	}

	msg := NewReceiveMessage(from.PrincipalID.String(), content, time.Now())
	for _, m := range r.rooms[from.roomID] {
		if m == from {
			continue
		}
		r.deliver(from.roomID, m, msg)
	}
	return nil
}

// RoomOf returns the room the client is currently registered in.
func (r *Registry) RoomOf(c *Client) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return c.roomID
}

// MemberCount reports the number of live connections in a room.
func (r *Registry) MemberCount(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}

// Members returns a snapshot of the live members of a room.
func (r *Registry) Members(roomID string) []Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Member, 0, len(r.rooms[roomID]))
	for _, m := range r.rooms[roomID] {
		out = append(out, Member{PrincipalID: m.PrincipalID.String(), Role: string(m.Role)})
	}
	return out
}

// deliver enqueues to one member. A full buffer marks the connection as
// dead: it is closed here and its read pump deregisters it properly.
// Holding the lock is fine because Close never touches the registry.
func (r *Registry) deliver(roomID string, m *Client, msg Message) {
	if err := m.TrySend(msg); err != nil {
		r.log.Warn().
			Str("room_id", roomID).
			Str("principal_id", m.PrincipalID.String()).
			Str("type", msg.Type).
			Msg("send buffer overflow, dropping connection")
		m.Close()
	}
}
