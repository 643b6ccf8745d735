package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/middlewares"
	"github.com/solacecare/counselcall/internal/roomref"
	"github.com/solacecare/counselcall/internal/services"
	ws "github.com/solacecare/counselcall/internal/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxMessageSize = 64 * 1024

	opTimeout = 5 * time.Second
)

// SignalingHandler runs the relay side of every live connection: one
// read pump and one write pump per socket, a shared membership registry,
// and the empty-room grace policy.
type SignalingHandler struct {
	rooms    *services.RoomService
	registry *ws.Registry
	log      zerolog.Logger

	// emptyRoomGrace > 0 enables auto-ending rooms whose live membership
	// stays at zero for that long.
	emptyRoomGrace time.Duration

	pendingMu sync.Mutex
	pending   map[string]*time.Timer

	upgrader websocket.Upgrader
}

func NewSignalingHandler(rooms *services.RoomService, registry *ws.Registry, emptyRoomGrace time.Duration, log zerolog.Logger) *SignalingHandler {
	return &SignalingHandler{
		rooms:          rooms,
		registry:       registry,
		log:            log.With().Str("component", "signaling").Logger(),
		emptyRoomGrace: emptyRoomGrace,
		pending:        make(map[string]*time.Timer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // origin allow-list is enforced by the CORS layer
			},
		},
	}
}

// HandleWebSocket upgrades the connection and runs the pumps. The
// principal is authenticated by the middleware; which room it may join
// is decided per join-room message.
func (h *SignalingHandler) HandleWebSocket(c *gin.Context) {
	principalID, err := middlewares.PrincipalFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(principalID, conn)
	h.log.Info().
		Str("principal_id", principalID.String()).
		Str("conn_id", client.ID.String()).
		Msg("signaling connection open")

	go h.writePump(client)
	h.readPump(client)
}

// readPump consumes messages until the connection drops, then performs
// the same deregistration an explicit leave-room would.
func (h *SignalingHandler) readPump(client *ws.Client) {
	defer func() {
		h.disconnect(client)
		client.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Str("conn_id", client.ID.String()).Msg("unexpected close")
			}
			return
		}

		var msg ws.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(client, ws.NewError("malformed message"))
			continue
		}
		if err := msg.Validate(); err != nil {
			h.reply(client, ws.NewError(err.Error()))
			continue
		}

		h.dispatch(client, msg)
	}
}

// dispatch handles one validated message. Failures only ever affect the
// sender: an error reply at worst, never the relay or other members.
func (h *SignalingHandler) dispatch(client *ws.Client, msg ws.Message) {
	switch msg.Type {
	case ws.TypeJoinRoom:
		h.handleJoin(client, msg)

	case ws.TypeLeaveRoom:
		current := h.registry.RoomOf(client)
		if current == "" || !roomref.SameID(current, msg.RoomID) {
			h.reply(client, ws.NewError("not a member of that room"))
			return
		}
		h.handleLeave(client)

	case ws.TypeOffer, ws.TypeAnswer, ws.TypeICECandidate:
		if delivered := h.registry.Relay(client, msg); !delivered {
			// Silent drop per protocol; diagnostics only.
			h.log.Debug().
				Str("type", msg.Type).
				Str("from", client.PrincipalID.String()).
				Str("to", msg.To).
				Msg("dropping signaling message for non-member recipient")
		}

	case ws.TypeSendMessage:
		if err := h.registry.BroadcastChat(client, msg.Content); err != nil {
			h.reply(client, ws.NewError("join a room first"))
		}
	}
}

func (h *SignalingHandler) handleJoin(client *ws.Client, msg ws.Message) {
	// The principal comes from the token; a mismatching id in the
	// message is a client bug, not an identity claim we would honor.
	if msg.PrincipalID != "" && !roomref.SameID(msg.PrincipalID, client.PrincipalID.String()) {
		h.reply(client, ws.NewError("principal mismatch"))
		return
	}
	if h.registry.RoomOf(client) != "" {
		h.reply(client, ws.NewError("already in a room"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	room, role, err := h.rooms.Join(ctx, msg.RoomID, client.PrincipalID)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			h.reply(client, ws.NewError("room not found"))
		case errors.Is(err, apperr.ErrForbidden):
			h.reply(client, ws.NewError("access denied"))
		case errors.Is(err, apperr.ErrInvalidArgument):
			h.reply(client, ws.NewError("invalid room reference"))
		default:
			h.log.Error().Err(err).Str("room_id", msg.RoomID).Msg("join failed")
			h.reply(client, ws.NewError("internal error"))
		}
		return
	}

	// Disarm any pending empty-room timer and register under the same
	// lock: a firing timer sees either no timer entry and a live member,
	// or runs to completion before the join reaches this point.
	h.pendingMu.Lock()
	if t, ok := h.pending[room.ID]; ok {
		t.Stop()
		delete(h.pending, room.ID)
	}
	err = h.registry.Join(room.ID, role, client)
	h.pendingMu.Unlock()
	if err != nil {
		h.reply(client, ws.NewError("already in a room"))
		return
	}

	h.log.Info().
		Str("room_id", room.ID).
		Str("principal_id", client.PrincipalID.String()).
		Str("role", string(role)).
		Msg("joined room")
}

func (h *SignalingHandler) handleLeave(client *ws.Client) {
	roomID, empty := h.registry.Leave(client)
	if roomID == "" {
		return
	}
	h.log.Info().
		Str("room_id", roomID).
		Str("principal_id", client.PrincipalID.String()).
		Msg("left room")
	if empty {
		h.scheduleAutoEnd(roomID)
	}
}

// disconnect applies leave semantics for a dropped transport. The room's
// durable state is untouched: a brief reconnect must be transparent to
// the other participant.
func (h *SignalingHandler) disconnect(client *ws.Client) {
	h.handleLeave(client)
	h.log.Info().
		Str("principal_id", client.PrincipalID.String()).
		Str("conn_id", client.ID.String()).
		Msg("signaling connection closed")
}

func (h *SignalingHandler) reply(client *ws.Client, msg ws.Message) {
	if err := client.TrySend(msg); err != nil {
		client.Close()
	}
}

// scheduleAutoEnd arms the empty-room timer. If nobody rejoins within
// the grace period the room is completed; a rejoin cancels the timer.
func (h *SignalingHandler) scheduleAutoEnd(roomID string) {
	if h.emptyRoomGrace <= 0 {
		return
	}

	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()

	if t, ok := h.pending[roomID]; ok {
		t.Stop()
	}
	h.pending[roomID] = time.AfterFunc(h.emptyRoomGrace, func() {
		// The lock spans the membership check and the auto-end, mirroring
		// the join path, so a concurrent joiner either registers before
		// the check here or joins a room that is already completed.
		h.pendingMu.Lock()
		defer h.pendingMu.Unlock()
		delete(h.pending, roomID)

		if h.registry.MemberCount(roomID) > 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := h.rooms.AutoEnd(ctx, roomID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrConflict) {
			h.log.Error().Err(err).Str("room_id", roomID).Msg("auto-end failed")
		}
	})
}

// writePump drains the client's send queue onto the wire and keeps the
// connection alive with pings.
func (h *SignalingHandler) writePump(client *ws.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case msg := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Str("conn_id", client.ID.String()).Msg("write failed")
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Done:
			return
		}
	}
}
