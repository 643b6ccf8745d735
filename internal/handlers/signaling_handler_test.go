package handlers_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacecare/counselcall/internal/models"
	ws "github.com/solacecare/counselcall/internal/websocket"
)

func dialWS(t *testing.T, srv *httptest.Server, token string) *gws.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/call?token=" + token
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *gws.Conn) ws.Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func writeMsg(t *testing.T, conn *gws.Conn, msg ws.Message) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestSignalingJoinAndRelayFlow(t *testing.T) {
	e := newEnv(t, 0)
	srv := e.server(t)
	roomID := e.bookingID.String()

	client := dialWS(t, srv, e.token(t, e.clientID))
	counsellor := dialWS(t, srv, e.token(t, e.counsellorPrincipal))

	// First joiner: ack with an empty membership snapshot.
	writeMsg(t, client, ws.Message{Type: ws.TypeJoinRoom, RoomID: roomID})
	ack := readMsg(t, client)
	require.Equal(t, ws.TypeRoomJoined, ack.Type)
	assert.Equal(t, roomID, ack.RoomID)
	assert.Equal(t, "client", ack.Role)
	assert.Empty(t, ack.Members)

	// Second joiner: snapshot contains the client; the client hears
	// user-joined.
	writeMsg(t, counsellor, ws.Message{Type: ws.TypeJoinRoom, RoomID: roomID})
	ack = readMsg(t, counsellor)
	require.Equal(t, ws.TypeRoomJoined, ack.Type)
	require.Len(t, ack.Members, 1)
	assert.Equal(t, e.clientID.String(), ack.Members[0].PrincipalID)

	joined := readMsg(t, client)
	require.Equal(t, ws.TypeUserJoined, joined.Type)
	assert.Equal(t, e.counsellorPrincipal.String(), joined.PrincipalID)

	// The join also drove the lifecycle: room is live in the store.
	room, err := e.rooms.GetByID(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusInProgress, room.Status)

	// Offer relayed verbatim to the named recipient.
	writeMsg(t, client, ws.Message{
		Type: ws.TypeOffer,
		To:   e.counsellorPrincipal.String(),
		SDP:  []byte(`{"type":"offer","sdp":"v=0"}`),
	})
	offer := readMsg(t, counsellor)
	require.Equal(t, ws.TypeOffer, offer.Type)
	assert.Equal(t, e.clientID.String(), offer.SenderID)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(offer.SDP))

	// Answer back.
	writeMsg(t, counsellor, ws.Message{
		Type: ws.TypeAnswer,
		To:   e.clientID.String(),
		SDP:  []byte(`{"type":"answer","sdp":"v=0"}`),
	})
	answer := readMsg(t, client)
	require.Equal(t, ws.TypeAnswer, answer.Type)

	// Transient chat.
	writeMsg(t, client, ws.Message{Type: ws.TypeSendMessage, Content: "hello"})
	chat := readMsg(t, counsellor)
	require.Equal(t, ws.TypeReceiveMessage, chat.Type)
	assert.Equal(t, "hello", chat.Content)
	assert.Equal(t, e.clientID.String(), chat.SenderID)
	assert.NotEmpty(t, chat.Timestamp)

	// Explicit leave: the other member hears user-left.
	writeMsg(t, client, ws.Message{Type: ws.TypeLeaveRoom, RoomID: roomID})
	left := readMsg(t, counsellor)
	require.Equal(t, ws.TypeUserLeft, left.Type)
	assert.Equal(t, e.clientID.String(), left.PrincipalID)
}

func TestSignalingJoinDeniedForStranger(t *testing.T) {
	e := newEnv(t, 0)
	srv := e.server(t)

	stranger := dialWS(t, srv, e.token(t, e.strangerID))
	writeMsg(t, stranger, ws.Message{Type: ws.TypeJoinRoom, RoomID: e.bookingID.String()})

	reply := readMsg(t, stranger)
	assert.Equal(t, ws.TypeError, reply.Type)
	assert.Equal(t, "access denied", reply.Message)

	// The rejected join must not have mutated room state.
	_, err := e.rooms.GetByID(context.Background(), e.bookingID.String())
	assert.Error(t, err)
	assert.Equal(t, 0, e.registry.MemberCount(e.bookingID.String()))
}

func TestSignalingRejectsMalformedMessages(t *testing.T) {
	e := newEnv(t, 0)
	srv := e.server(t)

	conn := dialWS(t, srv, e.token(t, e.clientID))

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("{not json")))
	reply := readMsg(t, conn)
	assert.Equal(t, ws.TypeError, reply.Type)
	assert.Equal(t, "malformed message", reply.Message)

	writeMsg(t, conn, ws.Message{Type: "warp-drive"})
	reply = readMsg(t, conn)
	assert.Equal(t, ws.TypeError, reply.Type)

	// The connection survives and still works.
	writeMsg(t, conn, ws.Message{Type: ws.TypeJoinRoom, RoomID: e.bookingID.String()})
	ack := readMsg(t, conn)
	assert.Equal(t, ws.TypeRoomJoined, ack.Type)
}

func TestSignalingChatBeforeJoinRejected(t *testing.T) {
	e := newEnv(t, 0)
	srv := e.server(t)

	conn := dialWS(t, srv, e.token(t, e.clientID))
	writeMsg(t, conn, ws.Message{Type: ws.TypeSendMessage, Content: "anyone?"})

	reply := readMsg(t, conn)
	assert.Equal(t, ws.TypeError, reply.Type)
}

func TestSignalingRejectsForeignPrincipalID(t *testing.T) {
	e := newEnv(t, 0)
	srv := e.server(t)

	conn := dialWS(t, srv, e.token(t, e.clientID))
	writeMsg(t, conn, ws.Message{
		Type:        ws.TypeJoinRoom,
		RoomID:      e.bookingID.String(),
		PrincipalID: e.counsellorPrincipal.String(),
	})

	reply := readMsg(t, conn)
	assert.Equal(t, ws.TypeError, reply.Type)
	assert.Equal(t, "principal mismatch", reply.Message)
}

func TestSignalingDisconnectBroadcastsLeave(t *testing.T) {
	e := newEnv(t, 0)
	srv := e.server(t)
	roomID := e.bookingID.String()

	client := dialWS(t, srv, e.token(t, e.clientID))
	counsellor := dialWS(t, srv, e.token(t, e.counsellorPrincipal))

	writeMsg(t, client, ws.Message{Type: ws.TypeJoinRoom, RoomID: roomID})
	readMsg(t, client)
	writeMsg(t, counsellor, ws.Message{Type: ws.TypeJoinRoom, RoomID: roomID})
	readMsg(t, counsellor)
	readMsg(t, client) // user-joined

	// Abrupt close, no leave-room message.
	client.Close()

	left := readMsg(t, counsellor)
	assert.Equal(t, ws.TypeUserLeft, left.Type)
	assert.Equal(t, e.clientID.String(), left.PrincipalID)

	// Mere disconnection must not end the room.
	room, err := e.rooms.GetByID(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusInProgress, room.Status)
}

func TestSignalingRejoinWithinGraceKeepsRoomLive(t *testing.T) {
	e := newEnv(t, 150*time.Millisecond)
	srv := e.server(t)
	roomID := e.bookingID.String()

	conn := dialWS(t, srv, e.token(t, e.clientID))
	writeMsg(t, conn, ws.Message{Type: ws.TypeJoinRoom, RoomID: roomID})
	readMsg(t, conn)
	conn.Close()

	// Rejoin before the grace elapses; the armed timer must be disarmed.
	again := dialWS(t, srv, e.token(t, e.clientID))
	writeMsg(t, again, ws.Message{Type: ws.TypeJoinRoom, RoomID: roomID})
	ack := readMsg(t, again)
	require.Equal(t, ws.TypeRoomJoined, ack.Type)

	time.Sleep(400 * time.Millisecond)
	room, err := e.rooms.GetByID(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusInProgress, room.Status)
}

func TestSignalingEmptyRoomAutoEndsAfterGrace(t *testing.T) {
	e := newEnv(t, 50*time.Millisecond)
	srv := e.server(t)
	roomID := e.bookingID.String()

	conn := dialWS(t, srv, e.token(t, e.clientID))
	writeMsg(t, conn, ws.Message{Type: ws.TypeJoinRoom, RoomID: roomID})
	readMsg(t, conn)

	conn.Close()

	require.Eventually(t, func() bool {
		room, err := e.rooms.GetByID(context.Background(), roomID)
		return err == nil && room.Status == models.RoomStatusCompleted
	}, 2*time.Second, 20*time.Millisecond)
}
