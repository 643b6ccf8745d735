package websocket

import (
	"encoding/json"
	"time"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/models"
)

// Wire message types, one JSON object per message. Session-establishment
// payloads (sdp, candidate) are opaque to the relay: they are routed to
// the named recipient verbatim and never inspected.
const (
	TypeJoinRoom     = "join-room"
	TypeLeaveRoom    = "leave-room"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeSendMessage  = "send-message"

	TypeRoomJoined     = "room-joined"
	TypeUserJoined     = "user-joined"
	TypeUserLeft       = "user-left"
	TypeReceiveMessage = "receive-message"
	TypeError          = "error"
)

// Message is the single envelope for both directions. Fields are
// populated per type; unknown fields are ignored on read and empty ones
// omitted on write.
type Message struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId,omitempty"`
	PrincipalID string `json:"principalId,omitempty"`
	Role        string `json:"role,omitempty"`
	To          string `json:"to,omitempty"`

	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`

	Content   string `json:"content,omitempty"`
	SenderID  string `json:"senderId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`

	Members []Member `json:"members,omitempty"`

	Message string `json:"message,omitempty"`
}

// Member describes one live room member in a membership snapshot.
type Member struct {
	PrincipalID string `json:"principalId"`
	Role        string `json:"role"`
}

// Validate checks the fields required for the message type. The relay
// rejects malformed messages with an error reply to the sender only.
func (m *Message) Validate() error {
	switch m.Type {
	case TypeJoinRoom:
		if m.RoomID == "" {
			return apperr.InvalidArgument("join-room requires roomId")
		}
	case TypeLeaveRoom:
		if m.RoomID == "" {
			return apperr.InvalidArgument("leave-room requires roomId")
		}
	case TypeOffer, TypeAnswer:
		if m.To == "" {
			return apperr.InvalidArgument("%s requires to", m.Type)
		}
		if len(m.SDP) == 0 {
			return apperr.InvalidArgument("%s requires sdp", m.Type)
		}
	case TypeICECandidate:
		if m.To == "" {
			return apperr.InvalidArgument("ice-candidate requires to")
		}
		if len(m.Candidate) == 0 {
			return apperr.InvalidArgument("ice-candidate requires candidate")
		}
	case TypeSendMessage:
		if m.Content == "" {
			return apperr.InvalidArgument("send-message requires content")
		}
	case "":
		return apperr.InvalidArgument("message type is required")
	default:
		return apperr.InvalidArgument("unknown message type %q", m.Type)
	}
	return nil
}

func NewRoomJoined(roomID string, role models.Role, members []Member) Message {
	return Message{
		Type:    TypeRoomJoined,
		RoomID:  roomID,
		Role:    string(role),
		Members: members,
	}
}

func NewUserJoined(principalID string) Message {
	return Message{Type: TypeUserJoined, PrincipalID: principalID}
}

func NewUserLeft(principalID string) Message {
	return Message{Type: TypeUserLeft, PrincipalID: principalID}
}

func NewReceiveMessage(senderID, content string, at time.Time) Message {
	return Message{
		Type:      TypeReceiveMessage,
		SenderID:  senderID,
		Content:   content,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

func NewError(msg string) Message {
	return Message{Type: TypeError, Message: msg}
}
