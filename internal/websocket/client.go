package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/solacecare/counselcall/internal/models"
)

const sendBufferSize = 256

// Client is one live signaling connection. Messages destined for the
// peer go through the buffered Send channel so a slow connection can
// never stall the registry or other members; the write pump drains it.
type Client struct {
	ID          uuid.UUID
	PrincipalID uuid.UUID
	Role        models.Role

	Conn *websocket.Conn
	Send chan Message
	Done chan struct{}

	closeOnce sync.Once

	// roomID is owned by the Registry; read/written only under its lock.
	roomID string
}

func NewClient(principalID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		ID:          uuid.New(),
		PrincipalID: principalID,
		Conn:        conn,
		Send:        make(chan Message, sendBufferSize),
		Done:        make(chan struct{}),
	}
}

// TrySend enqueues without blocking. A full buffer means the consumer is
// too slow to be a live call participant; the caller treats that as a
// disconnect.
func (c *Client) TrySend(msg Message) error {
	select {
	case <-c.Done:
		return ErrSendBufferFull
	default:
	}

	select {
	case c.Send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close shuts the connection down once. Safe to call from any goroutine;
// the read pump notices and performs registry deregistration.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

func (c *Client) Closed() bool {
	select {
	case <-c.Done:
		return true
	default:
		return false
	}
}
