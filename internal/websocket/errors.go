package websocket

import "errors"

var (
	ErrSendBufferFull = errors.New("send buffer is full")
	ErrNotInRoom      = errors.New("not a member of any room")
	ErrAlreadyInRoom  = errors.New("already a member of a room")
)
