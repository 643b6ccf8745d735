package dtos

import "time"

// Initialize a call room for a booking ahead of the session.
type InitializeSessionRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
}

type InitializeSessionResponse struct {
	RoomID string `json:"roomId"`
	Status string `json:"status"`
}

// Verify that the caller may join a room; may transition it to in_progress.
type VerifyRoomRequest struct {
	RoomID string `json:"roomId" binding:"required"`
}

type VerifyRoomResponse struct {
	OK     bool   `json:"ok"`
	RoomID string `json:"roomId"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

type EndCallRequest struct {
	RoomID string `json:"roomId" binding:"required"`
}

type EndCallResponse struct {
	OK              bool `json:"ok"`
	DurationSeconds int  `json:"durationSeconds"`
}

type CancelCallRequest struct {
	RoomID string `json:"roomId" binding:"required"`
}

type CancelCallResponse struct {
	OK bool `json:"ok"`
}

type CallFeedbackRequest struct {
	RoomID string  `json:"roomId" binding:"required"`
	Rating int     `json:"rating" binding:"required,min=1,max=5"`
	Notes  *string `json:"notes"`
}

// RoomResponse mirrors the persisted room record.
type RoomResponse struct {
	RoomID          string     `json:"roomId"`
	BookingID       *string    `json:"bookingId,omitempty"`
	ClientID        string     `json:"clientId"`
	CounsellorID    string     `json:"counsellorId"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationSeconds int        `json:"durationSeconds"`
}

type UpcomingCallsResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}
