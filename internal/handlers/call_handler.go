package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/dtos"
	"github.com/solacecare/counselcall/internal/middlewares"
	"github.com/solacecare/counselcall/internal/models"
	"github.com/solacecare/counselcall/internal/services"
)

// CallHandler exposes the room lifecycle over HTTP.
type CallHandler struct {
	rooms *services.RoomService
	log   zerolog.Logger
}

func NewCallHandler(rooms *services.RoomService, log zerolog.Logger) *CallHandler {
	return &CallHandler{
		rooms: rooms,
		log:   log.With().Str("component", "call_handler").Logger(),
	}
}

// InitializeSession creates (or returns) the room for a booking.
func (h *CallHandler) InitializeSession(c *gin.Context) {
	principalID, err := middlewares.PrincipalFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.InitializeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bookingId required"})
		return
	}

	room, err := h.rooms.Initialize(c.Request.Context(), req.BookingID, principalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dtos.InitializeSessionResponse{
		RoomID: room.ID,
		Status: string(room.Status),
	})
}

// VerifyRoom checks that the caller may join and, as the lifecycle join
// operation, may create the room or move it into in_progress.
func (h *CallHandler) VerifyRoom(c *gin.Context) {
	principalID, err := middlewares.PrincipalFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.VerifyRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
		return
	}

	room, role, err := h.rooms.Join(c.Request.Context(), req.RoomID, principalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dtos.VerifyRoomResponse{
		OK:     true,
		RoomID: room.ID,
		Role:   string(role),
		Status: string(room.Status),
	})
}

// Upcoming lists the caller's scheduled and in-progress rooms.
func (h *CallHandler) Upcoming(c *gin.Context) {
	principalID, err := middlewares.PrincipalFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	rooms, err := h.rooms.Upcoming(c.Request.Context(), principalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := dtos.UpcomingCallsResponse{Rooms: make([]dtos.RoomResponse, 0, len(rooms))}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomResponse(room))
	}
	c.JSON(http.StatusOK, resp)
}

// EndCall completes the room. Safe to call from both sides at once.
func (h *CallHandler) EndCall(c *gin.Context) {
	principalID, err := middlewares.PrincipalFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.EndCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
		return
	}

	room, err := h.rooms.End(c.Request.Context(), req.RoomID, principalID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dtos.EndCallResponse{
		OK:              true,
		DurationSeconds: room.DurationSeconds,
	})
}

// CancelCall aborts a room that never started.
func (h *CallHandler) CancelCall(c *gin.Context) {
	principalID, err := middlewares.PrincipalFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.CancelCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
		return
	}

	if _, err := h.rooms.Cancel(c.Request.Context(), req.RoomID, principalID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dtos.CancelCallResponse{OK: true})
}

// SubmitFeedback records post-call rating and notes.
func (h *CallHandler) SubmitFeedback(c *gin.Context) {
	principalID, err := middlewares.PrincipalFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.CallFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId and rating (1-5) required"})
		return
	}

	if err := h.rooms.SetFeedback(c.Request.Context(), req.RoomID, principalID, req.Rating, req.Notes); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// respondError maps the error taxonomy onto HTTP statuses. Forbidden
// stays generic so callers cannot probe for valid participant ids.
func (h *CallHandler) respondError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case apperr.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case apperr.KindInvalidArgument:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.KindTransient:
		c.JSON(http.StatusBadGateway, gin.H{"error": "temporarily unavailable"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func toRoomResponse(room *models.Room) dtos.RoomResponse {
	resp := dtos.RoomResponse{
		RoomID:          room.ID,
		ClientID:        room.ClientID.String(),
		CounsellorID:    room.CounsellorID.String(),
		Status:          string(room.Status),
		StartedAt:       room.StartedAt,
		EndedAt:         room.EndedAt,
		DurationSeconds: room.DurationSeconds,
	}
	if room.BookingID != nil {
		id := room.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}
