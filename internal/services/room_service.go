package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/models"
	"github.com/solacecare/counselcall/internal/roomref"
)

// RoomService is the lifecycle manager for call rooms:
// scheduled -> in_progress -> completed, with cancelled as the alternate
// terminal state. Transitions are monotonic and idempotent; lost races
// against a concurrent caller are resolved by re-reading, never surfaced
// when the end state is the desired one.
type RoomService struct {
	rooms       RoomStore
	counsellors CounsellorStore
	authz       *AuthzService
	log         zerolog.Logger
}

func NewRoomService(rooms RoomStore, counsellors CounsellorStore, authz *AuthzService, log zerolog.Logger) *RoomService {
	return &RoomService{
		rooms:       rooms,
		counsellors: counsellors,
		authz:       authz,
		log:         log.With().Str("component", "room_lifecycle").Logger(),
	}
}

// Initialize creates the room for a booking ahead of the call. Repeat
// calls, including concurrent ones from both participants, all land on
// the same room.
func (s *RoomService) Initialize(ctx context.Context, bookingRef string, principalID uuid.UUID) (*models.Room, error) {
	ref, err := roomref.Parse(bookingRef)
	if err != nil {
		return nil, err
	}
	if !ref.IsCanonical() {
		return nil, apperr.InvalidArgument("initialize requires a booking id")
	}

	p, err := s.authz.ResolveParticipation(ctx, principalID, ref)
	if err != nil {
		return nil, err
	}

	room, err := s.roomFromBooking(ctx, p.Booking, models.RoomStatusScheduled, nil)
	if err != nil {
		return nil, err
	}

	created, err := s.rooms.Create(ctx, room)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info().Str("room_id", room.ID).Msg("room initialized")
	}

	return s.rooms.GetByID(ctx, room.ID)
}

// Join moves the referenced room into in_progress. A canonical room that
// does not exist yet is created directly in in_progress with started_at
// stamped now; joining a room that is already active or finished changes
// nothing. Legacy rooms cannot be auto-created: there is no booking
// snapshot to copy participants from.
func (s *RoomService) Join(ctx context.Context, rawRef string, principalID uuid.UUID) (*models.Room, models.Role, error) {
	ref, err := roomref.Parse(rawRef)
	if err != nil {
		return nil, "", err
	}

	p, err := s.authz.ResolveParticipation(ctx, principalID, ref)
	if err != nil {
		return nil, "", err
	}

	room, err := s.rooms.GetByID(ctx, p.RoomID)
	if errors.Is(err, apperr.ErrNotFound) && ref.IsCanonical() {
		now := time.Now().UTC()
		fresh, buildErr := s.roomFromBooking(ctx, p.Booking, models.RoomStatusInProgress, &now)
		if buildErr != nil {
			return nil, "", buildErr
		}
		if _, createErr := s.rooms.Create(ctx, fresh); createErr != nil {
			return nil, "", createErr
		}
		// Re-read regardless of who won the create race.
		room, err = s.rooms.GetByID(ctx, p.RoomID)
	}
	if err != nil {
		return nil, "", err
	}

	if room.Status == models.RoomStatusScheduled {
		applied, err := s.rooms.Start(ctx, room.ID)
		if err != nil {
			return nil, "", err
		}
		if applied {
			s.log.Info().Str("room_id", room.ID).Str("role", string(p.Role)).Msg("room started")
		}
		room, err = s.rooms.GetByID(ctx, room.ID)
		if err != nil {
			return nil, "", err
		}
	}

	return room, p.Role, nil
}

// End completes the room and fixes its duration. Idempotent: ending an
// already-terminal room returns the stored record unchanged, so two
// participants hanging up at once can never double-count the duration.
func (s *RoomService) End(ctx context.Context, rawRef string, principalID uuid.UUID) (*models.Room, error) {
	room, err := s.authorizeExisting(ctx, rawRef, principalID)
	if err != nil {
		return nil, err
	}

	return s.complete(ctx, room.ID)
}

// AutoEnd is the relay's grace-period path: both members gone for longer
// than the configured grace. No principal involved, so no authorization.
func (s *RoomService) AutoEnd(ctx context.Context, roomID string) (*models.Room, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	s.log.Info().Str("room_id", roomID).Msg("auto-ending empty room")
	return s.complete(ctx, roomID)
}

func (s *RoomService) complete(ctx context.Context, roomID string) (*models.Room, error) {
	applied, err := s.rooms.Complete(ctx, roomID)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Idempotent only towards completed; a cancelled room stays a
		// call that never happened.
		if room.Status != models.RoomStatusCompleted {
			return nil, apperr.Conflict("room %s is %s and cannot be completed", room.ID, room.Status)
		}
		return room, nil
	}

	s.log.Info().
		Str("room_id", room.ID).
		Int("duration_seconds", room.DurationSeconds).
		Msg("room completed")
	return room, nil
}

// Cancel aborts a room that never started. Cancelling twice is a no-op;
// cancelling a room that is already running or finished is a conflict.
func (s *RoomService) Cancel(ctx context.Context, rawRef string, principalID uuid.UUID) (*models.Room, error) {
	room, err := s.authorizeExisting(ctx, rawRef, principalID)
	if err != nil {
		return nil, err
	}

	applied, err := s.rooms.Cancel(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		room, err = s.rooms.GetByID(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		if room.Status != models.RoomStatusCancelled {
			return nil, apperr.Conflict("room %s is %s and cannot be cancelled", room.ID, room.Status)
		}
		return room, nil
	}

	return s.rooms.GetByID(ctx, room.ID)
}

// SetFeedback stores post-call rating and notes. Only completed rooms
// accept feedback.
func (s *RoomService) SetFeedback(ctx context.Context, rawRef string, principalID uuid.UUID, rating int, notes *string) error {
	room, err := s.authorizeExisting(ctx, rawRef, principalID)
	if err != nil {
		return err
	}

	applied, err := s.rooms.SetFeedback(ctx, room.ID, rating, notes)
	if err != nil {
		return err
	}
	if !applied {
		return apperr.Conflict("feedback requires a completed room")
	}
	return nil
}

// Upcoming lists the principal's scheduled and in-progress rooms.
func (s *RoomService) Upcoming(ctx context.Context, principalID uuid.UUID) ([]*models.Room, error) {
	return s.rooms.ListActiveByPrincipal(ctx, principalID)
}

// Get returns a room the principal participates in.
func (s *RoomService) Get(ctx context.Context, rawRef string, principalID uuid.UUID) (*models.Room, error) {
	return s.authorizeExisting(ctx, rawRef, principalID)
}

// authorizeExisting resolves participation and requires the room record
// to already exist, in that order: a caller who is not a participant gets
// Forbidden, never a hint about whether the room exists.
func (s *RoomService) authorizeExisting(ctx context.Context, rawRef string, principalID uuid.UUID) (*models.Room, error) {
	ref, err := roomref.Parse(rawRef)
	if err != nil {
		return nil, err
	}

	p, err := s.authz.ResolveParticipation(ctx, principalID, ref)
	if err != nil {
		return nil, err
	}
	if p.Room != nil {
		return p.Room, nil
	}

	return s.rooms.GetByID(ctx, p.RoomID)
}

// roomFromBooking builds the durable room record from a booking
// snapshot, resolving the counsellor profile down to its principal.
func (s *RoomService) roomFromBooking(ctx context.Context, booking *models.Booking, status models.RoomStatus, startedAt *time.Time) (*models.Room, error) {
	profile, err := s.counsellors.GetByID(ctx, booking.CounsellorID)
	if err != nil {
		return nil, err
	}

	bookingID := booking.ID
	return &models.Room{
		ID:           roomref.Normalize(booking.ID.String()),
		BookingID:    &bookingID,
		ClientID:     booking.ClientID,
		CounsellorID: profile.PrincipalID,
		Status:       status,
		StartedAt:    startedAt,
	}, nil
}
