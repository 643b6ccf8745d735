package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/models"
	"github.com/solacecare/counselcall/internal/roomref"
)

// Participation is the result of a successful authorization check.
type Participation struct {
	Role   models.Role
	RoomID string

	// Booking is set for canonical refs, Room for legacy refs; whichever
	// record the check was resolved against.
	Booking *models.Booking
	Room    *models.Room
}

// AuthzService decides whether a principal may take part in a room.
// Pure check, no side effects; safe to call repeatedly.
type AuthzService struct {
	bookings    BookingStore
	rooms       RoomStore
	counsellors CounsellorStore
	log         zerolog.Logger
}

func NewAuthzService(bookings BookingStore, rooms RoomStore, counsellors CounsellorStore, log zerolog.Logger) *AuthzService {
	return &AuthzService{
		bookings:    bookings,
		rooms:       rooms,
		counsellors: counsellors,
		log:         log.With().Str("component", "authz").Logger(),
	}
}

// ResolveParticipation checks the principal against the participants of
// the referenced booking or room. Failures are NotFound when the record
// is absent and a detail-free Forbidden otherwise.
func (s *AuthzService) ResolveParticipation(ctx context.Context, principalID uuid.UUID, ref roomref.Ref) (*Participation, error) {
	if ref.IsCanonical() {
		return s.resolveBooking(ctx, principalID, ref)
	}
	return s.resolveLegacyRoom(ctx, principalID, ref)
}

func (s *AuthzService) resolveBooking(ctx context.Context, principalID uuid.UUID, ref roomref.Ref) (*Participation, error) {
	booking, err := s.bookings.GetByID(ctx, ref.BookingID())
	if err != nil {
		return nil, err
	}

	if roomref.SameID(booking.ClientID.String(), principalID.String()) {
		return &Participation{
			Role:    models.RoleClient,
			RoomID:  ref.RoomID(),
			Booking: booking,
		}, nil
	}

	// Bookings store the counsellor's profile id while tokens carry the
	// principal id; resolve the profile for this principal and compare.
	profile, err := s.counsellors.FindByPrincipalID(ctx, principalID)
	if err == nil && profile != nil && roomref.SameID(profile.ID.String(), booking.CounsellorID.String()) {
		return &Participation{
			Role:    models.RoleCounsellor,
			RoomID:  ref.RoomID(),
			Booking: booking,
		}, nil
	}
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	return nil, apperr.Forbidden()
}

func (s *AuthzService) resolveLegacyRoom(ctx context.Context, principalID uuid.UUID, ref roomref.Ref) (*Participation, error) {
	room, err := s.rooms.GetByID(ctx, ref.RoomID())
	if err != nil {
		return nil, err
	}

	switch {
	case roomref.SameID(room.ClientID.String(), principalID.String()):
		return &Participation{Role: models.RoleClient, RoomID: room.ID, Room: room}, nil
	case roomref.SameID(room.CounsellorID.String(), principalID.String()):
		return &Participation{Role: models.RoleCounsellor, RoomID: room.ID, Room: room}, nil
	}

	// Legacy fallback: some pre-booking rooms stored the counsellor's
	// profile id instead of the principal id. Best effort only, never
	// used for canonical rooms.
	if room.LegacyCounsellorProfileID != nil {
		profile, err := s.counsellors.FindByPrincipalID(ctx, principalID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		if profile != nil && roomref.SameID(profile.ID.String(), room.LegacyCounsellorProfileID.String()) {
			s.log.Warn().
				Str("room_id", room.ID).
				Str("principal_id", principalID.String()).
				Msg("authorized via legacy counsellor profile fallback")
			return &Participation{Role: models.RoleCounsellor, RoomID: room.ID, Room: room}, nil
		}
	}

	return nil, apperr.Forbidden()
}
