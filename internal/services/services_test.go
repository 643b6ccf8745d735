package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solacecare/counselcall/internal/models"
	"github.com/solacecare/counselcall/internal/repositories"
)

// fixture wires the lifecycle manager and resolver over in-memory
// stores, seeded with one confirmed booking between client and
// counsellor.
type fixture struct {
	rooms       *repositories.MemoryRoomRepository
	bookings    *repositories.MemoryBookingRepository
	counsellors *repositories.MemoryCounsellorRepository

	authz *AuthzService
	svc   *RoomService

	clientID            uuid.UUID
	counsellorPrincipal uuid.UUID
	counsellorProfileID uuid.UUID
	stranger            uuid.UUID

	booking *models.Booking
}

func newFixture() *fixture {
	f := &fixture{
		rooms:               repositories.NewMemoryRoomRepository(),
		bookings:            repositories.NewMemoryBookingRepository(),
		counsellors:         repositories.NewMemoryCounsellorRepository(),
		clientID:            uuid.New(),
		counsellorPrincipal: uuid.New(),
		counsellorProfileID: uuid.New(),
		stranger:            uuid.New(),
	}

	f.counsellors.Seed(&models.CounsellorProfile{
		ID:          f.counsellorProfileID,
		PrincipalID: f.counsellorPrincipal,
		DisplayName: "K. Counsellor",
	})

	f.booking = &models.Booking{
		ID:           uuid.New(),
		ClientID:     f.clientID,
		CounsellorID: f.counsellorProfileID,
		ScheduledAt:  time.Now().Add(time.Hour),
		Status:       models.BookingStatusConfirmed,
	}
	f.bookings.Seed(f.booking)

	log := zerolog.Nop()
	f.authz = NewAuthzService(f.bookings, f.rooms, f.counsellors, log)
	f.svc = NewRoomService(f.rooms, f.counsellors, f.authz, log)
	return f
}

func (f *fixture) bookingRef() string {
	return f.booking.ID.String()
}

// seedLegacyRoom adds an ad-hoc room not backed by any booking.
func (f *fixture) seedLegacyRoom(id string, status models.RoomStatus, withProfileRef bool) *models.Room {
	room := &models.Room{
		ID:           id,
		ClientID:     f.clientID,
		CounsellorID: f.counsellorPrincipal,
		Status:       status,
	}
	if withProfileRef {
		profileID := f.counsellorProfileID
		room.CounsellorID = uuid.New() // stale principal from the old scheme
		room.LegacyCounsellorProfileID = &profileID
	}
	f.rooms.Seed(room)
	return room
}
