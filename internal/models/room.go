package models

import (
	"time"

	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomStatusScheduled  RoomStatus = "scheduled"
	RoomStatusInProgress RoomStatus = "in_progress"
	RoomStatusCompleted  RoomStatus = "completed"
	RoomStatusCancelled  RoomStatus = "cancelled"
)

// Terminal reports whether no further status transitions are allowed.
func (s RoomStatus) Terminal() bool {
	return s == RoomStatusCompleted || s == RoomStatusCancelled
}

// Room is the durable record of one call instance. The ID is either the
// booking UUID in string form (canonical rooms) or an opaque legacy
// identifier for ad-hoc rooms created before bookings existed.
type Room struct {
	ID        string     `db:"id"`
	BookingID *uuid.UUID `db:"booking_id"`

	ClientID     uuid.UUID `db:"client_id"`
	CounsellorID uuid.UUID `db:"counsellor_id"`

	// LegacyCounsellorProfileID carries the counsellor profile reference
	// stored by the old identifier scheme. Only consulted as an
	// authorization fallback for legacy rooms.
	LegacyCounsellorProfileID *uuid.UUID `db:"legacy_counsellor_profile_id"`

	Status RoomStatus `db:"status"`

	StartedAt *time.Time `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"`

	DurationSeconds int `db:"duration_seconds"`

	Rating *int    `db:"rating"`
	Notes  *string `db:"notes"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Active reports whether the room should show up in upcoming-call lists.
func (r *Room) Active() bool {
	return r.Status == RoomStatusScheduled || r.Status == RoomStatusInProgress
}
