package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is owned by the booking subsystem; the call core only reads it.
// ClientID is a principal id, CounsellorID is a counsellor profile id and
// must be resolved through counsellor_profiles to reach the principal.
type Booking struct {
	ID           uuid.UUID     `db:"id"`
	ClientID     uuid.UUID     `db:"client_id"`
	CounsellorID uuid.UUID     `db:"counsellor_id"`
	ScheduledAt  time.Time     `db:"scheduled_at"`
	Status       BookingStatus `db:"status"`
	CreatedAt    time.Time     `db:"created_at"`
}
