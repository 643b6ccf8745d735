package models

import "github.com/google/uuid"

// CounsellorProfile links a counsellor's profile id (used by bookings)
// to the underlying principal id (used by credentials).
type CounsellorProfile struct {
	ID          uuid.UUID `db:"id"`
	PrincipalID uuid.UUID `db:"principal_id"`
	DisplayName string    `db:"display_name"`
}
