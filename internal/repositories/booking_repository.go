package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/models"
)

// BookingRepository reads appointment records owned by the booking
// subsystem. The call core never writes them.
type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	const query = `
	SELECT
		id,
		client_id,
		counsellor_id,
		scheduled_at,
		status,
		created_at
	FROM bookings
	WHERE id = $1
	LIMIT 1
	`

	var booking models.Booking
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.CounsellorID,
		&booking.ScheduledAt,
		&booking.Status,
		&booking.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking %s not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &booking, nil
}
