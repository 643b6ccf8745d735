package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/models"
)

// RoomRepository persists call rooms. All status transitions are
// compare-and-set: the WHERE clause names the states the transition is
// legal from and callers check the applied flag, so concurrent writers
// can never regress a room or double-apply a terminal transition.
type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `
	id,
	booking_id,
	client_id,
	counsellor_id,
	legacy_counsellor_profile_id,
	status,
	started_at,
	ended_at,
	duration_seconds,
	rating,
	notes,
	created_at,
	updated_at
`

// Create inserts the room unless one with the same id already exists.
// Room ids for canonical rooms are the booking id, so the primary key
// doubles as the one-room-per-booking guarantee.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) (bool, error) {
	const query = `
	INSERT INTO call_rooms (
		id,
		booking_id,
		client_id,
		counsellor_id,
		legacy_counsellor_profile_id,
		status,
		started_at,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	ON CONFLICT (id) DO NOTHING
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		room.ID,
		room.BookingID,
		room.ClientID,
		room.CounsellorID,
		room.LegacyCounsellorProfileID,
		room.Status,
		room.StartedAt,
	)
	if err != nil {
		return false, apperr.Internal(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Internal(err)
	}
	return n == 1, nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `
	SELECT ` + roomColumns + `
	FROM call_rooms
	WHERE id = $1
	LIMIT 1
	`

	room, err := scanRoom(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("room %s not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return room, nil
}

// ListActiveByPrincipal returns scheduled and in-progress rooms the
// principal participates in, soonest first.
func (r *RoomRepository) ListActiveByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*models.Room, error) {
	const query = `
	SELECT ` + roomColumns + `
	FROM call_rooms
	WHERE status IN ('scheduled', 'in_progress')
	  AND (client_id = $1 OR counsellor_id = $1)
	ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, principalID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return rooms, nil
}

// Start moves a scheduled room to in_progress, stamping started_at once.
// Returns false without error when the room was not in scheduled state.
func (r *RoomRepository) Start(ctx context.Context, id string) (bool, error) {
	const query = `
	UPDATE call_rooms
	SET status = 'in_progress', started_at = NOW(), updated_at = NOW()
	WHERE id = $1 AND status = 'scheduled'
	`

	return r.exec(ctx, query, id)
}

// Complete ends a room, computing the duration in the same statement so
// ended_at and duration_seconds can never disagree. A room ended before
// anyone joined gets a zero duration, and clock skew is clamped at zero.
func (r *RoomRepository) Complete(ctx context.Context, id string) (bool, error) {
	const query = `
	UPDATE call_rooms
	SET status = 'completed',
	    ended_at = NOW(),
	    started_at = COALESCE(started_at, NOW()),
	    duration_seconds = GREATEST(0, CAST(EXTRACT(EPOCH FROM (NOW() - COALESCE(started_at, NOW()))) AS INTEGER)),
	    updated_at = NOW()
	WHERE id = $1 AND status IN ('scheduled', 'in_progress')
	`

	return r.exec(ctx, query, id)
}

// Cancel is only legal from scheduled; an in-progress call must be ended.
func (r *RoomRepository) Cancel(ctx context.Context, id string) (bool, error) {
	const query = `
	UPDATE call_rooms
	SET status = 'cancelled', updated_at = NOW()
	WHERE id = $1 AND status = 'scheduled'
	`

	return r.exec(ctx, query, id)
}

// SetFeedback records post-call rating and notes; completed rooms only.
func (r *RoomRepository) SetFeedback(ctx context.Context, id string, rating int, notes *string) (bool, error) {
	const query = `
	UPDATE call_rooms
	SET rating = $2, notes = $3, updated_at = NOW()
	WHERE id = $1 AND status = 'completed'
	`

	res, err := r.db.ExecContext(ctx, query, id, rating, notes)
	if err != nil {
		return false, apperr.Internal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Internal(err)
	}
	return n == 1, nil
}

func (r *RoomRepository) exec(ctx context.Context, query, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, apperr.Internal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Internal(err)
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var room models.Room
	err := row.Scan(
		&room.ID,
		&room.BookingID,
		&room.ClientID,
		&room.CounsellorID,
		&room.LegacyCounsellorProfileID,
		&room.Status,
		&room.StartedAt,
		&room.EndedAt,
		&room.DurationSeconds,
		&room.Rating,
		&room.Notes,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}
