package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/models"
)

// CounsellorRepository resolves counsellor profiles. Bookings reference
// counsellors by profile id while tokens carry the principal id, so the
// resolver needs both directions.
type CounsellorRepository struct {
	db *sql.DB
}

func NewCounsellorRepository(db *sql.DB) *CounsellorRepository {
	return &CounsellorRepository{db: db}
}

func (r *CounsellorRepository) FindByPrincipalID(ctx context.Context, principalID uuid.UUID) (*models.CounsellorProfile, error) {
	const query = `
	SELECT id, principal_id, display_name
	FROM counsellor_profiles
	WHERE principal_id = $1
	LIMIT 1
	`

	return r.scanProfile(r.db.QueryRowContext(ctx, query, principalID))
}

func (r *CounsellorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CounsellorProfile, error) {
	const query = `
	SELECT id, principal_id, display_name
	FROM counsellor_profiles
	WHERE id = $1
	LIMIT 1
	`

	return r.scanProfile(r.db.QueryRowContext(ctx, query, id))
}

func (r *CounsellorRepository) scanProfile(row *sql.Row) (*models.CounsellorProfile, error) {
	var profile models.CounsellorProfile
	err := row.Scan(&profile.ID, &profile.PrincipalID, &profile.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("counsellor profile not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &profile, nil
}
