package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/solacecare/counselcall/internal/models"
)

// RoomStore is the durable source of truth for room state. Transition
// methods are compare-and-set: they report false when the room was not
// in a state the transition is legal from.
type RoomStore interface {
	Create(ctx context.Context, room *models.Room) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Room, error)
	ListActiveByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*models.Room, error)
	Start(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id string) (bool, error)
	Cancel(ctx context.Context, id string) (bool, error)
	SetFeedback(ctx context.Context, id string, rating int, notes *string) (bool, error)
}

// BookingStore provides read-only access to appointment records.
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// CounsellorStore resolves counsellor profiles in both directions:
// bookings hold profile ids, tokens hold principal ids.
type CounsellorStore interface {
	FindByPrincipalID(ctx context.Context, principalID uuid.UUID) (*models.CounsellorProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CounsellorProfile, error)
}
