package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solacecare/counselcall/internal/apperr"
	"github.com/solacecare/counselcall/internal/models"
)

// In-memory counterparts of the Postgres repositories, with the same
// compare-and-set transition semantics. They back unit tests and local
// development without a database.

type MemoryRoomRepository struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
}

func NewMemoryRoomRepository() *MemoryRoomRepository {
	return &MemoryRoomRepository{rooms: make(map[string]*models.Room)}
}

func (r *MemoryRoomRepository) Create(ctx context.Context, room *models.Room) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return false, nil
	}

	clone := *room
	now := time.Now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.rooms[room.ID] = &clone
	return true, nil
}

func (r *MemoryRoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, apperr.NotFound("room %s not found", id)
	}
	clone := *room
	return &clone, nil
}

func (r *MemoryRoomRepository) ListActiveByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Room
	for _, room := range r.rooms {
		if !room.Active() {
			continue
		}
		if room.ClientID == principalID || room.CounsellorID == principalID {
			clone := *room
			out = append(out, &clone)
		}
	}
	// Same order the SQL query produces, oldest first.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRoomRepository) Start(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok || room.Status != models.RoomStatusScheduled {
		return false, nil
	}

	now := time.Now().UTC()
	room.Status = models.RoomStatusInProgress
	room.StartedAt = &now
	room.UpdatedAt = now
	return true, nil
}

func (r *MemoryRoomRepository) Complete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok || room.Status.Terminal() {
		return false, nil
	}

	now := time.Now().UTC()
	if room.StartedAt == nil {
		room.StartedAt = &now
	}
	room.Status = models.RoomStatusCompleted
	room.EndedAt = &now

	duration := int(now.Sub(*room.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	room.DurationSeconds = duration
	room.UpdatedAt = now
	return true, nil
}

func (r *MemoryRoomRepository) Cancel(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok || room.Status != models.RoomStatusScheduled {
		return false, nil
	}

	room.Status = models.RoomStatusCancelled
	room.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *MemoryRoomRepository) SetFeedback(ctx context.Context, id string, rating int, notes *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok || room.Status != models.RoomStatusCompleted {
		return false, nil
	}

	room.Rating = &rating
	room.Notes = notes
	room.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Seed inserts a room verbatim, bypassing creation rules. Test helper.
func (r *MemoryRoomRepository) Seed(room *models.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *room
	r.rooms[room.ID] = &clone
}

type MemoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking %s not found", id)
	}
	clone := *booking
	return &clone, nil
}

func (r *MemoryBookingRepository) Seed(booking *models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *booking
	r.bookings[booking.ID] = &clone
}

type MemoryCounsellorRepository struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.CounsellorProfile
}

func NewMemoryCounsellorRepository() *MemoryCounsellorRepository {
	return &MemoryCounsellorRepository{profiles: make(map[uuid.UUID]*models.CounsellorProfile)}
}

func (r *MemoryCounsellorRepository) FindByPrincipalID(ctx context.Context, principalID uuid.UUID) (*models.CounsellorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.profiles {
		if p.PrincipalID == principalID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("counsellor profile not found")
}

func (r *MemoryCounsellorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CounsellorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, apperr.NotFound("counsellor profile not found")
	}
	clone := *p
	return &clone, nil
}

func (r *MemoryCounsellorRepository) Seed(profile *models.CounsellorProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *profile
	r.profiles[profile.ID] = &clone
}
