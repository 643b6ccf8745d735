package handlers_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/solacecare/counselcall/internal/handlers"
	"github.com/solacecare/counselcall/internal/models"
	"github.com/solacecare/counselcall/internal/repositories"
	"github.com/solacecare/counselcall/internal/routes"
	"github.com/solacecare/counselcall/internal/services"
	"github.com/solacecare/counselcall/internal/utils"
	ws "github.com/solacecare/counselcall/internal/websocket"
)

const testJWTSecret = "test-secret"

// env is a full stack over in-memory stores: router, services, and a
// seeded booking between client and counsellor.
type env struct {
	router   *gin.Engine
	rooms    *repositories.MemoryRoomRepository
	registry *ws.Registry

	clientID            uuid.UUID
	counsellorPrincipal uuid.UUID
	strangerID          uuid.UUID
	bookingID           uuid.UUID
}

func newEnv(t *testing.T, emptyRoomGrace time.Duration) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		rooms:               repositories.NewMemoryRoomRepository(),
		clientID:            uuid.New(),
		counsellorPrincipal: uuid.New(),
		strangerID:          uuid.New(),
		bookingID:           uuid.New(),
	}

	bookings := repositories.NewMemoryBookingRepository()
	counsellors := repositories.NewMemoryCounsellorRepository()

	profileID := uuid.New()
	counsellors.Seed(&models.CounsellorProfile{
		ID:          profileID,
		PrincipalID: e.counsellorPrincipal,
		DisplayName: "K. Counsellor",
	})
	bookings.Seed(&models.Booking{
		ID:           e.bookingID,
		ClientID:     e.clientID,
		CounsellorID: profileID,
		ScheduledAt:  time.Now().Add(time.Hour),
		Status:       models.BookingStatusConfirmed,
	})

	log := zerolog.Nop()
	authz := services.NewAuthzService(bookings, e.rooms, counsellors, log)
	roomService := services.NewRoomService(e.rooms, counsellors, authz, log)
	e.registry = ws.NewRegistry(log)

	callHandler := handlers.NewCallHandler(roomService, log)
	signalingHandler := handlers.NewSignalingHandler(roomService, e.registry, emptyRoomGrace, log)

	e.router = gin.New()
	routes.Register(e.router, callHandler, signalingHandler, testJWTSecret)
	return e
}

func (e *env) token(t *testing.T, principalID uuid.UUID) string {
	t.Helper()
	token, err := utils.NewAccessToken(principalID, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *env) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)
	return srv
}
