package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/solacecare/counselcall/internal/handlers"
	"github.com/solacecare/counselcall/internal/middlewares"
)

// Register wires the call-coordination endpoints. Booking, user and
// course CRUD live in their own services and are not mounted here.
func Register(
	router *gin.Engine,
	callHandler *handlers.CallHandler,
	signalingHandler *handlers.SignalingHandler,
	jwtSecret string,
) {
	api := router.Group("/api")

	protected := api.Group("/calls")
	protected.Use(middlewares.AuthMiddleware(jwtSecret))

	protected.POST("/initialize", callHandler.InitializeSession)
	protected.POST("/verify", callHandler.VerifyRoom)
	protected.GET("/upcoming", callHandler.Upcoming)
	protected.POST("/end", callHandler.EndCall)
	protected.POST("/cancel", callHandler.CancelCall)
	protected.POST("/feedback", callHandler.SubmitFeedback)

	// WebSocket upgrades cannot carry an Authorization header from the
	// browser, so the signaling endpoint authenticates a query token.
	wsAuth := middlewares.WebSocketAuthMiddleware(jwtSecret)
	api.GET("/ws/call", wsAuth, signalingHandler.HandleWebSocket)
}
