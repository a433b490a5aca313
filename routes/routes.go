package routes

import (
	"net/http"
	"time"

	"slotbook/handlers"
	"slotbook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	api := r.Group("/api/bookings")
	{
		// Availability is public; it exposes free intervals only, never who
		// holds the busy ones.
		api.GET("/availability", bh.GetAvailability)

		// Customer actions.
		api.POST("", middleware.JWTAuthActor("customer"), bh.CreateBookingRequest)
		api.POST("/:id/cancel", middleware.JWTAuthActor("customer"), bh.CancelBooking)

		// Provider actions.
		api.POST("/:id/accept", middleware.JWTAuthActor("provider"), bh.AcceptBooking)
		api.POST("/:id/decline", middleware.JWTAuthActor("provider"), bh.DeclineBooking)

		// Reads, scoped to the acting party.
		api.GET("", middleware.JWTAuthActor(""), bh.ListBookings)
		api.GET("/:id", middleware.JWTAuthActor(""), bh.GetBooking)
	}
}

// RegisterWebhookRoutes sets up processor event delivery endpoints. These are
// authenticated by payload signature, not bearer tokens, and are deliberately
// outside the rate-limited API surface.
func RegisterWebhookRoutes(r *gin.Engine, wh *handlers.WebhookHandler) {
	r.POST("/webhooks/stripe", wh.HandleStripeEvent)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, bh *handlers.BookingHandler, wh *handlers.WebhookHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterWebhookRoutes(r, wh)

	r.Use(middleware.RateLimitMiddleware())
	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, bh)
}
