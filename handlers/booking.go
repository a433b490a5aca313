package handlers

import (
	"errors"
	"net/http"

	"slotbook/middleware"
	"slotbook/models"
	"slotbook/services/booking"
	"slotbook/services/payment"
	"slotbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	engine booking.Engine
	logger *zap.Logger
}

func NewBookingHandler(engine booking.Engine, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{engine: engine, logger: logger}
}

func actorFrom(c *gin.Context) (string, string) {
	return c.GetString(middleware.ContextActorID), c.GetString(middleware.ContextActorRole)
}

// CreateBookingRequest handles POST /api/bookings.
func (h *BookingHandler) CreateBookingRequest(c *gin.Context) {
	var input booking.RequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "validation", "invalid input: "+err.Error())
		return
	}
	actorID, _ := actorFrom(c)
	input.CustomerID = actorID

	b, err := h.engine.Request(c.Request.Context(), input)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// AcceptBooking handles POST /api/bookings/:id/accept.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	actorID, _ := actorFrom(c)
	b, err := h.engine.Accept(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// DeclineBooking handles POST /api/bookings/:id/decline.
func (h *BookingHandler) DeclineBooking(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	actorID, _ := actorFrom(c)
	b, err := h.engine.Decline(c.Request.Context(), c.Param("id"), actorID, input.Reason)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	actorID, _ := actorFrom(c)
	b, err := h.engine.Cancel(c.Request.Context(), c.Param("id"), actorID, input.Reason)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actorID, _ := actorFrom(c)
	b, err := h.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	if b.CustomerID != actorID && b.ProviderID != actorID {
		utils.JSONError(c, http.StatusForbidden, "authorization", "booking belongs to another party")
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListBookings handles GET /api/bookings, scoped to the acting party.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actorID, role := actorFrom(c)
	status := models.BookingStatus(c.Query("status"))

	list, err := h.engine.ListFor(c.Request.Context(), role, actorID, status)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// GetAvailability handles GET /api/bookings/availability.
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	providerID := c.Query("provider_id")
	date := c.Query("date")
	if providerID == "" || date == "" {
		utils.JSONError(c, http.StatusBadRequest, "validation", "provider_id and date are required")
		return
	}

	free, err := h.engine.Availability(c.Request.Context(), providerID, date)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider_id": providerID, "date": date, "available": free})
}

// writeEngineError maps engine errors onto the HTTP error taxonomy.
func (h *BookingHandler) writeEngineError(c *gin.Context, err error) {
	var (
		validationErr *booking.ValidationError
		conflictErr   *booking.ConflictError
		authErr       *booking.AuthorizationError
		notPendingErr *booking.NotPendingError
		payValidation *payment.ValidationError
		providerErr   *payment.ProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "validation", validationErr.Message)
	case errors.As(err, &payValidation):
		utils.JSONError(c, http.StatusBadRequest, "validation", payValidation.Message)
	case errors.As(err, &conflictErr):
		// Carry the slot so the client knows to re-query availability.
		c.JSON(http.StatusConflict, gin.H{
			"code":    "booking_conflict",
			"message": conflictErr.Error(),
			"slot": gin.H{
				"provider_id": conflictErr.ProviderID,
				"date":        conflictErr.Date,
				"start":       conflictErr.Start,
				"end":         conflictErr.End,
			},
		})
	case errors.As(err, &authErr):
		utils.JSONError(c, http.StatusForbidden, "authorization", authErr.Error())
	case errors.Is(err, booking.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "not_found", "booking not found")
	case errors.As(err, &notPendingErr):
		utils.JSONError(c, http.StatusBadRequest, "not_pending", notPendingErr.Error())
	case errors.Is(err, booking.ErrContactProvider):
		utils.JSONError(c, http.StatusBadRequest, "contact_provider", booking.ErrContactProvider.Error())
	case errors.Is(err, booking.ErrAuthorizationReplayed):
		utils.JSONError(c, http.StatusConflict, "retry_later",
			"a just-released hold for this slot was replayed; please retry in a moment")
	case errors.Is(err, payment.ErrAuthorizationExpired):
		utils.JSONError(c, http.StatusGone, "payment_expired",
			"the payment authorization has expired; please start a new booking request")
	case errors.As(err, &providerErr):
		utils.JSONError(c, http.StatusBadGateway, "payment_provider_error", providerErr.Error())
	default:
		h.logger.Error("booking request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "internal server error")
	}
}
