package handlers

import (
	"io"
	"net/http"

	"slotbook/services/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives processor-signed event deliveries.
type WebhookHandler struct {
	reconciler *webhook.Reconciler
	logger     *zap.Logger
}

func NewWebhookHandler(reconciler *webhook.Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, logger: logger}
}

// HandleStripeEvent handles POST /webhooks/stripe. The raw body is read before
// any JSON parsing because the signature covers the exact bytes. Every
// evaluated delivery gets a 2xx, including replays, unverifiable payloads and
// events that belong to other subsystems; a non-2xx is reserved for transient
// failures the sender should retry.
func (h *WebhookHandler) HandleStripeEvent(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<16))
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if err := h.reconciler.HandleDelivery(c.Request.Context(), payload, sig); err != nil {
		h.logger.Error("transient webhook processing failure", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}
