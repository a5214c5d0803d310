package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76/webhook"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/service"
)

// maxWebhookBody bounds webhook payload reads. Invoice events with many line
// items run to several hundred KB, so the cap sits well above that; a truncated
// read would fail signature verification and wedge the delivery in a retry loop.
const maxWebhookBody = 1 << 20

// WebhookHandler receives payment-processor events.
type WebhookHandler struct {
	billingService service.BillingService
	webhookSecret  string
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(billingService service.BillingService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{billingService: billingService, webhookSecret: webhookSecret}
}

// HandleStripe godoc
// @Summary Receive Stripe webhook events
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "unreadable payload", Code: "INVALID_PAYLOAD"})
	}

	// Signature mismatch is terminal: nothing is processed, the processor
	// retries on its own schedule.
	event, err := webhook.ConstructEvent(payload, c.Request().Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid signature", Code: "INVALID_SIGNATURE"})
	}

	if err := h.billingService.HandleEvent(c.Request().Context(), event); err != nil {
		log.Printf("webhook: event %s (%s) failed: %v", event.ID, event.Type, err)
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{Error: "event processing failed", Code: "EVENT_FAILED"})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
