package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	stripe "github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test"

// MockBillingService is a mock implementation of BillingService.
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) HandleEvent(ctx context.Context, event stripe.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// signPayload produces a Stripe-Signature header value for the payload:
// an HMAC-SHA256 of "<timestamp>.<payload>" keyed by the endpoint secret.
func signPayload(secret string, payload []byte, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func webhookRequest(payload []byte, signature string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWebhookHandler_HandleStripe(t *testing.T) {
	t.Run("valid signature dispatches the event", func(t *testing.T) {
		billing := new(MockBillingService)
		billing.On("HandleEvent", mock.Anything, mock.MatchedBy(func(ev stripe.Event) bool {
			return ev.ID == "evt_1"
		})).Return(nil)

		payload := []byte(fmt.Sprintf(`{"id": "evt_1", "api_version": %q, "type": "checkout.session.completed", "data": {"object": {}}}`, stripe.APIVersion))
		c, rec := webhookRequest(payload, signPayload(testWebhookSecret, payload, time.Now()))

		h := NewWebhookHandler(billing, testWebhookSecret)
		assert.NoError(t, h.HandleStripe(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		billing.AssertExpectations(t)
	})

	t.Run("large invoice payload is read whole and verified", func(t *testing.T) {
		billing := new(MockBillingService)
		billing.On("HandleEvent", mock.Anything, mock.MatchedBy(func(ev stripe.Event) bool {
			return ev.ID == "evt_big"
		})).Return(nil)

		// Bulk the event past 64KB the way a many-line-item invoice would.
		lines := make([]string, 0, 2000)
		for i := 0; i < 2000; i++ {
			lines = append(lines, fmt.Sprintf(`{"id": "il_%04d", "description": "Línea de factura con descripción razonablemente larga"}`, i))
		}
		payload := []byte(fmt.Sprintf(
			`{"id": "evt_big", "api_version": %q, "type": "invoice.payment_failed", "data": {"object": {"lines": {"data": [%s]}}}}`,
			stripe.APIVersion, strings.Join(lines, ",")))
		assert.Greater(t, len(payload), 1<<16)

		c, rec := webhookRequest(payload, signPayload(testWebhookSecret, payload, time.Now()))

		h := NewWebhookHandler(billing, testWebhookSecret)
		assert.NoError(t, h.HandleStripe(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		billing.AssertExpectations(t)
	})

	t.Run("bad signature is rejected before processing", func(t *testing.T) {
		billing := new(MockBillingService)

		payload := []byte(fmt.Sprintf(`{"id": "evt_1", "api_version": %q, "type": "checkout.session.completed", "data": {"object": {}}}`, stripe.APIVersion))
		c, _ := webhookRequest(payload, signPayload("whsec_other", payload, time.Now()))

		h := NewWebhookHandler(billing, testWebhookSecret)
		err := h.HandleStripe(c)

		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		billing.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
	})

	t.Run("processing failure returns 500 so the processor redelivers", func(t *testing.T) {
		billing := new(MockBillingService)
		billing.On("HandleEvent", mock.Anything, mock.Anything).Return(assert.AnError)

		payload := []byte(fmt.Sprintf(`{"id": "evt_1", "api_version": %q, "type": "customer.subscription.deleted", "data": {"object": {}}}`, stripe.APIVersion))
		c, _ := webhookRequest(payload, signPayload(testWebhookSecret, payload, time.Now()))

		h := NewWebhookHandler(billing, testWebhookSecret)
		err := h.HandleStripe(c)

		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
	})
}
