package middleware

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76/webhook"
)

func TestStripeSignatureMiddleware(t *testing.T) {
	const secret = "whsec_test"
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session"}}}`)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/webhook", StripeSignatureMiddleware(secret), func(c *fiber.Ctx) error {
		event, ok := GetStripeEvent(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(string(event.Type))
	})
	app.Post("/disabled", StripeSignatureMiddleware(""), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("signed webhook status = %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	if resp, _ := app.Test(req); resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("forged webhook status = %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/disabled", bytes.NewReader(payload))
	if resp, _ := app.Test(req); resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("unconfigured webhook status = %d", resp.StatusCode)
	}
}
