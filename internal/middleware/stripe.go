package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/example/tickethub/internal/utils"
)

const stripeEventKey = "stripeEvent"

// StripeSignatureMiddleware verifies the Stripe-Signature header and stores
// the decoded event in context.
func StripeSignatureMiddleware(webhookSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if webhookSecret == "" {
			return fiber.NewError(fiber.StatusServiceUnavailable, utils.MsgPaymentsDisabled.In(Lang(c)))
		}

		event, err := webhook.ConstructEventWithOptions(
			c.Body(),
			c.Get("Stripe-Signature"),
			webhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
		)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, utils.MsgInvalidSignature.In(Lang(c)))
		}

		c.Locals(stripeEventKey, event)
		return c.Next()
	}
}

// GetStripeEvent returns the verified Stripe event for this request.
func GetStripeEvent(c *fiber.Ctx) (stripe.Event, bool) {
	event, ok := c.Locals(stripeEventKey).(stripe.Event)
	return event, ok
}
