package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Checkout session states as reported by Stripe.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"

	SessionPaymentPaid      = "paid"
	SessionPaymentUnpaid    = "unpaid"
	SessionPaymentNotNeeded = "no_payment_required"
)

const (
	metadataBookingIDKey = "booking_id"
	metadataEventIDKey   = "event_id"
	metadataUserIDKey    = "user_id"
)

// CheckoutRequest describes a hosted checkout for a booking.
type CheckoutRequest struct {
	BookingID     uuid.UUID
	EventID       uuid.UUID
	UserID        uuid.UUID
	EventName     string
	UnitAmount    float64
	Quantity      int
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the subset of a Stripe checkout session the app uses.
type CheckoutSession struct {
	ID              string
	URL             string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	ChargeID        string
	AmountTotal     int64
	Currency        string
	Metadata        map[string]string
}

// RefundResult is the outcome of a refund request.
type RefundResult struct {
	ID     string
	Status string
}

// PaymentGateway creates and inspects hosted payments.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	Refund(ctx context.Context, paymentIntentID string, amount int64) (*RefundResult, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
}

// StripeGateway implements PaymentGateway with the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a Stripe client bound to secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

// Currencies Stripe charges without two decimal places.
var (
	zeroDecimalCurrencies = map[string]bool{
		"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
		"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
		"vuv": true, "xaf": true, "xof": true, "xpf": true,
	}
	threeDecimalCurrencies = map[string]bool{
		"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
	}
)

// CurrencyExponent returns the number of minor-unit digits Stripe uses for currency.
func CurrencyExponent(currency string) int {
	c := strings.ToLower(currency)
	switch {
	case zeroDecimalCurrencies[c]:
		return 0
	case threeDecimalCurrencies[c]:
		return 3
	default:
		return 2
	}
}

// ToMinorUnits converts a major-unit amount into the smallest unit of currency.
func ToMinorUnits(amount float64, currency string) int64 {
	return int64(math.Round(amount * math.Pow10(CurrencyExponent(currency))))
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.EventName),
					},
					UnitAmount: stripe.Int64(ToMinorUnits(req.UnitAmount, req.Currency)),
				},
				Quantity: stripe.Int64(int64(req.Quantity)),
			},
		},
		ClientReferenceID: stripe.String(req.BookingID.String()),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(metadataBookingIDKey, req.BookingID.String())
	params.AddMetadata(metadataEventIDKey, req.EventID.String())
	params.AddMetadata(metadataUserIDKey, req.UserID.String())

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return fromStripeSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent.latest_charge")

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get checkout session: %w", err)
	}
	return fromStripeSession(s), nil
}

func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string, amount int64) (*RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	params.Context = ctx

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund: %w", err)
	}
	return &RefundResult{ID: r.ID, Status: string(r.Status)}, nil
}

// ExpireCheckoutSession closes an open session so it can no longer be paid.
func (g *StripeGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := g.api.CheckoutSessions.Expire(sessionID, params); err != nil {
		return fmt.Errorf("stripe expire checkout session: %w", err)
	}
	return nil
}

// SessionFromWebhook decodes the checkout session carried by a webhook event.
func SessionFromWebhook(raw json.RawMessage) (*CheckoutSession, error) {
	var s stripe.CheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return fromStripeSession(&s), nil
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
		if s.PaymentIntent.LatestCharge != nil {
			out.ChargeID = s.PaymentIntent.LatestCharge.ID
		}
	}
	return out
}
