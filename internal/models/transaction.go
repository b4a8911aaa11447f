package models

import (
	"github.com/google/uuid"
)

// Transaction types.
const (
	TransactionPayment = "payment"
	TransactionRefund  = "refund"
)

// Transaction statuses.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

// Transaction is one ledger row per payment or refund attempt.
type Transaction struct {
	BaseModel
	UserID                uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	BookingID             uuid.UUID `gorm:"type:uuid;index" json:"booking_id"`
	Booking               *Booking  `json:"booking,omitempty"`
	EventID               uuid.UUID `gorm:"type:uuid;index" json:"event_id"`
	Event                 *Event    `json:"event,omitempty"`
	Type                  string    `gorm:"index" json:"type"`
	Status                string    `gorm:"index" json:"status"`
	Amount                float64   `json:"amount"`
	Currency              string    `json:"currency"`
	StripeSessionID       string    `gorm:"index" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id,omitempty"`
	StripeChargeID        string    `json:"stripe_charge_id,omitempty"`
	StripeRefundID        string    `json:"stripe_refund_id,omitempty"`
	FailureReason         string    `json:"failure_reason,omitempty"`
}
