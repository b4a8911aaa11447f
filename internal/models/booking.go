package models

import (
	"github.com/google/uuid"
)

// Booking statuses.
const (
	BookingBooked    = "booked"
	BookingPending   = "pending"
	BookingCancelled = "cancelled"
)

// Booking payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
	PaymentFree     = "free"
)

// Booking is a user's reservation of tickets for an event.
type Booking struct {
	BaseModel
	UserID          uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User            *User     `json:"user,omitempty"`
	EventID         uuid.UUID `gorm:"type:uuid;index" json:"event_id"`
	Event           *Event    `json:"event,omitempty"`
	Quantity        int       `json:"quantity"`
	TotalAmount     float64   `json:"total_amount"`
	Currency        string    `json:"currency"`
	Status          string    `gorm:"index" json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	StripeSessionID string    `gorm:"index" json:"stripe_session_id,omitempty"`
	QRPayload       string    `json:"qr_payload,omitempty"`
}

// IsActive reports whether the booking still holds or may hold tickets.
func (b Booking) IsActive() bool {
	return b.Status == BookingBooked || b.Status == BookingPending
}
