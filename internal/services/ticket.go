package services

import (
	"encoding/json"

	"github.com/skip2/go-qrcode"

	"github.com/example/tickethub/internal/models"
)

type ticketPayload struct {
	BookingID string `json:"booking_id"`
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	Quantity  int    `json:"quantity"`
}

// TicketPayload returns the text encoded into a booking's QR code.
func TicketPayload(b models.Booking) string {
	data, _ := json.Marshal(ticketPayload{
		BookingID: b.ID.String(),
		EventID:   b.EventID.String(),
		UserID:    b.UserID.String(),
		Quantity:  b.Quantity,
	})
	return string(data)
}

// TicketQRCode renders payload as a PNG QR code.
func TicketQRCode(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
