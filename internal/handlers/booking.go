package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/middleware"
	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/services"
	"github.com/example/tickethub/internal/utils"
)

const qrCodeSize = 320

// BookingHandler manages bookings, checkout and tickets.
type BookingHandler struct {
	db       *gorm.DB
	bookings *services.BookingService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(db *gorm.DB, bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{db: db, bookings: bookings}
}

type addBookingRequest struct {
	EventID  string `json:"event_id"`
	Quantity int    `json:"quantity"`
}

// AddBooking reserves tickets. Paid events answer with a checkout URL.
func (h *BookingHandler) AddBooking(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	var req addBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidID)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.bookings.CreateBooking(c.UserContext(), *user, eventID, req.Quantity)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

type verifySessionRequest struct {
	SessionID string `json:"session_id"`
}

// VerifySession settles a booking from its checkout session after redirect.
func (h *BookingHandler) VerifySession(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req verifySessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		return fail(c, fiber.StatusBadRequest, utils.MsgSessionNotFound)
	}

	booking, err := h.bookings.VerifySession(c.UserContext(), userID, isAdminRole(middleware.GetCurrentRole(c)), req.SessionID)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			return fail(c, fiber.StatusNotFound, utils.MsgSessionNotFound)
		}
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// Webhook handles signed Stripe checkout events.
func (h *BookingHandler) Webhook(c *fiber.Ctx) error {
	event, ok := middleware.GetStripeEvent(c)
	if !ok || event.Data == nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidSignature)
	}

	switch event.Type {
	case "checkout.session.completed",
		"checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed",
		"checkout.session.expired":
	default:
		return c.JSON(fiber.Map{"received": true})
	}

	session, err := services.SessionFromWebhook(event.Data.Raw)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	// Delayed payment methods complete unpaid and settle with an async event.
	if event.Type == "checkout.session.completed" && session.PaymentStatus == services.SessionPaymentUnpaid {
		return c.JSON(fiber.Map{"received": true})
	}

	if _, err := h.bookings.FinalizeSession(c.UserContext(), session); err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			log.Warn().Str("session_id", session.ID).Str("event_type", string(event.Type)).Msg("webhook for unknown booking")
			return c.JSON(fiber.Map{"received": true})
		}
		return err
	}

	return c.JSON(fiber.Map{"received": true})
}

// CancelBooking cancels the booking, refunding paid ones.
func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	booking, err := h.bookings.CancelBooking(c.UserContext(), id, userID, isAdminRole(middleware.GetCurrentRole(c)))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// ListMyBookings returns the caller's bookings.
func (h *BookingHandler) ListMyBookings(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Booking{}).Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var bookings []models.Booking
	if err := query.Preload("Event", models.IncludeDeleted).Preload("Event.Images").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&bookings).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       bookings,
		"pagination": pg.Meta(total),
	})
}

// GetBooking returns one booking to its owner, the event organizer or an admin.
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	booking, err := h.visibleBooking(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// QRCode renders the ticket of a confirmed booking as PNG.
func (h *BookingHandler) QRCode(c *fiber.Ctx) error {
	booking, err := h.visibleBooking(c)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingBooked || booking.QRPayload == "" {
		return fail(c, fiber.StatusConflict, utils.MsgBookingNotFound)
	}

	png, err := services.TicketQRCode(booking.QRPayload, qrCodeSize)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// EventBookings lists bookings of one event for its organizer or an admin.
func (h *BookingHandler) EventBookings(c *fiber.Ctx) error {
	eventID, err := paramUUID(c, "eventId")
	if err != nil {
		return err
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var event models.Event
	if err := h.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, utils.MsgEventNotFound)
		}
		return err
	}
	if event.CreatedByID != userID && !isAdminRole(middleware.GetCurrentRole(c)) {
		return fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Booking{}).Where("event_id = ?", eventID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var bookings []models.Booking
	if err := query.Preload("User", models.IncludeDeleted).
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&bookings).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       bookings,
		"pagination": pg.Meta(total),
	})
}

func (h *BookingHandler) visibleBooking(c *fiber.Ctx) (*models.Booking, error) {
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, err
	}
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}

	var booking models.Booking
	if err := h.db.Preload("Event", models.IncludeDeleted).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(c, fiber.StatusNotFound, utils.MsgBookingNotFound)
		}
		return nil, err
	}

	allowed := booking.UserID == userID || isAdminRole(middleware.GetCurrentRole(c))
	if !allowed && booking.Event != nil && booking.Event.CreatedByID == userID {
		allowed = true
	}
	if !allowed {
		return nil, fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	}
	return &booking, nil
}
