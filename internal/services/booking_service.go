package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/models"
)

// BookingNotifier is told about payment outcomes. TelegramService implements it.
type BookingNotifier interface {
	NotifyBookingPaid(ctx context.Context, n BookingNotification) error
	NotifyRefund(ctx context.Context, n BookingNotification) error
}

// BookingService owns the booking and payment lifecycle.
type BookingService struct {
	db        *gorm.DB
	gateway   PaymentGateway
	notifier  BookingNotifier
	currency  string
	clientURL string
	now       func() time.Time
}

// NewBookingService constructs a BookingService. gateway and notifier may be nil.
func NewBookingService(db *gorm.DB, gateway PaymentGateway, notifier BookingNotifier, currency, clientURL string) *BookingService {
	return &BookingService{
		db:        db,
		gateway:   gateway,
		notifier:  notifier,
		currency:  currency,
		clientURL: clientURL,
		now:       time.Now,
	}
}

// CheckoutResult is returned when a booking is created.
type CheckoutResult struct {
	Booking     *models.Booking `json:"booking"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
}

// CreateBooking reserves quantity tickets of an event for user. Free events
// are booked immediately; paid events start a hosted checkout.
func (s *BookingService) CreateBooking(ctx context.Context, user models.User, eventID uuid.UUID, quantity int) (*CheckoutResult, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	db := s.db.WithContext(ctx)

	var event models.Event
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	if event.Status != models.EventStatusActive || event.Date.Before(s.now()) {
		return nil, ErrEventNotBookable
	}
	if event.AvailableTickets() < quantity {
		return nil, ErrNotEnoughTickets
	}

	currency := event.Currency
	if currency == "" {
		currency = s.currency
	}

	booking := models.Booking{
		UserID:      user.ID,
		EventID:     event.ID,
		Quantity:    quantity,
		TotalAmount: event.Price * float64(quantity),
		Currency:    currency,
	}

	if event.Price <= 0 {
		err := db.Transaction(func(tx *gorm.DB) error {
			booking.ID = uuid.New()
			booking.Status = models.BookingBooked
			booking.PaymentStatus = models.PaymentFree
			booking.QRPayload = TicketPayload(booking)
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}
			return reserveTickets(tx, event.ID, quantity)
		})
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{Booking: &booking}, nil
	}

	if s.gateway == nil {
		return nil, ErrPaymentsDisabled
	}

	booking.Status = models.BookingPending
	booking.PaymentStatus = models.PaymentPending
	if err := db.Create(&booking).Error; err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		BookingID:     booking.ID,
		EventID:       event.ID,
		UserID:        user.ID,
		EventName:     event.Name.In("en"),
		UnitAmount:    event.Price,
		Quantity:      quantity,
		Currency:      currency,
		CustomerEmail: user.Email,
		SuccessURL:    s.clientURL + "/booking/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.clientURL + "/events/" + event.ID.String(),
	})
	if err != nil {
		if uerr := db.Model(&booking).Updates(map[string]interface{}{
			"status":         models.BookingCancelled,
			"payment_status": models.PaymentFailed,
		}).Error; uerr != nil {
			log.Error().Err(uerr).Str("booking_id", booking.ID.String()).Msg("failed to cancel booking after checkout error")
		}
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		booking.StripeSessionID = session.ID
		if err := tx.Model(&booking).Update("stripe_session_id", session.ID).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			UserID:          user.ID,
			BookingID:       booking.ID,
			EventID:         event.ID,
			Type:            models.TransactionPayment,
			Status:          models.TransactionPending,
			Amount:          booking.TotalAmount,
			Currency:        currency,
			StripeSessionID: session.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		Booking:     &booking,
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

// VerifySession pulls the checkout session from the gateway and applies its
// outcome to the requester's booking.
func (s *BookingService) VerifySession(ctx context.Context, requesterID uuid.UUID, isAdmin bool, sessionID string) (*models.Booking, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsDisabled
	}

	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "stripe_session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != requesterID && !isAdmin {
		return nil, ErrForbidden
	}

	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.FinalizeSession(ctx, session)
}

// FinalizeSession applies a checkout outcome. Every state change is
// conditioned on the booking still being pending, so overlapping redirects
// and webhooks settle it exactly once. A payment that arrives for a booking
// already cancelled is refunded.
func (s *BookingService) FinalizeSession(ctx context.Context, session *CheckoutSession) (*models.Booking, error) {
	db := s.db.WithContext(ctx)

	var booking models.Booking
	err := db.First(&booking, "stripe_session_id = ?", session.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if id, perr := uuid.Parse(session.Metadata[metadataBookingIDKey]); perr == nil {
			err = db.First(&booking, "id = ?", id).Error
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status != models.BookingPending {
		return s.settleClosed(ctx, db, &booking, session)
	}

	var applied bool
	switch {
	case sessionPaid(session):
		if applied, err = s.markPaid(db, &booking, session); err == nil && applied {
			s.notify(ctx, booking, false)
		}
	case session.Status == SessionStatusExpired:
		applied, err = s.markFailed(db, &booking, "checkout session expired")
	case session.Status == SessionStatusComplete:
		applied, err = s.markFailed(db, &booking, "payment not completed")
	default:
		return &booking, nil
	}
	if err != nil {
		return nil, err
	}

	if !applied {
		// Another finaliser settled the booking between our read and write.
		if err := db.First(&booking, "id = ?", booking.ID).Error; err != nil {
			return nil, err
		}
		return s.settleClosed(ctx, db, &booking, session)
	}
	return &booking, nil
}

func sessionPaid(session *CheckoutSession) bool {
	return session.PaymentStatus == SessionPaymentPaid || session.PaymentStatus == SessionPaymentNotNeeded
}

// settleClosed handles a session outcome for a booking that is no longer
// pending. Only a paid session for a cancelled, unpaid booking needs work.
func (s *BookingService) settleClosed(ctx context.Context, db *gorm.DB, booking *models.Booking, session *CheckoutSession) (*models.Booking, error) {
	if booking.Status != models.BookingCancelled || booking.PaymentStatus != models.PaymentFailed || !sessionPaid(session) {
		return booking, nil
	}
	if session.PaymentIntentID == "" {
		return booking, nil
	}

	// Record the money that came in. The conditional update makes concurrent
	// late payments refund once.
	res := db.Model(&models.Transaction{}).
		Where("booking_id = ? AND type = ? AND status <> ?", booking.ID, models.TransactionPayment, models.TransactionCompleted).
		Updates(map[string]interface{}{
			"status":                   models.TransactionCompleted,
			"stripe_payment_intent_id": session.PaymentIntentID,
			"stripe_charge_id":         session.ChargeID,
			"failure_reason":           "",
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return booking, nil
	}

	log.Warn().Str("booking_id", booking.ID.String()).Str("session_id", session.ID).
		Msg("payment received for cancelled booking, refunding")
	if err := s.refund(ctx, db, booking, false); err != nil {
		return nil, err
	}
	return booking, nil
}

// markPaid moves a pending booking to booked/paid and reserves its tickets.
// It reports false when the booking had already left the pending state.
func (s *BookingService) markPaid(db *gorm.DB, booking *models.Booking, session *CheckoutSession) (bool, error) {
	applied := false
	payload := TicketPayload(*booking)

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingPending).
			Updates(map[string]interface{}{
				"status":         models.BookingBooked,
				"payment_status": models.PaymentPaid,
				"qr_payload":     payload,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if err := tx.Model(&models.Transaction{}).
			Where("booking_id = ? AND type = ? AND status = ?", booking.ID, models.TransactionPayment, models.TransactionPending).
			Updates(map[string]interface{}{
				"status":                   models.TransactionCompleted,
				"stripe_payment_intent_id": session.PaymentIntentID,
				"stripe_charge_id":         session.ChargeID,
			}).Error; err != nil {
			return err
		}

		return reserveTickets(tx, booking.EventID, booking.Quantity)
	})
	if err != nil || !applied {
		return false, err
	}

	booking.Status = models.BookingBooked
	booking.PaymentStatus = models.PaymentPaid
	booking.QRPayload = payload
	return true, nil
}

// markFailed cancels a pending booking and fails its pending payment row.
// It reports false when the booking had already left the pending state.
func (s *BookingService) markFailed(db *gorm.DB, booking *models.Booking, reason string) (bool, error) {
	applied := false

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingPending).
			Updates(map[string]interface{}{
				"status":         models.BookingCancelled,
				"payment_status": models.PaymentFailed,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		return tx.Model(&models.Transaction{}).
			Where("booking_id = ? AND type = ? AND status = ?", booking.ID, models.TransactionPayment, models.TransactionPending).
			Updates(map[string]interface{}{
				"status":         models.TransactionFailed,
				"failure_reason": reason,
			}).Error
	})
	if err != nil || !applied {
		return false, err
	}

	booking.Status = models.BookingCancelled
	booking.PaymentStatus = models.PaymentFailed
	return true, nil
}

// CancelBooking cancels a booking, refunding it when it was paid.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool) (*models.Booking, error) {
	db := s.db.WithContext(ctx)

	var booking models.Booking
	if err := db.Preload("Event").First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != requesterID && !isAdmin {
		return nil, ErrForbidden
	}
	if booking.Status == models.BookingCancelled {
		return nil, ErrBookingNotCancellable
	}
	if !isAdmin && booking.Event != nil && booking.Event.Date.Before(s.now()) {
		return nil, ErrBookingNotCancellable
	}

	switch booking.PaymentStatus {
	case models.PaymentPaid:
		if err := s.refund(ctx, db, &booking, true); err != nil {
			return nil, err
		}
	case models.PaymentPending:
		if err := s.abandonCheckout(ctx, db, &booking); err != nil {
			return nil, err
		}
	default:
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&booking).Update("status", models.BookingCancelled).Error; err != nil {
				return err
			}
			return releaseTickets(tx, booking.EventID, booking.Quantity)
		})
		if err != nil {
			return nil, err
		}
		booking.Status = models.BookingCancelled
	}

	return &booking, nil
}

// abandonCheckout expires the hosted checkout of a pending booking before
// cancelling it. When the customer paid in the meantime the payment is
// settled and refunded instead.
func (s *BookingService) abandonCheckout(ctx context.Context, db *gorm.DB, booking *models.Booking) error {
	if s.gateway != nil && booking.StripeSessionID != "" {
		if err := s.gateway.ExpireCheckoutSession(ctx, booking.StripeSessionID); err != nil {
			session, gerr := s.gateway.GetCheckoutSession(ctx, booking.StripeSessionID)
			if gerr != nil {
				return fmt.Errorf("expire checkout session: %w", err)
			}
			if sessionPaid(session) {
				settled, ferr := s.FinalizeSession(ctx, session)
				if ferr != nil {
					return ferr
				}
				*booking = *settled
				if booking.PaymentStatus == models.PaymentPaid {
					return s.refund(ctx, db, booking, true)
				}
				return nil
			}
			log.Warn().Err(err).Str("session_id", booking.StripeSessionID).Msg("could not expire checkout session")
		}
	}

	applied, err := s.markFailed(db, booking, "cancelled by user")
	if err != nil {
		return err
	}
	if !applied {
		return ErrBookingNotCancellable
	}
	return nil
}

// refund returns a paid booking's money and cancels it. release is false when
// the booking never held tickets, as for payments that arrive after
// cancellation.
func (s *BookingService) refund(ctx context.Context, db *gorm.DB, booking *models.Booking, release bool) error {
	if s.gateway == nil {
		return ErrPaymentsDisabled
	}

	var payment models.Transaction
	if err := db.Where("booking_id = ? AND type = ? AND status = ?", booking.ID, models.TransactionPayment, models.TransactionCompleted).
		First(&payment).Error; err != nil {
		return fmt.Errorf("load payment for booking %s: %w", booking.ID, err)
	}

	ledger := models.Transaction{
		UserID:                booking.UserID,
		BookingID:             booking.ID,
		EventID:               booking.EventID,
		Type:                  models.TransactionRefund,
		Status:                models.TransactionPending,
		Amount:                booking.TotalAmount,
		Currency:              booking.Currency,
		StripeSessionID:       payment.StripeSessionID,
		StripePaymentIntentID: payment.StripePaymentIntentID,
		StripeChargeID:        payment.StripeChargeID,
	}

	result, err := s.gateway.Refund(ctx, payment.StripePaymentIntentID, ToMinorUnits(booking.TotalAmount, booking.Currency))
	if err != nil {
		ledger.Status = models.TransactionFailed
		ledger.FailureReason = err.Error()
		if cerr := db.Create(&ledger).Error; cerr != nil {
			log.Error().Err(cerr).Str("booking_id", booking.ID.String()).Msg("failed to record refund failure")
		}
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		ledger.Status = models.TransactionCompleted
		ledger.StripeRefundID = result.ID
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}
		booking.Status = models.BookingCancelled
		booking.PaymentStatus = models.PaymentRefunded
		if err := tx.Model(booking).Updates(map[string]interface{}{
			"status":         booking.Status,
			"payment_status": booking.PaymentStatus,
		}).Error; err != nil {
			return err
		}
		if !release {
			return nil
		}
		return releaseTickets(tx, booking.EventID, booking.Quantity)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, *booking, true)
	return nil
}

func (s *BookingService) notify(ctx context.Context, b models.Booking, refund bool) {
	if s.notifier == nil {
		return
	}

	db := s.db.WithContext(ctx)
	var event models.Event
	var user models.User
	if err := db.Unscoped().First(&event, "id = ?", b.EventID).Error; err != nil {
		log.Warn().Err(err).Str("booking_id", b.ID.String()).Msg("notification: load event")
	}
	if err := db.Unscoped().First(&user, "id = ?", b.UserID).Error; err != nil {
		log.Warn().Err(err).Str("booking_id", b.ID.String()).Msg("notification: load user")
	}

	n := BookingNotification{
		BookingID: b.ID.String(),
		EventName: event.Name.In("en"),
		EventDate: event.Date,
		Quantity:  b.Quantity,
		Amount:    b.TotalAmount,
		Currency:  b.Currency,
		UserName:  user.FullName(),
		UserEmail: user.Email,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var err error
		if refund {
			err = s.notifier.NotifyRefund(ctx, n)
		} else {
			err = s.notifier.NotifyBookingPaid(ctx, n)
		}
		if err != nil {
			log.Warn().Err(err).Str("booking_id", n.BookingID).Msg("booking notification failed")
		}
	}()
}

// reserveTickets adds sold tickets and flips the event to Sold Out at capacity.
func reserveTickets(tx *gorm.DB, eventID uuid.UUID, quantity int) error {
	if err := tx.Model(&models.Event{}).Where("id = ?", eventID).
		Update("tickets_sold", gorm.Expr("tickets_sold + ?", quantity)).Error; err != nil {
		return err
	}
	return tx.Model(&models.Event{}).
		Where("id = ? AND status = ? AND tickets_sold >= capacity", eventID, models.EventStatusActive).
		Update("status", models.EventStatusSoldOut).Error
}

// releaseTickets returns tickets to sale and reopens a sold-out event.
func releaseTickets(tx *gorm.DB, eventID uuid.UUID, quantity int) error {
	if err := tx.Model(&models.Event{}).Where("id = ?", eventID).
		Update("tickets_sold", gorm.Expr("CASE WHEN tickets_sold >= ? THEN tickets_sold - ? ELSE 0 END", quantity, quantity)).Error; err != nil {
		return err
	}
	return tx.Model(&models.Event{}).
		Where("id = ? AND status = ? AND tickets_sold < capacity", eventID, models.EventStatusSoldOut).
		Update("status", models.EventStatusActive).Error
}
