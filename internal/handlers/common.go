package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/middleware"
	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/services"
	"github.com/example/tickethub/internal/utils"
)

// fail builds a fiber error with the message translated for the request.
func fail(c *fiber.Ctx, status int, msg utils.Message) error {
	return fiber.NewError(status, msg.In(middleware.Lang(c)))
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fail(c, fiber.StatusBadRequest, utils.MsgInvalidID)
	}
	return id, nil
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, fail(c, fiber.StatusUnauthorized, utils.MsgUnauthorized)
	}
	return id, nil
}

// loadCurrentUser fetches the caller's account and rejects blocked users.
func loadCurrentUser(c *fiber.Ctx, db *gorm.DB) (*models.User, error) {
	id, err := currentUserID(c)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.WithContext(c.UserContext()).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(c, fiber.StatusUnauthorized, utils.MsgUserNotFound)
		}
		return nil, err
	}
	if user.IsBlocked {
		return nil, fail(c, fiber.StatusForbidden, utils.MsgAccountBlocked)
	}
	return &user, nil
}

func isAdminRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleSuperAdmin
}

// serviceError maps service sentinel errors to HTTP errors. Unknown errors
// pass through and end up as 500.
func serviceError(c *fiber.Ctx, err error) error {
	var cooldown *services.CooldownError
	switch {
	case errors.As(err, &cooldown):
		return fiber.NewError(fiber.StatusTooManyRequests,
			fmt.Sprintf(utils.MsgPhoneCooldown.In(middleware.Lang(c)), cooldown.Hours))
	case errors.Is(err, services.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, utils.MsgUserNotFound)
	case errors.Is(err, services.ErrEventNotFound):
		return fail(c, fiber.StatusNotFound, utils.MsgEventNotFound)
	case errors.Is(err, services.ErrBookingNotFound):
		return fail(c, fiber.StatusNotFound, utils.MsgBookingNotFound)
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	case errors.Is(err, services.ErrInvalidPhone):
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidPhone)
	case errors.Is(err, services.ErrPhoneTaken):
		return fail(c, fiber.StatusConflict, utils.MsgPhoneTaken)
	case errors.Is(err, services.ErrOTPNotFound):
		return fail(c, fiber.StatusNotFound, utils.MsgOTPNotFound)
	case errors.Is(err, services.ErrOTPExpired):
		return fail(c, fiber.StatusBadRequest, utils.MsgOTPExpired)
	case errors.Is(err, services.ErrOTPMismatch):
		return fail(c, fiber.StatusBadRequest, utils.MsgOTPInvalid)
	case errors.Is(err, services.ErrOTPAttempts):
		return fail(c, fiber.StatusTooManyRequests, utils.MsgOTPAttempts)
	case errors.Is(err, services.ErrOTPDelivery):
		return fail(c, fiber.StatusBadGateway, utils.MsgOTPDeliveryFailed)
	case errors.Is(err, services.ErrEventNotBookable):
		return fail(c, fiber.StatusBadRequest, utils.MsgEventNotBookable)
	case errors.Is(err, services.ErrNotEnoughTickets):
		return fail(c, fiber.StatusConflict, utils.MsgNotEnoughTickets)
	case errors.Is(err, services.ErrInvalidQuantity):
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidQuantity)
	case errors.Is(err, services.ErrPaymentsDisabled):
		return fail(c, fiber.StatusServiceUnavailable, utils.MsgPaymentsDisabled)
	case errors.Is(err, services.ErrBookingNotCancellable):
		return fail(c, fiber.StatusBadRequest, utils.MsgBookingNotCancel)
	}
	return err
}

// activeBookingCount counts bookings that still hold tickets, filtered by column.
func activeBookingCount(db *gorm.DB, column string, id uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.Booking{}).
		Where(column+" = ? AND status IN ?", id, []string{models.BookingBooked, models.BookingPending}).
		Count(&count).Error
	return count, err
}

func lang(c *fiber.Ctx) string {
	return middleware.Lang(c)
}
