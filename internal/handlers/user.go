package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/utils"
)

// UserHandler manages profile, wishlist, follows and account settings.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Language  *string `json:"language"`
}

// UpdateProfile updates user profile fields. The phone number changes only
// through the OTP flow.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if name == "" {
			return fail(c, fiber.StatusBadRequest, utils.MsgNameRequired)
		}
		updates["first_name"] = name
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Language != nil {
		switch *req.Language {
		case "en", "ar":
			updates["language"] = *req.Language
		default:
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
		}
	}
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		if !utils.IsEmail(email) {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidEmail)
		}
		if email != user.Email {
			var count int64
			if err := h.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fail(c, fiber.StatusConflict, utils.MsgEmailTaken)
			}
			updates["email"] = email
		}
	}
	if len(updates) == 0 {
		return fail(c, fiber.StatusBadRequest, utils.MsgNoFieldsToUpdate)
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return err
	}

	var updated models.User
	if err := h.db.First(&updated, "id = ?", user.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": updated})
}

type twoFactorRequest struct {
	Enabled bool   `json:"enabled"`
	Method  string `json:"method"`
}

// UpdateTwoFactor turns login codes on or off and picks their channel.
func (h *UserHandler) UpdateTwoFactor(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	var req twoFactorRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	method := req.Method
	switch method {
	case "":
		method = models.TwoFactorEmail
	case models.TwoFactorEmail:
	case models.TwoFactorPhone:
		if req.Enabled && (!user.PhoneVerified || user.Phone == "") {
			return fail(c, fiber.StatusBadRequest, utils.MsgTwoFactorPhone)
		}
	default:
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"two_factor_enabled": req.Enabled,
		"two_factor_method":  method,
	}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"two_factor_enabled": req.Enabled,
			"two_factor_method":  method,
		},
	})
}

// ToggleWishlist adds the event to the wishlist or removes it when present.
func (h *UserHandler) ToggleWishlist(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}
	eventID, err := paramUUID(c, "eventId")
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

	var count int64
	if err := h.db.Table("user_wishlist").
		Where("user_id = ? AND event_id = ?", user.ID, event.ID).
		Count(&count).Error; err != nil {
		return err
	}

	association := h.db.Model(user).Association("Wishlist")
	inWishlist := count == 0
	if inWishlist {
		err = association.Append(&event)
	} else {
		err = association.Delete(&event)
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"event_id": event.ID, "in_wishlist": inWishlist},
	})
}

// ListWishlist returns the caller's wishlisted events.
func (h *UserHandler) ListWishlist(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	var events []models.Event
	if err := h.db.Preload("Images").
		Joins("JOIN user_wishlist ON user_wishlist.event_id = events.id").
		Where("user_wishlist.user_id = ?", user.ID).
		Order("events.date asc").
		Find(&events).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": events})
}

// ToggleFollow follows an organizer or unfollows when already following.
func (h *UserHandler) ToggleFollow(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}
	organizerID, err := paramUUID(c, "organizerId")
	if err != nil {
		return err
	}
	if organizerID == user.ID {
		return fail(c, fiber.StatusBadRequest, utils.MsgCannotFollowSelf)
	}

	var organizer models.User
	if err := h.db.First(&organizer, "id = ?", organizerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, utils.MsgUserNotFound)
		}
		return err
	}
	if organizer.Role != models.RoleOrganizer {
		return fail(c, fiber.StatusBadRequest, utils.MsgNotOrganizer)
	}

	var count int64
	if err := h.db.Table("user_following").
		Where("follower_id = ? AND organizer_id = ?", user.ID, organizer.ID).
		Count(&count).Error; err != nil {
		return err
	}

	association := h.db.Model(user).Association("Following")
	following := count == 0
	if following {
		err = association.Append(&organizer)
	} else {
		err = association.Delete(&organizer)
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"organizer_id": organizer.ID, "following": following},
	})
}

// ListFollowing returns the organizers the caller follows.
func (h *UserHandler) ListFollowing(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	var organizers []models.User
	if err := h.db.Model(user).Association("Following").Find(&organizers); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": organizers})
}

// DeleteAccount removes the caller's account when it holds no active bookings.
func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	if err := deleteUser(c, h.db, user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// deleteUser soft deletes a user along with its events and join rows. Users
// holding or selling active bookings are kept.
func deleteUser(c *fiber.Ctx, db *gorm.DB, user *models.User) error {
	active, err := activeBookingCount(db, "user_id", user.ID)
	if err != nil {
		return err
	}
	if active == 0 {
		err = db.Model(&models.Booking{}).
			Where("status IN ? AND event_id IN (?)",
				[]string{models.BookingBooked, models.BookingPending},
				db.Model(&models.Event{}).Select("id").Where("created_by_id = ?", user.ID)).
			Count(&active).Error
		if err != nil {
			return err
		}
	}
	if active > 0 {
		return fail(c, fiber.StatusConflict, utils.MsgActiveBookings)
	}

	// Accounts are soft deleted: bookings, ledger rows and events keep
	// pointing at them. The email is released so it can register again.
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_wishlist WHERE user_id = ?", user.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_following WHERE follower_id = ? OR organizer_id = ?", user.ID, user.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("created_by_id = ?", user.ID).Delete(&models.Event{}).Error; err != nil {
			return err
		}
		if err := tx.Model(user).Updates(map[string]interface{}{
			"email":         "deleted+" + user.ID.String() + "@deleted.invalid",
			"phone":         "",
			"password_hash": "",
		}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
}
