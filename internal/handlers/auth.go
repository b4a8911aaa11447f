package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/config"
	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/services"
	"github.com/example/tickethub/internal/utils"
)

const minPasswordLength = 8

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	twoFactor *services.TwoFactorService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, twoFactor *services.TwoFactorService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, twoFactor: twoFactor}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Language  string `json:"language"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	req.Email = utils.NormalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	if req.FirstName == "" {
		return fail(c, fiber.StatusBadRequest, utils.MsgNameRequired)
	}
	if !utils.IsEmail(req.Email) {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidEmail)
	}
	if len(req.Password) < minPasswordLength {
		return fail(c, fiber.StatusBadRequest, utils.MsgWeakPassword)
	}

	role := req.Role
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser, models.RoleOrganizer:
	default:
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidRole)
	}

	if req.Phone != "" && !utils.IsEgyptianMobile(req.Phone) {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidPhone)
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fail(c, fiber.StatusConflict, utils.MsgEmailTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if req.Phone != "" {
		var count int64
		if err := h.db.Model(&models.User{}).Where("phone = ?", req.Phone).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fail(c, fiber.StatusConflict, utils.MsgPhoneTaken)
		}
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	language := "en"
	if strings.HasPrefix(req.Language, "ar") {
		language = "ar"
	}

	user := models.User{
		FirstName:       req.FirstName,
		LastName:        strings.TrimSpace(req.LastName),
		Email:           req.Email,
		Phone:           req.Phone,
		PasswordHash:    passwordHash,
		Role:            role,
		Language:        language,
		TwoFactorMethod: models.TwoFactorEmail,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user. Accounts with 2FA enabled get a code
// instead of a token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	var user models.User
	if err := h.db.Where("email = ?", utils.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusUnauthorized, utils.MsgInvalidCredentials)
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fail(c, fiber.StatusUnauthorized, utils.MsgInvalidCredentials)
	}

	if user.IsBlocked {
		return fail(c, fiber.StatusForbidden, utils.MsgAccountBlocked)
	}

	if user.TwoFactorEnabled && h.twoFactor != nil {
		channel, err := h.twoFactor.Challenge(c.UserContext(), user)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{
			"success":             true,
			"two_factor_required": true,
			"user_id":             user.ID,
			"channel":             channel,
		})
	}

	return h.issueToken(c, user)
}

type verifyTwoFactorRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

// VerifyTwoFactor exchanges a login code for an access token.
func (h *AuthHandler) VerifyTwoFactor(c *fiber.Ctx) error {
	var req verifyTwoFactorRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidID)
	}
	if h.twoFactor == nil {
		return fail(c, fiber.StatusServiceUnavailable, utils.MsgOTPDeliveryFailed)
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, utils.MsgUserNotFound)
		}
		return err
	}
	if user.IsBlocked {
		return fail(c, fiber.StatusForbidden, utils.MsgAccountBlocked)
	}

	if err := h.twoFactor.Verify(c.UserContext(), user, strings.TrimSpace(req.Code)); err != nil {
		return serviceError(c, err)
	}

	return h.issueToken(c, user)
}

func (h *AuthHandler) issueToken(c *fiber.Ctx, user models.User) error {
	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword replaces the caller's password after checking the current one.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	if !utils.CheckPassword(user.PasswordHash, req.OldPassword) {
		return fail(c, fiber.StatusBadRequest, utils.MsgWrongPassword)
	}
	if len(req.NewPassword) < minPasswordLength {
		return fail(c, fiber.StatusBadRequest, utils.MsgWeakPassword)
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", hash).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": utils.MsgPasswordChanged.In(lang(c))})
}
