package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/config"
	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/services"
	"github.com/example/tickethub/internal/utils"
)

const resetCodeValidity = 10 * time.Minute

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer services.EmailSender
}

// NewPasswordResetHandler constructs a PasswordResetHandler. mailer may be nil.
func NewPasswordResetHandler(db *gorm.DB, cfg *config.Config, mailer services.EmailSender) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, cfg: cfg, mailer: mailer}
}

type forgetCodeRequest struct {
	Email string `json:"email"`
}

// ForgetCode emails a 6-digit reset code to the account owner.
func (h *PasswordResetHandler) ForgetCode(c *fiber.Ctx) error {
	var req forgetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	email := utils.NormalizeEmail(req.Email)
	if !utils.IsEmail(email) {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidEmail)
	}

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, utils.MsgUserNotFound)
		}
		return err
	}

	if h.mailer == nil && !h.cfg.IsDevelopment() {
		return fail(c, fiber.StatusServiceUnavailable, utils.MsgOTPDeliveryFailed)
	}

	code, err := generateResetCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}

	codeHash, err := utils.HashPassword(code)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash code")
	}

	// Expire any previous unused codes for this email.
	now := time.Now()
	if err := h.db.Model(&models.PasswordResetToken{}).
		Where("email = ? AND used_at IS NULL AND expires_at > ?", email, now).
		Update("expires_at", now).Error; err != nil {
		return err
	}

	record := models.PasswordResetToken{
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: now.Add(resetCodeValidity),
	}
	if err := h.db.Create(&record).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create reset code")
	}

	resp := fiber.Map{
		"success": true,
		"message": utils.MsgOTPSent.In(lang(c)),
	}

	if h.mailer != nil {
		body := fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>. It expires in %d minutes.</p>"+
			"<p dir=\"rtl\">رمز إعادة تعيين كلمة المرور: <strong>%s</strong></p>",
			code, int(resetCodeValidity/time.Minute), code)
		if err := h.mailer.SendEmail(c.UserContext(), email, "Password reset code", body); err != nil {
			log.Error().Err(err).Str("email", email).Msg("failed to send reset code")
			return fail(c, fiber.StatusBadGateway, utils.MsgOTPDeliveryFailed)
		}
	} else {
		// No SMTP in development: hand the code back so the flow can be exercised.
		resp["code"] = code
	}

	return c.JSON(resp)
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyCode checks the emailed code and marks it verified.
func (h *PasswordResetHandler) VerifyCode(c *fiber.Ctx) error {
	var req verifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	record, err := h.latestToken(c, utils.NormalizeEmail(req.Email))
	if err != nil {
		return err
	}

	if record.ExpiresAt.Before(time.Now()) {
		return fail(c, fiber.StatusBadRequest, utils.MsgOTPExpired)
	}

	if !utils.CheckPassword(record.CodeHash, strings.TrimSpace(req.Code)) {
		attempts := record.Attempts + 1
		updates := map[string]interface{}{"attempts": gorm.Expr("attempts + 1")}
		if attempts >= services.MaxOTPAttempts {
			updates["used_at"] = time.Now()
		}
		if err := h.db.Model(record).Updates(updates).Error; err != nil {
			return err
		}
		if attempts >= services.MaxOTPAttempts {
			return fail(c, fiber.StatusTooManyRequests, utils.MsgOTPAttempts)
		}
		return fail(c, fiber.StatusBadRequest, utils.MsgOTPInvalid)
	}

	if err := h.db.Model(record).Update("verified", true).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
	})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// ResetPassword updates the user's password after successful code verification.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	if len(req.NewPassword) < minPasswordLength {
		return fail(c, fiber.StatusBadRequest, utils.MsgWeakPassword)
	}

	email := utils.NormalizeEmail(req.Email)
	record, err := h.latestToken(c, email)
	if err != nil {
		return err
	}

	if record.ExpiresAt.Before(time.Now()) {
		return fail(c, fiber.StatusBadRequest, utils.MsgOTPExpired)
	}
	if !record.Verified {
		return fail(c, fiber.StatusBadRequest, utils.MsgResetNotVerified)
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("email = ?", email).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Model(record).Update("used_at", time.Now()).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": utils.MsgPasswordChanged.In(lang(c)),
	})
}

func (h *PasswordResetHandler) latestToken(c *fiber.Ctx, email string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	err := h.db.Where("email = ? AND used_at IS NULL", email).
		Order("created_at desc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(c, fiber.StatusNotFound, utils.MsgOTPNotFound)
		}
		return nil, err
	}
	return &record, nil
}

func generateResetCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
