package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/services"
	"github.com/example/tickethub/internal/utils"
)

// PhoneHandler serves the phone verification endpoints.
type PhoneHandler struct {
	db  *gorm.DB
	otp *services.PhoneOTPService
}

// NewPhoneHandler constructs a PhoneHandler.
func NewPhoneHandler(db *gorm.DB, otp *services.PhoneOTPService) *PhoneHandler {
	return &PhoneHandler{db: db, otp: otp}
}

type sendPhoneOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTP issues a verification code for a new phone number.
func (h *PhoneHandler) SendOTP(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	var req sendPhoneOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	dispatch, err := h.otp.Send(c.UserContext(), user.ID, strings.TrimSpace(req.Phone))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": utils.MsgOTPSent.In(lang(c)),
		"data":    dispatch,
	})
}

type verifyPhoneOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTP confirms the code and stores the new phone number.
func (h *PhoneHandler) VerifyOTP(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c, h.db)
	if err != nil {
		return err
	}

	var req verifyPhoneOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	updated, err := h.otp.Verify(c.UserContext(), user.ID, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Code))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": utils.MsgPhoneVerified.In(lang(c)),
		"data":    updated,
	})
}
