package services

import (
	"context"
	"fmt"
	"time"

	"github.com/example/tickethub/internal/models"
)

// TwoFactorService sends and checks login codes for users with 2FA enabled.
type TwoFactorService struct {
	store    OTPStore
	whatsapp WhatsAppSender
	email    EmailSender
	secret   string
	now      func() time.Time
}

func NewTwoFactorService(store OTPStore, whatsapp WhatsAppSender, email EmailSender, secret string) *TwoFactorService {
	return &TwoFactorService{
		store:    store,
		whatsapp: whatsapp,
		email:    email,
		secret:   secret,
		now:      time.Now,
	}
}

func twoFactorKey(user models.User) string {
	return "2fa-" + user.ID.String()
}

// Challenge sends a login code by the user's configured method and returns
// the channel used.
func (s *TwoFactorService) Challenge(ctx context.Context, user models.User) (string, error) {
	now := s.now()
	key := twoFactorKey(user)

	code, err := GenerateOTP(s.secret, key, now)
	if err != nil {
		return "", fmt.Errorf("generate 2fa code: %w", err)
	}
	if err := s.store.Save(ctx, key, OTPEntry{Code: code, ExpiresAt: now.Add(OTPValidity)}); err != nil {
		return "", err
	}

	minutes := int(OTPValidity / time.Minute)
	if user.TwoFactorMethod == models.TwoFactorPhone && user.PhoneVerified && s.whatsapp != nil {
		body := fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, minutes)
		if err := s.whatsapp.SendWhatsApp(ctx, user.Phone, body); err == nil {
			return ChannelWhatsApp, nil
		}
	}

	if s.email == nil {
		return "", ErrOTPDelivery
	}
	if err := s.email.SendEmail(ctx, user.Email, "Login verification code", otpEmailBody(code, minutes)); err != nil {
		return "", ErrOTPDelivery
	}
	return ChannelEmail, nil
}

// Verify consumes the pending login code for user.
func (s *TwoFactorService) Verify(ctx context.Context, user models.User, code string) error {
	return consumeOTP(ctx, s.store, twoFactorKey(user), code, s.now())
}
