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
	"github.com/example/tickethub/internal/utils"
)

// PhoneOTPService issues and verifies codes for changing a user's phone.
type PhoneOTPService struct {
	db       *gorm.DB
	store    OTPStore
	whatsapp WhatsAppSender
	email    EmailSender
	secret   string
	now      func() time.Time
}

// NewPhoneOTPService constructs a PhoneOTPService. whatsapp and email may be nil
// when the integration is not configured.
func NewPhoneOTPService(db *gorm.DB, store OTPStore, whatsapp WhatsAppSender, email EmailSender, secret string) *PhoneOTPService {
	return &PhoneOTPService{
		db:       db,
		store:    store,
		whatsapp: whatsapp,
		email:    email,
		secret:   secret,
		now:      time.Now,
	}
}

// OTPDispatch describes a code that was sent.
type OTPDispatch struct {
	Channel   string    `json:"channel"`
	ExpiresAt time.Time `json:"expires_at"`
	SentToday int       `json:"sent_today"`
}

func phoneOTPKey(userID uuid.UUID, phone string) string {
	return userID.String() + "-" + phone
}

// Send validates the request, stores a fresh code and delivers it.
func (s *PhoneOTPService) Send(ctx context.Context, userID uuid.UUID, phone string) (*OTPDispatch, error) {
	if !utils.IsEgyptianMobile(phone) {
		return nil, ErrInvalidPhone
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.ensurePhoneFree(db, userID, phone); err != nil {
		return nil, err
	}

	now := s.now()
	if hours := CooldownHoursRemaining(user.LastPhoneChangeDate, now); hours > 0 {
		return nil, &CooldownError{Hours: hours}
	}

	if IsNewOTPDay(user.LastOTPDate, now) {
		user.DailyOTPCount = 0
	}

	key := phoneOTPKey(userID, phone)
	code, err := GenerateOTP(s.secret, key, now)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	entry := OTPEntry{Code: code, ExpiresAt: now.Add(OTPValidity)}
	if err := s.store.Save(ctx, key, entry); err != nil {
		return nil, err
	}

	channel, err := s.deliver(ctx, DeliveryChannel(user.DailyOTPCount), user, phone, code)
	if err != nil {
		_, _ = s.store.Delete(ctx, key)
		return nil, err
	}

	user.DailyOTPCount++
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"daily_otp_count": user.DailyOTPCount,
		"last_otp_date":   now,
	}).Error; err != nil {
		return nil, err
	}

	return &OTPDispatch{
		Channel:   channel,
		ExpiresAt: entry.ExpiresAt,
		SentToday: user.DailyOTPCount,
	}, nil
}

// Verify checks the submitted code and, on success, moves the user to phone.
// A code can be used once.
func (s *PhoneOTPService) Verify(ctx context.Context, userID uuid.UUID, phone, code string) (*models.User, error) {
	if !utils.IsEgyptianMobile(phone) {
		return nil, ErrInvalidPhone
	}

	now := s.now()
	if err := consumeOTP(ctx, s.store, phoneOTPKey(userID, phone), code, now); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.ensurePhoneFree(db, userID, phone); err != nil {
		return nil, err
	}

	res := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"phone":                  phone,
		"phone_verified":         true,
		"last_phone_change_date": now,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PhoneOTPService) ensurePhoneFree(db *gorm.DB, userID uuid.UUID, phone string) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("phone = ? AND id <> ?", phone, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPhoneTaken
	}
	return nil
}

func (s *PhoneOTPService) deliver(ctx context.Context, channel string, user models.User, phone, code string) (string, error) {
	minutes := int(OTPValidity / time.Minute)

	if channel == ChannelWhatsApp && s.whatsapp != nil {
		body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.\nرمز التحقق: %s", code, minutes, code)
		err := s.whatsapp.SendWhatsApp(ctx, phone, body)
		if err == nil {
			return ChannelWhatsApp, nil
		}
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("whatsapp otp failed, falling back to email")
	}

	if s.email == nil || user.Email == "" {
		return "", ErrOTPDelivery
	}
	if err := s.email.SendEmail(ctx, user.Email, "Phone verification code", otpEmailBody(code, minutes)); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("email otp failed")
		return "", ErrOTPDelivery
	}
	return ChannelEmail, nil
}
