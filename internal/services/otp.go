package services

import (
	"encoding/base32"
	"math"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTP timing rules.
const (
	OTPValidity         = 5 * time.Minute
	OTPPeriodSeconds    = 300
	PhoneChangeCooldown = 48 * time.Hour
	WhatsAppDailySends  = 3
)

// Delivery channels.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
)

// GenerateOTP derives a 6-digit time-windowed code from the shared secret
// and a per-recipient key.
func GenerateOTP(secret, key string, at time.Time) (string, error) {
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(secret + ":" + key))
	return totp.GenerateCodeCustom(encoded, at, totp.ValidateOpts{
		Period:    OTPPeriodSeconds,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// CooldownHoursRemaining returns the whole hours (rounded up) left before the
// phone number may change again. Zero means the change is allowed.
func CooldownHoursRemaining(lastChange *time.Time, now time.Time) int {
	if lastChange == nil {
		return 0
	}
	remaining := PhoneChangeCooldown - now.Sub(*lastChange)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours()))
}

// IsNewOTPDay reports whether now falls on a different calendar day than the
// last send, using now's location.
func IsNewOTPDay(lastSend *time.Time, now time.Time) bool {
	if lastSend == nil {
		return true
	}
	ly, lm, ld := lastSend.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return ly != ny || lm != nm || ld != nd
}

// DeliveryChannel picks the channel for the next send given how many codes
// were already sent today.
func DeliveryChannel(sentToday int) string {
	if sentToday < WhatsAppDailySends {
		return ChannelWhatsApp
	}
	return ChannelEmail
}
