package services

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidPhone          = errors.New("invalid phone number")
	ErrPhoneTaken            = errors.New("phone number already in use")
	ErrOTPNotFound           = errors.New("otp not found")
	ErrOTPExpired            = errors.New("otp expired")
	ErrOTPMismatch           = errors.New("otp mismatch")
	ErrOTPAttempts           = errors.New("too many wrong otp attempts")
	ErrOTPDelivery           = errors.New("otp delivery failed")
	ErrEventNotBookable      = errors.New("event is not open for booking")
	ErrNotEnoughTickets      = errors.New("not enough tickets available")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrPaymentsDisabled      = errors.New("payments are not configured")
	ErrBookingNotCancellable = errors.New("booking cannot be cancelled")
)

// CooldownError reports a phone change attempted inside the cool-down window.
type CooldownError struct {
	Hours int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("phone change allowed in %d hours", e.Hours)
}
