package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestGenerateOTP(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	code, err := GenerateOTP("secret", "user-01012345678", at)
	if err != nil {
		t.Fatalf("GenerateOTP: %v", err)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(code) {
		t.Fatalf("code %q is not 6 digits", code)
	}

	same, _ := GenerateOTP("secret", "user-01012345678", at.Add(2*time.Minute))
	if same != code {
		t.Errorf("code changed inside one period: %q vs %q", code, same)
	}

	other, _ := GenerateOTP("secret", "user-01112345678", at)
	next, _ := GenerateOTP("secret", "user-01012345678", at.Add(OTPPeriodSeconds*time.Second))
	if other == code && next == code {
		t.Errorf("code does not depend on key or time window")
	}
}

func TestCooldownHoursRemaining(t *testing.T) {
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"just changed", 0, 48},
		{"one hour", time.Hour, 47},
		{"one hour and a minute", time.Hour + time.Minute, 47},
		{"47 hours", 47 * time.Hour, 1},
		{"47.5 hours", 47*time.Hour + 30*time.Minute, 1},
		{"48 hours", 48 * time.Hour, 0},
		{"long ago", 30 * 24 * time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-tt.elapsed)
			if got := CooldownHoursRemaining(&last, now); got != tt.want {
				t.Errorf("CooldownHoursRemaining(%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}

	if got := CooldownHoursRemaining(nil, now); got != 0 {
		t.Errorf("never changed: got %d, want 0", got)
	}
}

func TestIsNewOTPDay(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	now := time.Date(2024, 5, 3, 0, 30, 0, 0, loc)

	tests := []struct {
		name string
		last *time.Time
		want bool
	}{
		{"never sent", nil, true},
		{"earlier today", ptrTime(time.Date(2024, 5, 3, 0, 5, 0, 0, loc)), false},
		{"just before midnight", ptrTime(time.Date(2024, 5, 2, 23, 59, 0, 0, loc)), true},
		// 22:10 UTC on May 2nd is already May 3rd in EET.
		{"same local day in another zone", ptrTime(time.Date(2024, 5, 2, 22, 10, 0, 0, time.UTC)), false},
		{"last month", ptrTime(time.Date(2024, 4, 3, 0, 30, 0, 0, loc)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNewOTPDay(tt.last, now); got != tt.want {
				t.Errorf("IsNewOTPDay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeliveryChannel(t *testing.T) {
	for sent, want := range []string{ChannelWhatsApp, ChannelWhatsApp, ChannelWhatsApp, ChannelEmail, ChannelEmail} {
		if got := DeliveryChannel(sent); got != want {
			t.Errorf("DeliveryChannel(%d) = %q, want %q", sent, got, want)
		}
	}
}

func TestMemoryOTPStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOTPStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrOTPNotFound", err)
	}

	entry := OTPEntry{Code: "123456", ExpiresAt: time.Now().Add(OTPValidity)}
	if err := store.Save(ctx, "k", entry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil || got.Code != "123456" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	for want := 1; want <= 2; want++ {
		if n, err := store.RecordFailure(ctx, "k"); err != nil || n != want {
			t.Fatalf("RecordFailure = %d, %v, want %d", n, err, want)
		}
	}
	if got, _ := store.Get(ctx, "k"); got.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", got.Attempts)
	}
	if err := store.Save(ctx, "k", entry); err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	if got, _ := store.Get(ctx, "k"); got.Attempts != 0 {
		t.Errorf("a fresh code kept %d attempts", got.Attempts)
	}
	if _, err := store.RecordFailure(ctx, "missing"); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("RecordFailure missing: err = %v", err)
	}

	removed, err := store.Delete(ctx, "k")
	if err != nil || !removed {
		t.Fatalf("first Delete = %v, %v", removed, err)
	}
	removed, _ = store.Delete(ctx, "k")
	if removed {
		t.Fatalf("second Delete removed an entry")
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
