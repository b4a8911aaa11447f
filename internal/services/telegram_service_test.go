package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTelegramNotifyBookingPaid(t *testing.T) {
	var got telegramMessage
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewTelegramService("bot-token", "-100200")
	svc.baseURL = server.URL

	err := svc.NotifyBookingPaid(context.Background(), BookingNotification{
		BookingID: "b-1",
		EventName: "Jazz <Live>",
		EventDate: time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC),
		Quantity:  2,
		Amount:    1500,
		Currency:  "egp",
		UserName:  "Mona",
		UserEmail: "mona@example.com",
	})
	if err != nil {
		t.Fatalf("NotifyBookingPaid: %v", err)
	}

	if path != "/botbot-token/sendMessage" {
		t.Errorf("path = %q", path)
	}
	if got.ChatID != "-100200" || got.ParseMode != "HTML" {
		t.Errorf("message = %+v", got)
	}
	for _, want := range []string{"Jazz &lt;Live&gt;", "1,500 EGP", "b-1", "2024-06-01 20:00"} {
		if !strings.Contains(got.Text, want) {
			t.Errorf("text missing %q:\n%s", want, got.Text)
		}
	}
}

func TestTelegramErrorsAndUnconfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	svc := NewTelegramService("bot-token", "-1")
	svc.baseURL = server.URL
	if err := svc.NotifyRefund(context.Background(), BookingNotification{BookingID: "b-2"}); err == nil {
		t.Error("expected error for non-200 response")
	}

	quiet := NewTelegramService("", "")
	if err := quiet.NotifyBookingPaid(context.Background(), BookingNotification{}); err != nil {
		t.Errorf("unconfigured notifier: %v", err)
	}
}
