package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// TelegramService sends admin notifications to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	httpClient  *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     "https://api.telegram.org",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		log.Debug().Msg("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		log.Debug().Msg("telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// BookingNotification contains the data shown to admins for a paid booking.
type BookingNotification struct {
	BookingID string
	EventName string
	EventDate time.Time
	Quantity  int
	Amount    float64
	Currency  string
	UserName  string
	UserEmail string
}

// FormatPrice formats price with currency and thousand separators.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "EGP"
	}
	intAmount := int64(amount)
	str := fmt.Sprintf("%d", intAmount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + " " + strings.ToUpper(currency)
}

// NotifyBookingPaid tells the admin chat that a booking payment succeeded.
func (s *TelegramService) NotifyBookingPaid(ctx context.Context, n BookingNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>🎟 NEW PAID BOOKING</b>
<b>Event:</b> %s
<b>Date:</b> %s
<b>Customer:</b> %s (%s)
<b>Tickets:</b> %d
<b>Amount:</b> %s
<b>Booking:</b> <code>%s</code>`,
		html.EscapeString(n.EventName),
		n.EventDate.Format("2006-01-02 15:04"),
		html.EscapeString(n.UserName),
		html.EscapeString(n.UserEmail),
		n.Quantity,
		FormatPrice(n.Amount, n.Currency),
		n.BookingID,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}

// NotifyRefund tells the admin chat that a booking was refunded.
func (s *TelegramService) NotifyRefund(ctx context.Context, n BookingNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>↩️ BOOKING REFUNDED</b>
<b>Event:</b> %s
<b>Customer:</b> %s
<b>Amount:</b> %s
<b>Booking:</b> <code>%s</code>`,
		html.EscapeString(n.EventName),
		html.EscapeString(n.UserEmail),
		FormatPrice(n.Amount, n.Currency),
		n.BookingID,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}
