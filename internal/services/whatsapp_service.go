package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// WhatsAppService sends WhatsApp messages through Twilio.
type WhatsAppService struct {
	client *twilio.RestClient
	from   string
}

// NewWhatsAppService creates a Twilio-backed WhatsAppService.
func NewWhatsAppService(accountSID, authToken, from string) *WhatsAppService {
	return &WhatsAppService{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: strings.TrimPrefix(from, "whatsapp:"),
	}
}

// SendWhatsApp delivers body to a local Egyptian mobile number.
func (s *WhatsAppService) SendWhatsApp(ctx context.Context, phone, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + InternationalPhone(phone))
	params.SetFrom("whatsapp:" + s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}

	if resp.Sid != nil {
		log.Debug().Str("sid", *resp.Sid).Msg("whatsapp message queued")
	}
	return nil
}

// InternationalPhone converts a local Egyptian mobile (01xxxxxxxxx) into E.164.
func InternationalPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	if strings.HasPrefix(phone, "0") {
		return "+2" + phone
	}
	return "+20" + phone
}
