package services

import "context"

// EmailSender delivers HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// WhatsAppSender delivers WhatsApp text messages to local phone numbers.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, phone, body string) error
}
