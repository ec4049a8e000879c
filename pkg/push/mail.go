package push

import (
	"context"
	"fmt"
	"html"
)

// Mailer is satisfied by internal/email.Service
type Mailer interface {
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// MailSender delivers the message as an email
type MailSender struct {
	mailer Mailer
}

func NewMailSender(mailer Mailer) *MailSender {
	return &MailSender{mailer: mailer}
}

func (s *MailSender) Send(ctx context.Context, to Recipient, msg Message) error {
	if to.Email == "" {
		return ErrNoChannel
	}
	content := fmt.Sprintf("<p>%s</p>", html.EscapeString(msg.Body))
	if err := s.mailer.SendCustom(ctx, to.Email, msg.Title, content); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
