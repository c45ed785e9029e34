package notification

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/sapliy/emergency-dispatch/internal/config"
)

// emailSender is the part of the Resend client used for alerts.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// AlertMailer sends operator alerts via Resend.
type AlertMailer struct {
	emails  emailSender
	service string
	from    string
	to      string
}

// NewAlertMailer returns nil when alerts are not configured; callers treat a nil
// mailer as disabled.
func NewAlertMailer(cfg config.Alerts, service string) *AlertMailer {
	if cfg.ResendAPIKey == "" || cfg.To == "" {
		return nil
	}
	client := resend.NewClient(cfg.ResendAPIKey)
	return &AlertMailer{
		emails:  client.Emails,
		service: service,
		from:    cfg.From,
		to:      cfg.To,
	}
}

// Alert sends one operator e-mail.
func (m *AlertMailer) Alert(ctx context.Context, subject, body string) error {
	html, err := RenderAlertEmail(m.service, subject, body)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: fmt.Sprintf("[%s] %s", m.service, subject),
		Html:    html,
		Text:    body,
	}

	if _, err := m.emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send alert via Resend: %w", err)
	}
	return nil
}
