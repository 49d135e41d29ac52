package mail

import (
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/quickdesk/helpdesk-service/internal/config"
)

// Sender delivers a single e-mail.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Mailer sends e-mail over SMTP. An empty host disables delivery, which
// keeps local development quiet.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewMailer builds a mailer from SMTP settings.
func NewMailer(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	m := &Mailer{from: cfg.From, logger: logger}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// Send delivers one message. Returns nil without sending when SMTP is not
// configured.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m.dialer == nil {
		m.logger.Debug("smtp not configured, skipping mail",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}
