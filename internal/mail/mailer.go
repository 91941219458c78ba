// Package mail sends transactional email over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP settings.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	cfg    Config
	logger zerolog.Logger

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(cfg Config, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		logger: logger.With().Str("component", "mailer").Logger(),
		send:   smtp.SendMail,
	}
}

// Send delivers one message. The context deadline is not honored mid-dialog
// by net/smtp, so callers should keep bodies small.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	payload := strings.Join([]string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		msg.Body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(addr, auth, s.cfg.FromEmail, []string{msg.To}, []byte(payload)); err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}
