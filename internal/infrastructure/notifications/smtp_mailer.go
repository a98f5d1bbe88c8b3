package notifications

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

// implicitTLSPort is the submission port that expects TLS from the first byte
const implicitTLSPort = 465

// SMTPMailer sends mail through an authenticated SMTP relay
type SMTPMailer struct {
	cfg     config.SMTPConfig
	missing []string
}

// NewSMTPMailer creates a mailer for the relay settings. Incomplete settings are
// reported on first use rather than at startup.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if cfg.Port <= 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if cfg.User == "" {
		missing = append(missing, "SMTP_USER")
	}
	if cfg.Password == "" {
		missing = append(missing, "SMTP_PASS")
	}
	return &SMTPMailer{cfg: cfg, missing: missing}
}

// Send delivers a single message
func (s *SMTPMailer) Send(ctx context.Context, msg *entities.EmailMessage) error {
	client, err := s.client()
	if err != nil {
		return err
	}

	m, err := buildMessage(s.cfg.User, msg)
	if err != nil {
		return apperrors.NewUpstreamUnavailableError("Failed to build email", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		observability.LoggerFromContext(ctx).Error().
			Err(err).
			Str("to", msg.To).
			Str("type", string(msg.Type)).
			Msg("SMTP delivery failed")
		return apperrors.NewUpstreamUnavailableError("Failed to send email", err)
	}
	return nil
}

// Verify connects and authenticates without sending anything
func (s *SMTPMailer) Verify(ctx context.Context) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return apperrors.NewUpstreamUnavailableError("SMTP connection failed", err)
	}
	return client.Close()
}

func (s *SMTPMailer) client() (*mail.Client, error) {
	if len(s.missing) > 0 {
		return nil, apperrors.NewConfigurationError("SMTP is not configured", s.missing...)
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("invalid SMTP settings: %v", err), "SMTP_HOST")
	}
	return client, nil
}

// buildMessage converts a rendered email into a MIME message sent from the relay account
func buildMessage(sender string, msg *entities.EmailMessage) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(msg.FromName, sender); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	for _, a := range msg.Attachments {
		contentType := mail.TypeAppOctetStream
		if a.ContentType != "" {
			contentType = mail.ContentType(a.ContentType)
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Content), mail.WithFileContentType(contentType)); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return m, nil
}
