package smtp

import (
	"context"
	"fmt"

	"github.com/doc-courier/internal/config"
	"github.com/doc-courier/internal/domain"
	"github.com/wneessen/go-mail"
)

// Mailer sends transactional emails. Both sends are bounded by the client
// timeout and by ctx, whichever fires first.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendEmailWithAttachment(ctx context.Context, to, subject, body string, att domain.Attachment) error
}

type mailer struct {
	client *mail.Client
	from   string
}

func NewMailer(cfg *config.Config) (Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(cfg.SMTPTimeout),
	}

	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	switch cfg.SMTPEncryption {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	default: // "starttls"
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	return &mailer{client: client, from: cfg.SMTPFrom}, nil
}

func (m *mailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg, err := m.compose(to, subject, body)
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *mailer) SendEmailWithAttachment(ctx context.Context, to, subject, body string, att domain.Attachment) error {
	msg, err := m.compose(to, subject, body)
	if err != nil {
		return err
	}
	if err := msg.AttachReader(att.Filename, att.Content,
		mail.WithFileContentType(mail.ContentType(att.MimeType))); err != nil {
		return fmt.Errorf("attach %s: %w", att.Filename, err)
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *mailer) compose(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
