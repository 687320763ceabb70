// Package verification orchestrates the two-step flow: email a one-time
// code, then email the stored document once the code is redeemed.
package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/doc-courier/internal/domain"
	"github.com/doc-courier/internal/ledger"
	"github.com/doc-courier/internal/pkg/validate"
)

type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RedeemCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,number"`
}

// RecordStore is the read side of the records table.
type RecordStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Record, error)
}

// ObjectStore streams document payloads by key.
type ObjectStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// Mailer delivers outbound email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendEmailWithAttachment(ctx context.Context, to, subject, body string, att domain.Attachment) error
}

// AlertPublisher is optional (nil disables alerting).
type AlertPublisher interface {
	Publish(ctx context.Context, subject, message string) error
}

type Service interface {
	RequestCode(ctx context.Context, req RequestCodeRequest) error
	RedeemCode(ctx context.Context, req RedeemCodeRequest) error
}

type ServiceDeps struct {
	Ledger      *ledger.Ledger
	Records     RecordStore
	Objects     ObjectStore
	Mailer      Mailer
	Alerts      AlertPublisher
	CodeTTL     time.Duration
	MailTimeout time.Duration
}

type service struct {
	ledger      *ledger.Ledger
	records     RecordStore
	objects     ObjectStore
	mailer      Mailer
	alerts      AlertPublisher
	codeTTL     time.Duration
	mailTimeout time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		ledger:      deps.Ledger,
		records:     deps.Records,
		objects:     deps.Objects,
		mailer:      deps.Mailer,
		alerts:      deps.Alerts,
		codeTTL:     deps.CodeTTL,
		mailTimeout: deps.MailTimeout,
	}
}

// RequestCode issues a fresh code for the address and emails it. The code
// never appears in any API response. The ledger entry is NOT rolled back when
// delivery fails: the next RequestCode overwrites it anyway.
func (s *service) RequestCode(ctx context.Context, req RequestCodeRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	email := domain.NormalizeEmail(req.Email)

	code, err := s.ledger.Issue(email)
	if err != nil {
		return err
	}
	slog.Info("verification code issued", "email", email)

	body := fmt.Sprintf("Your code is %s. It expires in %d minutes.", code, int(s.codeTTL.Minutes()))
	if err := s.sendMail(ctx, func(ctx context.Context) error {
		return s.mailer.SendEmail(ctx, email, "Your verification code", body)
	}); err != nil {
		slog.Error("code email delivery failed", "email", email, "err", err)
		s.alertDeliveryFailure(ctx, "send-code", email, err)
		return fmt.Errorf("could not send code email: %w", domain.ErrDelivery)
	}
	slog.Info("verification code sent", "email", email)
	return nil
}

// RedeemCode validates a code, consumes it, and emails the stored document.
// The consume happens before any network I/O: once a code has passed its
// check it can never be presented again, even if every later step fails.
func (s *service) RedeemCode(ctx context.Context, req RedeemCodeRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	email := domain.NormalizeEmail(req.Email)

	if !s.ledger.Check(email, req.Code) {
		return fmt.Errorf("redeem for %s: %w", email, domain.ErrInvalidCode)
	}
	s.ledger.Consume(email)

	rec, err := s.records.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no record for this email: %w", domain.ErrNotFound)
		}
		return err
	}
	if rec.DocKey == "" {
		return fmt.Errorf("record for %s has no payload: %w", email, domain.ErrNoDocument)
	}

	content, err := s.objects.Download(ctx, rec.DocKey)
	if err != nil {
		slog.Warn("record references missing object", "email", email, "doc_key", rec.DocKey, "err", err)
		return fmt.Errorf("document payload missing: %w", domain.ErrNoDocument)
	}
	defer content.Close()

	att := domain.Attachment{
		Filename: rec.Filename,
		MimeType: rec.MimeType,
		Content:  content,
	}
	if att.Filename == "" {
		att.Filename = domain.DefaultFilename
	}
	if att.MimeType == "" {
		att.MimeType = domain.DefaultMimeType
	}

	if err := s.sendMail(ctx, func(ctx context.Context) error {
		return s.mailer.SendEmailWithAttachment(ctx, email, "Your requested document",
			"Thanks! Your document is attached.", att)
	}); err != nil {
		// The code stays consumed; the user must request a new one.
		slog.Error("document email delivery failed", "email", email, "err", err)
		s.alertDeliveryFailure(ctx, "verify-and-send", email, err)
		return fmt.Errorf("could not send document email: %w", domain.ErrDelivery)
	}
	slog.Info("document delivered", "email", email, "filename", att.Filename)
	return nil
}

func (s *service) sendMail(ctx context.Context, send func(context.Context) error) error {
	if s.mailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.mailTimeout)
		defer cancel()
	}
	return send(ctx)
}

// alertDeliveryFailure is best-effort: an alert failure is logged, never surfaced.
func (s *service) alertDeliveryFailure(ctx context.Context, stage, email string, cause error) {
	if s.alerts == nil {
		return
	}
	msg := fmt.Sprintf("stage=%s email=%s err=%v", stage, email, cause)
	if err := s.alerts.Publish(ctx, "doc-courier delivery failure", msg); err != nil {
		slog.Warn("failed to publish delivery alert", "stage", stage, "err", err)
	}
}
