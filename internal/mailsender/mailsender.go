// Package mailsender turns notification messages from the queue into emails.
package mailsender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"library_api/internal/config"
	"library_api/internal/models"
)

var ErrUnknownPurpose = errors.New("unknown message purpose")

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	log    *slog.Logger
	from   string
	dialer Dialer
}

func New(log *slog.Logger, cfg config.Email) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &Mailer{
		log:    log,
		from:   from,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewWithDialer is used when the SMTP transport is provided by the caller.
func NewWithDialer(log *slog.Logger, from string, d Dialer) *Mailer {
	return &Mailer{log: log, from: from, dialer: d}
}

// * body подбирает текст письма по назначению сообщения
func body(msg models.Message) (string, error) {
	var b bytes.Buffer

	switch msg.Purpose {
	case models.PurposeEmailVerification:
		fmt.Fprintf(&b, "Please confirm your email address by opening the link below.\n\n%s\n\n", msg.Link)
		b.WriteString("If you did not create an account, no further action is required.\n")
	case models.PurposeEmailVerified:
		b.WriteString("Your email address has been verified. You can now use all features of the library.\n")
	case models.PurposePasswordReset:
		fmt.Fprintf(&b, "You are receiving this email because we received a password reset request for your account.\n\n%s\n\n", msg.Link)
		b.WriteString("If you did not request a password reset, no further action is required.\n")
	case models.PurposePasswordChanged:
		b.WriteString("Your password has been changed. If this was not you, reset your password immediately.\n")
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPurpose, msg.Purpose)
	}

	return b.String(), nil
}

func (m *Mailer) Compose(msg models.Message) (*gomail.Message, error) {
	text, err := body(msg)
	if err != nil {
		return nil, err
	}

	out := gomail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.Email)
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/plain", text)

	return out, nil
}

func (m *Mailer) Send(msg models.Message) error {
	const op = "mailsender.Send"

	out, err := m.Compose(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.dialer.DialAndSend(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Handle decodes one queue delivery and mails it. A returned error rejects the delivery.
func (m *Mailer) Handle(_ context.Context, raw []byte) error {
	const op = "mailsender.Handle"

	var msg models.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("%s: failed to unmarshal message: %w", op, err)
	}

	if msg.Email == "" {
		return fmt.Errorf("%s: message has no recipient", op)
	}

	if err := m.Send(msg); err != nil {
		return err
	}

	m.log.Info("message sent", slog.String("op", op), slog.String("purpose", msg.Purpose))

	return nil
}
