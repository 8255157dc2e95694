package notification

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"text/template"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/thelyst/internal/domain"
	"github.com/thelyst/internal/infrastructure/smtp"
	"github.com/thelyst/internal/pkg/metrics"
)

var htmlBody = htmltemplate.Must(htmltemplate.New("otp.html").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 5px;">
  <h2 style="color: #333;">Verify your email</h2>
  <p>Use the verification code below to continue with {{.AppName}}:</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; text-align: center; margin: 20px 0;">
    <h1 style="font-size: 32px; margin: 0; letter-spacing: 5px; color: #4a5568;">{{.Code}}</h1>
  </div>
  <p>This code will expire in {{.Minutes}} minutes.</p>
  <p>If you didn't request this code, please ignore this email.</p>
  <p style="margin-top: 30px; font-size: 12px; color: #666;">This is an automated email. Please do not reply to this message.</p>
</div>`))

var textBody = template.Must(template.New("otp.txt").Parse(`Your {{.AppName}} verification code is {{.Code}}

This code will expire in {{.Minutes}} minutes.
If you didn't request this code, please ignore this email.
`))

type codeView struct {
	AppName string
	Code    string
	Minutes int
}

// Mailer is the relay the sender hands messages to.
type Mailer interface {
	Send(ctx context.Context, msg smtp.Message) error
}

// Sender delivers one-time codes to users.
type Sender interface {
	SendCode(ctx context.Context, email, code string, ttl time.Duration) error
}

// SenderDeps holds the dependencies for the code sender.
type SenderDeps struct {
	Mailer    Mailer
	AppName   string
	Metrics   *metrics.Metrics
	Attempts  uint64        // total tries per message, default 3
	RetryBase time.Duration // first backoff step, default 200ms
}

type sender struct {
	SenderDeps
}

func NewSender(deps SenderDeps) Sender {
	if deps.Attempts == 0 {
		deps.Attempts = 3
	}
	if deps.RetryBase == 0 {
		deps.RetryBase = 200 * time.Millisecond
	}
	if deps.AppName == "" {
		deps.AppName = "TheLyst"
	}
	return &sender{SenderDeps: deps}
}

func (s *sender) SendCode(ctx context.Context, email, code string, ttl time.Duration) error {
	msg, err := s.render(email, code, ttl)
	if err != nil {
		return err
	}

	b := retry.WithMaxRetries(s.Attempts-1, retry.NewExponential(s.RetryBase))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.Mailer.Send(ctx, *msg); err != nil {
			slog.Warn("otp email delivery attempt failed", "email", email, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.Metrics.MailDelivered("failed")
		return fmt.Errorf("send verification email: %w: %w", domain.ErrDelivery, err)
	}
	s.Metrics.MailDelivered("sent")
	return nil
}

func (s *sender) render(email, code string, ttl time.Duration) (*smtp.Message, error) {
	view := codeView{AppName: s.AppName, Code: code, Minutes: int(ttl.Round(time.Minute) / time.Minute)}

	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	if err := textBody.Execute(&text, view); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	return &smtp.Message{
		To:       []string{email},
		Subject:  fmt.Sprintf("Your %s verification code", s.AppName),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
