package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/domain"
	"github.com/thelyst/internal/pkg/clock"
	"github.com/thelyst/internal/pkg/id"
	"github.com/thelyst/internal/pkg/metrics"
	"github.com/thelyst/internal/pkg/validate"
)

// EventUserRegistered is published after an account is created.
const EventUserRegistered = "user.registered"

type Service interface {
	// RequestCode issues and emails a code for email, optionally bound to a
	// correlation id. Nothing stays live if delivery fails.
	RequestCode(ctx context.Context, email, correlationID string) error
	// Start stores the sign-up form and emails a code. Returns the
	// correlation id the client must echo on resend and confirm.
	Start(ctx context.Context, req domain.StartRegistrationRequest) (string, error)
	Resend(ctx context.Context, req domain.ResendCodeRequest) error
	// Confirm checks the code and, when valid, creates the account and
	// signs the user in.
	Confirm(ctx context.Context, req domain.ConfirmRegistrationRequest) (*identity.Token, error)
}

type pendingStore interface {
	Put(ctx context.Context, p *domain.PendingRegistration) error
	Get(ctx context.Context, correlationID string) (*domain.PendingRegistration, error)
	Transition(ctx context.Context, correlationID string, from, to domain.RegistrationState) error
	Delete(ctx context.Context, correlationID string) error
}

type otpIssuer interface {
	Issue(ctx context.Context, email, correlationID string) (*domain.OTPRecord, error)
	Verify(ctx context.Context, email, code, correlationID string) (domain.VerificationResult, error)
	Discard(ctx context.Context, email string) error
}

type codeSender interface {
	SendCode(ctx context.Context, email, code string, ttl time.Duration) error
}

type accounts interface {
	AccountExists(ctx context.Context, email string) (bool, error)
	CreateAccount(ctx context.Context, acc identity.NewAccount) (*domain.User, error)
	IssueToken(ctx context.Context, u *domain.User, rememberMe bool) (*identity.Token, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// ServiceDeps holds the dependencies for the registration service.
type ServiceDeps struct {
	Pending    pendingStore
	OTP        otpIssuer
	Sender     codeSender
	Identity   accounts
	Events     eventPublisher
	Clock      clock.Clocker
	Metrics    *metrics.Metrics
	PendingTTL time.Duration
	CodeTTL    time.Duration
	BcryptCost int
}

type service struct {
	ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &service{ServiceDeps: deps}
}

func (s *service) RequestCode(ctx context.Context, email, correlationID string) error {
	email = validate.Email(email)
	if err := validate.Struct(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); err != nil {
		return err
	}
	return s.deliver(ctx, email, correlationID)
}

func (s *service) Start(ctx context.Context, req domain.StartRegistrationRequest) (string, error) {
	req.Email = validate.Email(req.Email)
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	email := req.Email

	exists, err := s.Identity.AccountExists(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		s.Metrics.RegistrationStep("start", "duplicate")
		return "", fmt.Errorf("email already registered: %w: %w", domain.ErrAuthProvider, domain.ErrConflict)
	}

	hash, err := identity.HashPassword(req.Password, s.BcryptCost)
	if err != nil {
		return "", err
	}
	now := s.Clock.Now()
	p := &domain.PendingRegistration{
		CorrelationID: id.New(),
		Email:         email,
		Name:          req.Name,
		PasswordHash:  hash,
		State:         domain.RegistrationCodeRequested,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.PendingTTL).Unix(),
	}
	if err := s.Pending.Put(ctx, p); err != nil {
		return "", err
	}

	if err := s.deliver(ctx, email, p.CorrelationID); err != nil {
		// No code reached the user; the attempt goes back to idle.
		if derr := s.Pending.Delete(ctx, p.CorrelationID); derr != nil {
			slog.Warn("failed to roll back pending registration", "correlation_id", p.CorrelationID, "err", derr)
		}
		s.Metrics.RegistrationStep("start", "failed")
		return "", err
	}
	s.Metrics.RegistrationStep("start", "ok")
	return p.CorrelationID, nil
}

func (s *service) Resend(ctx context.Context, req domain.ResendCodeRequest) error {
	req.Email = validate.Email(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}
	email := req.Email

	p, err := s.pending(ctx, email, req.CorrelationID)
	if err != nil {
		return err
	}
	if p.State != domain.RegistrationCodeRequested {
		return fmt.Errorf("registration is %s: %w", p.State, domain.ErrConflict)
	}
	if err := s.deliver(ctx, email, p.CorrelationID); err != nil {
		s.Metrics.RegistrationStep("resend", "failed")
		return err
	}
	s.Metrics.RegistrationStep("resend", "ok")
	return nil
}

func (s *service) Confirm(ctx context.Context, req domain.ConfirmRegistrationRequest) (*identity.Token, error) {
	req.Email = validate.Email(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	email := req.Email

	p, err := s.pending(ctx, email, req.CorrelationID)
	if err != nil {
		return nil, err
	}

	res, err := s.OTP.Verify(ctx, email, req.OTP, req.CorrelationID)
	if err != nil {
		return nil, err
	}
	if res != domain.VerificationValid {
		s.Metrics.RegistrationStep("confirm", res.String())
		return nil, &domain.VerificationError{Result: res}
	}

	if err := s.Pending.Transition(ctx, p.CorrelationID, domain.RegistrationCodeRequested, domain.RegistrationCodeVerified); err != nil {
		return nil, err
	}

	u, err := s.Identity.CreateAccount(ctx, identity.NewAccount{Email: email, Name: p.Name, PasswordHash: p.PasswordHash})
	if err != nil {
		// Let the user resend and retry unless the account can never be created.
		if !errors.Is(err, domain.ErrConflict) {
			if terr := s.Pending.Transition(ctx, p.CorrelationID, domain.RegistrationCodeVerified, domain.RegistrationCodeRequested); terr != nil {
				slog.Warn("failed to reopen pending registration", "correlation_id", p.CorrelationID, "err", terr)
			}
		}
		s.Metrics.RegistrationStep("confirm", "account_failed")
		return nil, err
	}

	if err := s.Pending.Transition(ctx, p.CorrelationID, domain.RegistrationCodeVerified, domain.RegistrationAccountCreated); err != nil {
		slog.Warn("failed to mark registration complete", "correlation_id", p.CorrelationID, "err", err)
	}
	if err := s.Pending.Delete(ctx, p.CorrelationID); err != nil {
		slog.Warn("failed to delete pending registration", "correlation_id", p.CorrelationID, "err", err)
	}

	ev := domain.UserRegisteredEvent{
		UserID:       u.UserID,
		Email:        u.Email,
		Name:         u.Name,
		AuthProvider: domain.ProviderPassword,
		OccurredAt:   s.Clock.Now(),
	}
	if err := s.Events.Publish(ctx, EventUserRegistered, ev); err != nil {
		slog.Warn("failed to publish registration event", "user_id", u.UserID, "err", err)
	}

	s.Metrics.RegistrationStep("confirm", "ok")
	return s.Identity.IssueToken(ctx, u, req.RememberMe)
}

// pending loads the live registration for correlationID and checks it
// belongs to email. TTL deletion is lazy, so expiry is checked here too.
func (s *service) pending(ctx context.Context, email, correlationID string) (*domain.PendingRegistration, error) {
	p, err := s.Pending.Get(ctx, correlationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("registration expired, please start again: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if p.ExpiresAt < s.Clock.Now().Unix() {
		return nil, fmt.Errorf("registration expired, please start again: %w", domain.ErrNotFound)
	}
	if p.Email != email {
		return nil, fmt.Errorf("email does not match registration: %w", domain.ErrBadRequest)
	}
	return p, nil
}

// deliver issues a code and mails it. A code that could not be delivered is
// discarded so it never stays live unseen.
func (s *service) deliver(ctx context.Context, email, correlationID string) error {
	rec, err := s.OTP.Issue(ctx, email, correlationID)
	if err != nil {
		return err
	}
	if err := s.Sender.SendCode(ctx, email, rec.Code, s.CodeTTL); err != nil {
		if derr := s.OTP.Discard(ctx, email); derr != nil {
			slog.Warn("failed to discard undelivered otp", "email", email, "err", derr)
		}
		return err
	}
	return nil
}
