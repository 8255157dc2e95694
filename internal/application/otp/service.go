package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thelyst/internal/domain"
	"github.com/thelyst/internal/pkg/clock"
	"github.com/thelyst/internal/pkg/metrics"
	"github.com/thelyst/internal/pkg/validate"
)

// Store is the persistence the service needs. One live record per email.
type Store interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Get(ctx context.Context, email string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, email string) error
	Consume(ctx context.Context, email, code string, createdAt time.Time) error
	// ReserveAttempt counts a guess before it is compared. It fails with
	// ErrTooManyRequests once limit guesses were reserved for the issuance.
	ReserveAttempt(ctx context.Context, email string, createdAt time.Time, limit int) (int, error)
}

// Limiter counts issuances per email over a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type Service interface {
	// Issue creates a fresh code for email, replacing any previous one.
	Issue(ctx context.Context, email, correlationID string) (*domain.OTPRecord, error)
	// Verify checks code against the live record. Storage failures are
	// returned as errors, never as a verification result.
	Verify(ctx context.Context, email, code, correlationID string) (domain.VerificationResult, error)
	// Discard drops the live record, if any.
	Discard(ctx context.Context, email string) error
}

// ServiceDeps holds the dependencies for the OTP service.
type ServiceDeps struct {
	Store    Store
	Limiter  Limiter
	Clock    clock.Clocker
	Metrics  *metrics.Metrics
	Generate func() (string, error)

	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
	HourlyLimit    int
}

type service struct {
	ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Generate == nil {
		deps.Generate = Generate
	}
	return &service{ServiceDeps: deps}
}

func (s *service) Issue(ctx context.Context, email, correlationID string) (*domain.OTPRecord, error) {
	email = validate.Email(email)
	now := s.Clock.Now()

	prev, err := s.Store.Get(ctx, email)
	switch {
	case err == nil:
		if wait := s.ResendCooldown - now.Sub(prev.CreatedAt); wait > 0 && !prev.Expired(now, s.TTL) {
			s.Metrics.OTPIssued("cooldown")
			return nil, &domain.RetryAfterError{Reason: "a code was sent recently", RetryAfter: wait}
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if s.Limiter != nil && s.HourlyLimit > 0 {
		ok, retryAfter, err := s.Limiter.Allow(ctx, email, s.HourlyLimit, time.Hour)
		switch {
		case err != nil:
			slog.Warn("otp issuance limiter unavailable, allowing", "err", err)
		case !ok:
			s.Metrics.OTPIssued("throttled")
			return nil, &domain.RetryAfterError{Reason: "too many codes requested", RetryAfter: retryAfter}
		}
	}

	code, err := s.Generate()
	if err != nil {
		return nil, err
	}
	rec := &domain.OTPRecord{
		Email:         email,
		Code:          code,
		CorrelationID: correlationID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.TTL).Unix(),
	}
	if err := s.Store.Put(ctx, rec); err != nil {
		return nil, err
	}
	s.Metrics.OTPIssued("issued")
	return rec, nil
}

func (s *service) Verify(ctx context.Context, email, code, correlationID string) (domain.VerificationResult, error) {
	res, err := s.verify(ctx, validate.Email(email), code, correlationID)
	if err != nil {
		return res, err
	}
	s.Metrics.OTPVerified(res.String())
	return res, nil
}

func (s *service) verify(ctx context.Context, email, code, correlationID string) (domain.VerificationResult, error) {
	rec, err := s.Store.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.VerificationNotFound, nil
	}
	if err != nil {
		return domain.VerificationNotFound, err
	}

	if rec.Expired(s.Clock.Now(), s.TTL) {
		if err := s.Store.Delete(ctx, email); err != nil {
			slog.Warn("failed to delete expired otp", "email", email, "err", err)
		}
		return domain.VerificationExpired, nil
	}

	if s.MaxAttempts > 0 && rec.Attempts >= s.MaxAttempts {
		return domain.VerificationLocked, nil
	}

	if correlationID != "" && rec.CorrelationID != "" && correlationID != rec.CorrelationID {
		return domain.VerificationCorrelationMismatch, nil
	}

	_, err = s.Store.ReserveAttempt(ctx, email, rec.CreatedAt, s.MaxAttempts)
	switch {
	case errors.Is(err, domain.ErrTooManyRequests):
		return domain.VerificationLocked, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.VerificationNotFound, nil
	case err != nil:
		return domain.VerificationNotFound, fmt.Errorf("reserve otp attempt: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(rec.Code)) != 1 {
		return domain.VerificationMismatch, nil
	}

	err = s.Store.Consume(ctx, email, rec.Code, rec.CreatedAt)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.VerificationNotFound, nil
	}
	if err != nil {
		return domain.VerificationNotFound, fmt.Errorf("consume otp: %w", err)
	}
	return domain.VerificationValid, nil
}

func (s *service) Discard(ctx context.Context, email string) error {
	return s.Store.Delete(ctx, validate.Email(email))
}
