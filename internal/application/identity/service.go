package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/thelyst/internal/domain"
	"github.com/thelyst/internal/infrastructure/google"
	jwtinfra "github.com/thelyst/internal/infrastructure/jwt"
	s3infra "github.com/thelyst/internal/infrastructure/s3"
	"github.com/thelyst/internal/pkg/clock"
	"github.com/thelyst/internal/pkg/id"
	"github.com/thelyst/internal/pkg/metrics"
	"github.com/thelyst/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// NewAccount is an account whose email has already been verified.
type NewAccount struct {
	Email        string
	Name         string
	PasswordHash string
}

// Token is a signed ID token and the session backing it.
type Token struct {
	Value     string
	ExpiresAt time.Time
	Session   *domain.Session
	User      *domain.User
}

// TokenInfo is what a verified ID token tells about its holder.
type TokenInfo struct {
	UserID        string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	SessionID     string `json:"-"`
	// ExpiresAt is the earlier of the token and session expiry.
	ExpiresAt time.Time `json:"-"`
}

type Service interface {
	AccountExists(ctx context.Context, email string) (bool, error)
	CreateAccount(ctx context.Context, acc NewAccount) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	SignInWithGoogle(ctx context.Context, idToken string) (*domain.User, bool, error)
	LinkPassword(ctx context.Context, userID, password string) error

	IssueToken(ctx context.Context, u *domain.User, rememberMe bool) (*Token, error)
	VerifyToken(ctx context.Context, token string) (*TokenInfo, error)
	RevokeToken(ctx context.Context, token string) error

	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error)
	SetAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (*domain.User, error)
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchLogin(ctx context.Context, userID string) error
	SetName(ctx context.Context, userID, name string) error
	SetPhotoURL(ctx context.Context, userID, url string) error
	SetPassword(ctx context.Context, userID, hash string, providers []string) error
	LinkGoogle(ctx context.Context, userID, sub string, providers []string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Disable(ctx context.Context, sessionID string) error
}

type tokenSigner interface {
	Sign(u *domain.User, sessionID string, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type avatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

// ServiceDeps holds the dependencies for the identity service.
type ServiceDeps struct {
	UserRepo      userStore
	SessionRepo   sessionStore
	Tokens        tokenSigner
	Google        googleVerifier
	Avatars       avatarStore
	Clock         clock.Clocker
	Metrics       *metrics.Metrics
	SessionTTL    time.Duration
	RememberMeTTL time.Duration
	BcryptCost    int
}

type service struct {
	ServiceDeps
}

func NewService(deps ServiceDeps) Service {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.BcryptCost == 0 {
		deps.BcryptCost = bcrypt.DefaultCost
	}
	return &service{ServiceDeps: deps}
}

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("password must be at most %d bytes: %w", maxPasswordBytes, domain.ErrBadRequest)
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *service) AccountExists(ctx context.Context, email string) (bool, error) {
	_, err := s.UserRepo.GetByEmail(ctx, validate.Email(email))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) CreateAccount(ctx context.Context, acc NewAccount) (*domain.User, error) {
	email := validate.Email(acc.Email)
	exists, err := s.AccountExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("email already registered: %w: %w", domain.ErrAuthProvider, domain.ErrConflict)
	}

	now := s.Clock.Now()
	u := &domain.User{
		UserID:        id.New(),
		Email:         email,
		Name:          acc.Name,
		PasswordHash:  acc.PasswordHash,
		Providers:     []string{domain.ProviderPassword},
		EmailVerified: true,
		Enable:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.UserRepo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("account already exists: %w: %w", domain.ErrAuthProvider, err)
		}
		return nil, err
	}
	return u, nil
}

func (s *service) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.UserRepo.GetByEmail(ctx, validate.Email(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, fmt.Errorf("account has no password, sign in with google: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	return u, nil
}

func (s *service) SignInWithGoogle(ctx context.Context, idToken string) (*domain.User, bool, error) {
	p, err := s.Google.Verify(ctx, idToken)
	if err != nil {
		return nil, false, err
	}
	email := validate.Email(p.Email)

	u, err := s.UserRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !u.Enable {
			return nil, false, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
		}
		if u.HasProvider(domain.ProviderGoogle) {
			return u, false, nil
		}
		if !p.EmailVerified {
			return nil, false, fmt.Errorf("google email not verified, cannot link: %w", domain.ErrAuthProvider)
		}
		providers := append(append([]string{}, u.Providers...), domain.ProviderGoogle)
		if err := s.UserRepo.LinkGoogle(ctx, u.UserID, p.Sub, providers); err != nil {
			return nil, false, err
		}
		u.GoogleSub, u.Providers, u.EmailVerified = p.Sub, providers, true
		return u, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, false, err
	}

	now := s.Clock.Now()
	u = &domain.User{
		UserID:        id.New(),
		Email:         email,
		Name:          p.Name,
		PhotoURL:      p.Picture,
		GoogleSub:     p.Sub,
		Providers:     []string{domain.ProviderGoogle},
		EmailVerified: p.EmailVerified,
		Enable:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *service) LinkPassword(ctx context.Context, userID, password string) error {
	u, err := s.UserRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasProvider(domain.ProviderPassword) {
		return fmt.Errorf("password already set: %w", domain.ErrConflict)
	}
	hash, err := HashPassword(password, s.BcryptCost)
	if err != nil {
		return err
	}
	providers := append(append([]string{}, u.Providers...), domain.ProviderPassword)
	return s.UserRepo.SetPassword(ctx, userID, hash, providers)
}

func (s *service) IssueToken(ctx context.Context, u *domain.User, rememberMe bool) (*Token, error) {
	ttl, lifetime := s.SessionTTL, "default"
	if rememberMe {
		ttl, lifetime = s.RememberMeTTL, "remember"
	}

	now := s.Clock.Now()
	sess := &domain.Session{
		SessionID:  id.New(),
		UserID:     u.UserID,
		Enable:     true,
		RememberMe: rememberMe,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(ttl).Unix(),
	}
	if err := s.SessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	value, exp, err := s.Tokens.Sign(u, sess.SessionID, ttl)
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.TouchLogin(ctx, u.UserID); err != nil {
		slog.Warn("failed to record last login", "user_id", u.UserID, "err", err)
	}
	s.Metrics.SessionIssued(lifetime)
	return &Token{Value: value, ExpiresAt: exp, Session: sess, User: u}, nil
}

func (s *service) VerifyToken(ctx context.Context, token string) (*TokenInfo, error) {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.SessionRepo.Get(ctx, claims.SessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("session not found: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !sess.Enable || sess.UserID != claims.UserID || sess.ExpiresAt < s.Clock.Now().Unix() {
		return nil, fmt.Errorf("session revoked: %w", domain.ErrUnauthorized)
	}
	exp := time.Unix(sess.ExpiresAt, 0).UTC()
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(exp) {
		exp = claims.ExpiresAt.Time
	}
	return &TokenInfo{
		UserID:        claims.UserID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		SessionID:     claims.SessionID,
		ExpiresAt:     exp,
	}, nil
}

// RevokeToken disables the session behind token. Tokens that no longer
// verify have nothing left to revoke.
func (s *service) RevokeToken(ctx context.Context, token string) error {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil
	}
	return s.SessionRepo.Disable(ctx, claims.SessionID)
}

func (s *service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.UserRepo.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error) {
	if err := s.UserRepo.SetName(ctx, userID, name); err != nil {
		return nil, err
	}
	return s.UserRepo.Get(ctx, userID)
}

func (s *service) SetAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (*domain.User, error) {
	ext, ok := s3infra.ExtensionFor(contentType)
	if !ok {
		return nil, fmt.Errorf("unsupported image type %q: %w", contentType, domain.ErrBadRequest)
	}
	u, err := s.UserRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, id.New(), ext)
	url, err := s.Avatars.Upload(ctx, key, r, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w: %w", domain.ErrStorage, err)
	}
	if err := s.UserRepo.SetPhotoURL(ctx, userID, url); err != nil {
		return nil, err
	}
	if old := s.Avatars.KeyFromURL(u.PhotoURL); old != "" {
		if err := s.Avatars.Delete(ctx, old); err != nil {
			slog.Warn("failed to delete previous avatar", "user_id", userID, "key", old, "err", err)
		}
	}
	u.PhotoURL = url
	return u, nil
}
