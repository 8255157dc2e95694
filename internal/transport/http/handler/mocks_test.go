package handler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/domain"
)

// --- identity ---

type mockIdentity struct{ mock.Mock }

func (m *mockIdentity) AccountExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdentity) CreateAccount(ctx context.Context, acc identity.NewAccount) (*domain.User, error) {
	args := m.Called(ctx, acc)
	return userArg(args, 0), args.Error(1)
}

func (m *mockIdentity) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	return userArg(args, 0), args.Error(1)
}

func (m *mockIdentity) SignInWithGoogle(ctx context.Context, idToken string) (*domain.User, bool, error) {
	args := m.Called(ctx, idToken)
	return userArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *mockIdentity) LinkPassword(ctx context.Context, userID, password string) error {
	return m.Called(ctx, userID, password).Error(0)
}

func (m *mockIdentity) IssueToken(ctx context.Context, u *domain.User, rememberMe bool) (*identity.Token, error) {
	args := m.Called(ctx, u, rememberMe)
	if t, _ := args.Get(0).(*identity.Token); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentity) VerifyToken(ctx context.Context, token string) (*identity.TokenInfo, error) {
	args := m.Called(ctx, token)
	if i, _ := args.Get(0).(*identity.TokenInfo); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentity) RevokeToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockIdentity) Profile(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	return userArg(args, 0), args.Error(1)
}

func (m *mockIdentity) UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error) {
	args := m.Called(ctx, userID, name)
	return userArg(args, 0), args.Error(1)
}

func (m *mockIdentity) SetAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (*domain.User, error) {
	args := m.Called(ctx, userID, r, contentType)
	return userArg(args, 0), args.Error(1)
}

func userArg(args mock.Arguments, i int) *domain.User {
	u, _ := args.Get(i).(*domain.User)
	return u
}

// --- registration ---

type mockRegistration struct{ mock.Mock }

func (m *mockRegistration) RequestCode(ctx context.Context, email, correlationID string) error {
	return m.Called(ctx, email, correlationID).Error(0)
}

func (m *mockRegistration) Start(ctx context.Context, req domain.StartRegistrationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockRegistration) Resend(ctx context.Context, req domain.ResendCodeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockRegistration) Confirm(ctx context.Context, req domain.ConfirmRegistrationRequest) (*identity.Token, error) {
	args := m.Called(ctx, req)
	if t, _ := args.Get(0).(*identity.Token); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- otp ---

type mockOTP struct{ mock.Mock }

func (m *mockOTP) Issue(ctx context.Context, email, correlationID string) (*domain.OTPRecord, error) {
	args := m.Called(ctx, email, correlationID)
	if r, _ := args.Get(0).(*domain.OTPRecord); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOTP) Verify(ctx context.Context, email, code, correlationID string) (domain.VerificationResult, error) {
	args := m.Called(ctx, email, code, correlationID)
	return args.Get(0).(domain.VerificationResult), args.Error(1)
}

func (m *mockOTP) Discard(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
