package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/domain"
)

var testCookie = CookieConfig{Name: "auth-session", TTL: 24 * time.Hour, RememberTTL: 14 * 24 * time.Hour}

func fixedNow() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == testCookie.Name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", testCookie.Name)
	return nil
}

func TestRegistrationStart_ReturnsCorrelationID(t *testing.T) {
	svc := &mockRegistration{}
	req := domain.StartRegistrationRequest{Name: "Ada", Email: "ada@example.com", Password: "Secr3t!pw"}
	svc.On("Start", mock.Anything, req).Return("cid-1", nil)
	h := NewRegistrationHandler(svc, testCookie)

	rr := httptest.NewRecorder()
	h.Start(rr, postJSON("/v1/register", req))

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp RegistrationEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "cid-1", resp.CorrelationID)
	assert.NotContains(t, rr.Body.String(), "Secr3t!pw")
}

func TestRegistrationStart_ExistingAccount(t *testing.T) {
	svc := &mockRegistration{}
	svc.On("Start", mock.Anything, mock.Anything).Return("", domain.ErrConflict)
	h := NewRegistrationHandler(svc, testCookie)

	rr := httptest.NewRecorder()
	h.Start(rr, postJSON("/v1/register", domain.StartRegistrationRequest{Name: "Ada", Email: "ada@example.com", Password: "Secr3t!pw"}))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegistrationResend_WrongState(t *testing.T) {
	svc := &mockRegistration{}
	svc.On("Resend", mock.Anything, mock.Anything).Return(domain.ErrConflict)
	h := NewRegistrationHandler(svc, testCookie)

	rr := httptest.NewRecorder()
	h.Resend(rr, postJSON("/v1/register/resend", domain.ResendCodeRequest{Email: "ada@example.com", CorrelationID: "cid-1"}))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegistrationConfirm_InvalidCodeKeepsNoCookie(t *testing.T) {
	svc := &mockRegistration{}
	svc.On("Confirm", mock.Anything, mock.Anything).
		Return(nil, &domain.VerificationError{Result: domain.VerificationMismatch})
	h := NewRegistrationHandler(svc, testCookie)

	rr := httptest.NewRecorder()
	h.Confirm(rr, postJSON("/v1/register/confirm", domain.ConfirmRegistrationRequest{Email: "ada@example.com", OTP: "000000", CorrelationID: "cid-1"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid OTP"}`, rr.Body.String())
	assert.Empty(t, rr.Result().Cookies())
}

func TestRegistrationConfirm_LockedIs429(t *testing.T) {
	svc := &mockRegistration{}
	svc.On("Confirm", mock.Anything, mock.Anything).
		Return(nil, &domain.VerificationError{Result: domain.VerificationLocked})
	h := NewRegistrationHandler(svc, testCookie)

	rr := httptest.NewRecorder()
	h.Confirm(rr, postJSON("/v1/register/confirm", domain.ConfirmRegistrationRequest{}))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRegistrationConfirm_SetsSessionCookie(t *testing.T) {
	u := &domain.User{UserID: "u1", Email: "ada@example.com", EmailVerified: true}
	tok := &identity.Token{Value: "jwt", ExpiresAt: fixedNow().Add(14 * 24 * time.Hour), User: u}
	svc := &mockRegistration{}
	svc.On("Confirm", mock.Anything, mock.Anything).Return(tok, nil)
	h := NewRegistrationHandler(svc, testCookie)
	h.now = fixedNow

	rr := httptest.NewRecorder()
	h.Confirm(rr, postJSON("/v1/register/confirm", domain.ConfirmRegistrationRequest{
		Email: "ada@example.com", OTP: "123456", CorrelationID: "cid-1", RememberMe: true,
	}))

	assert.Equal(t, http.StatusCreated, rr.Code)
	c := sessionCookie(t, rr)
	assert.Equal(t, "jwt", c.Value)
	assert.Equal(t, 14*24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "u1", resp.User.UserID)
	assert.True(t, resp.Created)
}
