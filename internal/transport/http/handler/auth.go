package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/domain"
	"github.com/thelyst/internal/pkg/validate"
	"github.com/thelyst/internal/transport/http/middleware"
)

// AuthHandler serves password and Google sign-in plus cookie session checks.
type AuthHandler struct {
	svc    identity.Service
	cookie CookieConfig
	now    func() time.Time
}

func NewAuthHandler(svc identity.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie, now: time.Now}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = validate.Email(req.Email)
	if err := validate.Struct(req); err != nil {
		httpError(w, err)
		return
	}
	u, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	h.issue(w, r, u, req.RememberMe, false)
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req domain.GoogleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, err)
		return
	}
	u, created, err := h.svc.SignInWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		httpError(w, err)
		return
	}
	h.issue(w, r, u, req.RememberMe, created)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, u *domain.User, rememberMe, created bool) {
	tok, err := h.svc.IssueToken(r.Context(), u, rememberMe)
	if err != nil {
		httpError(w, err)
		return
	}
	h.cookie.set(w, tok.Value, tok.ExpiresAt.Sub(h.now()))
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, authEnvelope(tok, created))
}

// Verify reports whether the request carries a live session.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r, h.cookie.Name)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, VerifySessionEnvelope{Error: "No session found"})
		return
	}
	info, err := h.svc.VerifyToken(r.Context(), token)
	if errors.Is(err, domain.ErrUnauthorized) {
		writeJSON(w, http.StatusUnauthorized, VerifySessionEnvelope{Error: "Invalid or expired session"})
		return
	}
	if err != nil {
		slog.Error("session verification failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, VerifySessionEnvelope{Error: "Server error occurred"})
		return
	}
	writeJSON(w, http.StatusOK, VerifySessionEnvelope{Authenticated: true, User: info})
}

func (h *AuthHandler) LinkPassword(w http.ResponseWriter, r *http.Request) {
	info, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.LinkPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, err)
		return
	}
	if err := h.svc.LinkPassword(r.Context(), info.UserID, req.Password); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "password linked"})
}
