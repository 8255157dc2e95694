package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/domain"
	"github.com/thelyst/internal/transport/http/middleware"
)

type sessionTokens interface {
	VerifyToken(ctx context.Context, token string) (*identity.TokenInfo, error)
	RevokeToken(ctx context.Context, token string) error
}

// SessionHandler exchanges an ID token for the http-only session cookie.
type SessionHandler struct {
	tokens sessionTokens
	cookie CookieConfig
	now    func() time.Time
}

func NewSessionHandler(tokens sessionTokens, cookie CookieConfig) *SessionHandler {
	return &SessionHandler{tokens: tokens, cookie: cookie, now: time.Now}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "No token provided")
		return
	}
	info, err := h.tokens.VerifyToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		httpError(w, err)
		return
	}
	// The cookie never outlives the token; remember_me only shortens it.
	lifetime := min(info.ExpiresAt.Sub(h.now()), h.cookie.maxAge(req.RememberMe))
	h.cookie.set(w, req.Token, lifetime)
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

// Delete revokes the backing session and clears the cookie. Calling it
// without a session still succeeds.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r, h.cookie.Name)
	h.cookie.clear(w)
	if token != "" {
		if err := h.tokens.RevokeToken(r.Context(), token); err != nil {
			httpError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}
