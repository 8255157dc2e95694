package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/domain"
)

type contextKey string

const IdentityKey contextKey = "identity"

// TokenVerifier resolves an ID token to the identity it was issued for.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*identity.TokenInfo, error)
}

// Auth returns middleware that accepts the ID token from the session cookie or
// an Authorization Bearer header and injects the verified identity into context.
func Auth(verifier TokenVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing session token")
				return
			}
			info, err := verifier.VerifyToken(r.Context(), token)
			if errors.Is(err, domain.ErrUnauthorized) {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			if err != nil {
				slog.Error("session verification failed", "err", err)
				writeJSONError(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), info)))
		})
	}
}

// TokenFromRequest returns the Bearer token if present, else the session cookie value.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// IdentityFromContext extracts the verified identity from the request context.
func IdentityFromContext(ctx context.Context) (*identity.TokenInfo, bool) {
	info, ok := ctx.Value(IdentityKey).(*identity.TokenInfo)
	return info, ok
}

// WithIdentity returns a copy of ctx carrying info.
func WithIdentity(ctx context.Context, info *identity.TokenInfo) context.Context {
	return context.WithValue(ctx, IdentityKey, info)
}
