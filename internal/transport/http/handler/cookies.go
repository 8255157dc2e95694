package handler

import (
	"net/http"
	"time"
)

// CookieConfig describes the http-only session cookie.
type CookieConfig struct {
	Name        string
	Secure      bool
	TTL         time.Duration
	RememberTTL time.Duration
}

func (c CookieConfig) maxAge(rememberMe bool) time.Duration {
	if rememberMe {
		return c.RememberTTL
	}
	return c.TTL
}

// set writes the session cookie. A non-positive lifetime is a no-op.
func (c CookieConfig) set(w http.ResponseWriter, token string, lifetime time.Duration) {
	if lifetime <= 0 {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(lifetime / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
