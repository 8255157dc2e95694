package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/thelyst/internal/application/identity"
	"github.com/thelyst/internal/domain"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerifyOTPEnvelope answers a code check. Valid is always present so clients
// can branch on it without inspecting the status code.
type VerifyOTPEnvelope struct {
	Success bool   `json:"success"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegistrationEnvelope wraps the start-registration response.
type RegistrationEnvelope struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// AuthEnvelope wraps sign-in responses. The token is also set as the session cookie.
type AuthEnvelope struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Created   bool         `json:"created,omitempty"`
	User      *domain.User `json:"user,omitempty"`
}

// VerifySessionEnvelope answers GET /auth/verify.
type VerifySessionEnvelope struct {
	Authenticated bool                `json:"authenticated"`
	User          *identity.TokenInfo `json:"user,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// UserEnvelope wraps profile responses.
type UserEnvelope struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

func authEnvelope(tok *identity.Token, created bool) AuthEnvelope {
	exp := tok.ExpiresAt
	return AuthEnvelope{
		Success:   true,
		Token:     tok.Value,
		ExpiresAt: &exp,
		Created:   created,
		User:      tok.User,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decodeJSON reads a JSON body into v and answers 400 itself when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
