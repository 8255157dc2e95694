package handler

import (
	"net/http"
	"time"

	"github.com/thelyst/internal/application/registration"
	"github.com/thelyst/internal/domain"
)

// RegistrationHandler drives the email-verified sign-up flow.
type RegistrationHandler struct {
	svc    registration.Service
	cookie CookieConfig
	now    func() time.Time
}

func NewRegistrationHandler(svc registration.Service, cookie CookieConfig) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, cookie: cookie, now: time.Now}
}

func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req domain.StartRegistrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	correlationID, err := h.svc.Start(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegistrationEnvelope{
		Success:       true,
		Message:       "OTP sent successfully",
		CorrelationID: correlationID,
	})
}

func (h *RegistrationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Resend(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "OTP resent successfully"})
}

func (h *RegistrationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req domain.ConfirmRegistrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, err := h.svc.Confirm(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	h.cookie.set(w, tok.Value, tok.ExpiresAt.Sub(h.now()))
	writeJSON(w, http.StatusCreated, authEnvelope(tok, true))
}
