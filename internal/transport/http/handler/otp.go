package handler

import (
	"context"
	"net/http"

	"github.com/thelyst/internal/application/otp"
	"github.com/thelyst/internal/domain"
	"github.com/thelyst/internal/pkg/validate"
)

type codeRequester interface {
	RequestCode(ctx context.Context, email, correlationID string) error
}

// Both request types also accept the camelCase correlationId sent by the web client.
type sendOTPRequest struct {
	Email            string `json:"email" validate:"required,email"`
	CorrelationID    string `json:"correlation_id"`
	CorrelationIDAlt string `json:"correlationId"`
}

type verifyOTPRequest struct {
	Email            string `json:"email" validate:"required,email"`
	OTP              string `json:"otp" validate:"required,len=6,numeric"`
	CorrelationID    string `json:"correlation_id"`
	CorrelationIDAlt string `json:"correlationId"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// OTPHandler serves the standalone send/verify code endpoints.
type OTPHandler struct {
	codes    codeRequester
	verifier otp.Service
}

func NewOTPHandler(codes codeRequester, verifier otp.Service) *OTPHandler {
	return &OTPHandler{codes: codes, verifier: verifier}
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = validate.Email(req.Email)
	if err := validate.Struct(req); err != nil {
		httpError(w, err)
		return
	}
	cid := firstNonEmpty(req.CorrelationID, req.CorrelationIDAlt)
	if err := h.codes.RequestCode(r.Context(), req.Email, cid); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "OTP sent successfully"})
}

// Verify accepts the code either as query parameters (GET) or a JSON body (POST).
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req = verifyOTPRequest{
			Email:            q.Get("email"),
			OTP:              q.Get("otp"),
			CorrelationID:    q.Get("correlation_id"),
			CorrelationIDAlt: q.Get("correlationId"),
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = validate.Email(req.Email)
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, VerifyOTPEnvelope{Error: err.Error()})
		return
	}

	cid := firstNonEmpty(req.CorrelationID, req.CorrelationIDAlt)
	res, err := h.verifier.Verify(r.Context(), req.Email, req.OTP, cid)
	if err != nil {
		httpError(w, err)
		return
	}
	if res != domain.VerificationValid {
		writeJSON(w, verificationStatus(res), VerifyOTPEnvelope{Error: res.Message()})
		return
	}
	writeJSON(w, http.StatusOK, VerifyOTPEnvelope{Success: true, Valid: true, Message: res.Message()})
}
