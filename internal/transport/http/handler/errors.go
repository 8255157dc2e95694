package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/thelyst/internal/domain"
)

// httpError maps a service error to a status code and writes the JSON error
// envelope. 5xx responses never carry the underlying error text.
func httpError(w http.ResponseWriter, err error) {
	var ra *domain.RetryAfterError
	if errors.As(err, &ra) && ra.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ra.RetryAfter.Seconds()))))
	}
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "err", err)
	}
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	var ve *domain.VerificationError
	if errors.As(err, &ve) {
		return verificationStatus(ve.Result), ve.Error()
	}
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "account is disabled"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	// duplicate accounts carry both ErrConflict and ErrAuthProvider
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "an account with this email already exists"
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, domain.ErrAuthProvider):
		return http.StatusBadGateway, "identity provider rejected the request"
	case errors.Is(err, domain.ErrDelivery):
		return http.StatusBadGateway, "Failed to send OTP"
	case errors.Is(err, domain.ErrStorage):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func verificationStatus(res domain.VerificationResult) int {
	switch res {
	case domain.VerificationValid:
		return http.StatusOK
	case domain.VerificationNotFound:
		return http.StatusNotFound
	case domain.VerificationLocked:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}
