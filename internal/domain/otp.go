package domain

import "time"

// OTPRecord is the single live one-time code for an email address.
// PK: email. A new issuance overwrites the previous record.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL; validity is still
// checked against CreatedAt because TTL deletion is lazy.
type OTPRecord struct {
	Email         string    `json:"email" dynamodbav:"email"`
	Code          string    `json:"-" dynamodbav:"code"`
	CorrelationID string    `json:"correlation_id,omitempty" dynamodbav:"correlation_id,omitempty"`
	Attempts      int       `json:"attempts" dynamodbav:"attempts"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt     int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Expired reports whether the record is older than window at now.
func (r *OTPRecord) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(r.CreatedAt) > window
}

// VerificationResult is the outcome of checking a supplied code.
type VerificationResult int

const (
	VerificationValid VerificationResult = iota
	VerificationNotFound
	VerificationExpired
	VerificationMismatch
	VerificationCorrelationMismatch
	VerificationLocked
)

func (r VerificationResult) String() string {
	switch r {
	case VerificationValid:
		return "valid"
	case VerificationNotFound:
		return "not_found"
	case VerificationExpired:
		return "expired"
	case VerificationMismatch:
		return "mismatch"
	case VerificationCorrelationMismatch:
		return "correlation_mismatch"
	case VerificationLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Message is the user-facing text for a verification outcome.
func (r VerificationResult) Message() string {
	switch r {
	case VerificationValid:
		return "OTP verified successfully"
	case VerificationNotFound:
		return "OTP not found"
	case VerificationExpired:
		return "OTP has expired"
	case VerificationMismatch:
		return "Invalid OTP"
	case VerificationCorrelationMismatch:
		return "Invalid verification session"
	case VerificationLocked:
		return "Too many failed attempts, request a new code"
	default:
		return "OTP verification failed"
	}
}

// VerificationError reports a non-valid verification outcome as an error.
type VerificationError struct {
	Result VerificationResult
}

func (e *VerificationError) Error() string { return e.Result.Message() }

func (e *VerificationError) Unwrap() error {
	if e.Result == VerificationLocked {
		return ErrTooManyRequests
	}
	return ErrBadRequest
}
