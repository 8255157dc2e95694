package domain

import "time"

// RegistrationState tracks a sign-up attempt from form submission to account creation.
type RegistrationState string

const (
	RegistrationIdle           RegistrationState = "idle"
	RegistrationCodeRequested  RegistrationState = "code_requested"
	RegistrationCodeVerified   RegistrationState = "code_verified"
	RegistrationAccountCreated RegistrationState = "account_created"
)

// PendingRegistration holds the sign-up form server-side until the emailed code
// is confirmed. PK: correlation_id. The password only ever exists here as a
// bcrypt hash and is never returned to the client.
type PendingRegistration struct {
	CorrelationID string            `json:"correlation_id" dynamodbav:"correlation_id"`
	Email         string            `json:"email" dynamodbav:"email"`
	Name          string            `json:"name" dynamodbav:"name"`
	PasswordHash  string            `json:"-" dynamodbav:"password_hash"`
	State         RegistrationState `json:"state" dynamodbav:"state"`
	CreatedAt     time.Time         `json:"created" dynamodbav:"created_at"`
	ExpiresAt     int64             `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

type StartRegistrationRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

type ResendCodeRequest struct {
	Email         string `json:"email" validate:"required,email"`
	CorrelationID string `json:"correlation_id" validate:"required"`
}

type ConfirmRegistrationRequest struct {
	Email         string `json:"email" validate:"required,email"`
	OTP           string `json:"otp" validate:"required,len=6,numeric"`
	CorrelationID string `json:"correlation_id" validate:"required"`
	RememberMe    bool   `json:"remember_me"`
}

// UserRegisteredEvent is published once an account has been created.
type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AuthProvider string    `json:"auth_provider"`
	OccurredAt   time.Time `json:"occurred_at"`
}
