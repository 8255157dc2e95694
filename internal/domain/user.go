package domain

import "time"

// Sign-in methods attached to an account.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User is the account record and profile mirror. PK: user_id, GSI email-index.
type User struct {
	UserID        string    `json:"uid" dynamodbav:"user_id"`
	Email         string    `json:"email" dynamodbav:"email"`
	Name          string    `json:"name" dynamodbav:"name"`
	PhotoURL      string    `json:"photo_url,omitempty" dynamodbav:"photo_url,omitempty"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash,omitempty"`
	GoogleSub     string    `json:"-" dynamodbav:"google_sub,omitempty"`
	Providers     []string  `json:"providers" dynamodbav:"providers"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	Enable        bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
	LastLoginAt   time.Time `json:"last_login" dynamodbav:"last_login_at"`
}

// HasProvider reports whether the account can sign in with provider.
func (u *User) HasProvider(provider string) bool {
	for _, p := range u.Providers {
		if p == provider {
			return true
		}
	}
	return false
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type GoogleLoginRequest struct {
	IDToken    string `json:"id_token" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type LinkPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}
