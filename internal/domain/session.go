package domain

import "time"

// Session backs an issued ID token. Revoking the session invalidates the token
// before its signature expires.
type Session struct {
	SessionID  string    `json:"id" dynamodbav:"session_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Enable     bool      `json:"enable" dynamodbav:"enable"`
	RememberMe bool      `json:"remember_me" dynamodbav:"remember_me"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
	ExpiresAt  int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

type CreateSessionRequest struct {
	Token      string `json:"token" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}
