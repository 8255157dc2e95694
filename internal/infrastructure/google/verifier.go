package google

import (
	"context"
	"fmt"
	"strings"

	"github.com/thelyst/internal/domain"
	"google.golang.org/api/idtoken"
)

// Payload is what a Google ID token says about its holder.
type Payload struct {
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier checks Google ID tokens. A token is accepted when its audience is
// any of the configured OAuth client IDs (web and mobile clients differ).
type Verifier struct {
	audiences []string
	validate  validateFunc
}

// NewVerifier takes a comma-separated list of OAuth client IDs.
func NewVerifier(clientIDs string) *Verifier {
	var auds []string
	for _, a := range strings.Split(clientIDs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			auds = append(auds, a)
		}
	}
	return &Verifier{audiences: auds, validate: idtoken.Validate}
}

// Verify fails with ErrAuthProvider when sign-in is not configured and with
// ErrUnauthorized when the token is rejected or carries no email.
func (v *Verifier) Verify(ctx context.Context, token string) (*Payload, error) {
	if len(v.audiences) == 0 {
		return nil, fmt.Errorf("google sign-in not configured: %w", domain.ErrAuthProvider)
	}

	var (
		p   *idtoken.Payload
		err error
	)
	for _, aud := range v.audiences {
		if p, err = v.validate(ctx, token, aud); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}

	out := &Payload{
		Sub:           p.Subject,
		Email:         stringClaim(p, "email"),
		EmailVerified: boolClaim(p, "email_verified"),
		Name:          stringClaim(p, "name"),
		Picture:       stringClaim(p, "picture"),
	}
	if out.Email == "" {
		return nil, fmt.Errorf("google token has no email: %w", domain.ErrUnauthorized)
	}
	if out.Name == "" {
		out.Name = strings.TrimSpace(stringClaim(p, "given_name") + " " + stringClaim(p, "family_name"))
	}
	return out, nil
}

func stringClaim(p *idtoken.Payload, key string) string {
	s, _ := p.Claims[key].(string)
	return s
}

// boolClaim also accepts "true", which some Google token flows emit as a string.
func boolClaim(p *idtoken.Payload, key string) bool {
	switch v := p.Claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
