package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thelyst/internal/domain"
)

func TestStruct_Valid(t *testing.T) {
	err := Struct(domain.ConfirmRegistrationRequest{Email: "a@b.com", OTP: "012345", CorrelationID: "c1"})
	assert.NoError(t, err)
}

func TestStruct_MessagesUseJSONNames(t *testing.T) {
	err := Struct(domain.ConfirmRegistrationRequest{Email: "nope", OTP: "12a", CorrelationID: ""})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.ErrorContains(t, err, "email must be a valid email address")
	assert.ErrorContains(t, err, "otp must be exactly 6 characters")
	assert.ErrorContains(t, err, "correlation_id is required")
}

func TestStruct_PasswordBounds(t *testing.T) {
	err := Struct(domain.StartRegistrationRequest{Name: "Al", Email: "a@b.com", Password: "Ab1!"})
	assert.ErrorContains(t, err, "password must be at least 8 characters")
}

func TestStruct_PasswordStrength(t *testing.T) {
	cases := []struct {
		pw string
		ok bool
	}{
		{"Secr3t!pw", true},
		{"Pässw0rd#", true},
		{"secret123", false},
		{"SECRET123!", false},
		{"Secret!!!", false},
		{"Secret123", false},
		// 40 two-byte runes pass max=72 but not bcrypt's byte limit.
		{strings.Repeat("é", 40) + "A1!", false},
	}
	for _, tc := range cases {
		err := Struct(domain.LinkPasswordRequest{Password: tc.pw})
		if tc.ok {
			assert.NoError(t, err, tc.pw)
			continue
		}
		assert.ErrorIs(t, err, domain.ErrBadRequest, tc.pw)
		assert.ErrorContains(t, err, "password must mix upper and lower case letters", tc.pw)
	}
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", Email("  Alice@Example.COM "))
}
