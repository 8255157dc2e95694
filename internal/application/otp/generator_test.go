package otp

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestGenerate_AlwaysSixDigits(t *testing.T) {
	leadingZero := false
	for i := 0; i < 10_000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Regexp(t, sixDigits, code)
		if code[0] == '0' {
			leadingZero = true
		}
	}
	// ~10% of codes start with 0; across 10k draws missing all of them is not plausible.
	assert.True(t, leadingZero, "expected at least one zero-padded code")
}

func TestGenerate_SpreadsOverFirstDigit(t *testing.T) {
	var buckets [10]int
	for i := 0; i < 10_000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		buckets[code[0]-'0']++
	}
	for d, n := range buckets {
		assert.Greater(t, n, 700, "digit %d under-represented", d)
		assert.Less(t, n, 1300, "digit %d over-represented", d)
	}
}
