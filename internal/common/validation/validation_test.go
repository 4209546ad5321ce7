package validation

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWallet(t *testing.T) {
	cases := []struct {
		name   string
		wallet string
		want   bool
	}{
		{"evm lowercase", "0x" + strings.Repeat("a", 40), true},
		{"evm mixed case", "0xAbCdEf0123456789abcdef0123456789ABCDEF01", true},
		{"evm short", "0x" + strings.Repeat("a", 39), false},
		{"evm bad hex", "0x" + strings.Repeat("g", 40), false},
		{"solana", "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", true},
		{"solana with zero", "0xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", false},
		{"solana too short", "9xQeWvG816bUx9EPjHmaT23yvVM2", false},
		{"padded", "  0x" + strings.Repeat("1", 40) + " ", true},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsWallet(tc.wallet))
		})
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", Clip("  abc  ", 10))
	assert.Equal(t, "ab", Clip("abc", 2))
	assert.Equal(t, "жж", Clip("жжж", 2))
	assert.Equal(t, "abc", Clip("abc", 0))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "twitter_handle", Slug("Twitter Handle", 40))
	assert.Equal(t, "why_you", Slug("  Why you?? ", 40))
	assert.Equal(t, "abc", Slug("abcdef", 3))
	assert.Equal(t, "", Slug("???", 40))
}

func TestRegisterBindings(t *testing.T) {
	require.NoError(t, RegisterBindings())

	type request struct {
		Wallet string `binding:"required,wallet"`
	}

	assert.NoError(t, binding.Validator.ValidateStruct(&request{Wallet: "0x" + strings.Repeat("b", 40)}))
	assert.Error(t, binding.Validator.ValidateStruct(&request{Wallet: "nope"}))
}
