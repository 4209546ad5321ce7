package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	MaxCampaignTitleLength       = 80
	MaxPublicTitleLength         = 120
	MaxCreateDescriptionLength   = 240
	MaxCampaignDescriptionLength = 300
	MaxQuestionLabelLength       = 120
	MaxQuestionKeyLength         = 40
	MaxHelpTextLength            = 200
	MaxPlaceholderLength         = 140
	MaxTargetURLLength           = 300
	MaxQuestions                 = 25
	MaxSelectOptions             = 20
	MaxOptionLength              = 80
	MaxAnswerLength              = 2000
	MinSolanaLength              = 32
	MaxSolanaLength              = 44
)

var (
	evmWalletRegex    = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	solanaWalletRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
	slugInvalidRegex  = regexp.MustCompile(`[^a-z0-9_]+`)
	slugEdgeRegex     = regexp.MustCompile(`^_+|_+$`)
)

// IsEVMWallet reports a 0x-prefixed 20-byte hex address.
func IsEVMWallet(s string) bool {
	return evmWalletRegex.MatchString(s)
}

// IsSolanaWallet reports a base58 string of plausible public key length.
func IsSolanaWallet(s string) bool {
	if len(s) < MinSolanaLength || len(s) > MaxSolanaLength {
		return false
	}
	return solanaWalletRegex.MatchString(s)
}

func IsWallet(s string) bool {
	s = strings.TrimSpace(s)
	return IsEVMWallet(s) || IsSolanaWallet(s)
}

// Clip trims s and cuts it to at most max runes.
func Clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Slug lowercases s, collapses everything outside [a-z0-9_] into underscores
// and cuts the result to max characters.
func Slug(s string, max int) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidRegex.ReplaceAllString(s, "_")
	s = slugEdgeRegex.ReplaceAllString(s, "")
	if max > 0 && len(s) > max {
		s = s[:max]
	}
	return s
}

// RegisterBindings adds the "wallet" tag to gin's validator so request
// structs can declare `binding:"required,wallet"`.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("wallet", func(fl validator.FieldLevel) bool {
		return IsWallet(fl.Field().String())
	})
}
