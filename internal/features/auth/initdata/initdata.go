// Package initdata verifies the signed payload a Telegram Mini App receives
// from the client (window.Telegram.WebApp.initData).
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	tginit "github.com/telegram-mini-apps/init-data-golang"
)

const DefaultMaxAge = 24 * time.Hour

var (
	ErrNotConfigured     = errors.New("initdata: bot token not configured")
	ErrMalformed         = errors.New("initdata: malformed query string")
	ErrMissingHash       = errors.New("initdata: missing hash")
	ErrInvalidSignature  = errors.New("initdata: invalid signature")
	ErrMissingUser       = errors.New("initdata: missing user")
	ErrMalformedUserJSON = errors.New("initdata: malformed user json")
	ErrExpired           = errors.New("initdata: expired")
)

// Result is a verified payload.
type Result struct {
	User     tginit.User
	Fields   map[string]string
	AuthDate time.Time
}

// Verifier checks initData against one bot token.
type Verifier struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

// NewVerifier uses DefaultMaxAge when maxAge is not positive.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Verifier{botToken: botToken, maxAge: maxAge, now: time.Now}
}

func (v *Verifier) Verify(raw string) (*Result, error) {
	return Verify(raw, v.botToken, v.maxAge, v.now())
}

// Verify validates raw at the instant now. A missing or non-numeric
// auth_date skips the freshness check.
func Verify(raw, botToken string, maxAge time.Duration, now time.Time) (*Result, error) {
	if botToken == "" {
		return nil, ErrNotConfigured
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, ErrMalformed
	}

	hash := values.Get("hash")
	values.Del("hash")
	if hash == "" || len(values) == 0 {
		return nil, ErrMissingHash
	}

	expected := hmacSHA256(secretKey(botToken), []byte(checkString(values)))
	provided, err := hex.DecodeString(hash)
	if err != nil || !hmac.Equal(expected, provided) {
		return nil, ErrInvalidSignature
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		return nil, ErrMissingUser
	}

	var user tginit.User
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return nil, ErrMalformedUserJSON
	}
	if user.ID == 0 {
		return nil, ErrMissingUser
	}

	result := &Result{User: user, Fields: make(map[string]string, len(values))}
	for k := range values {
		result.Fields[k] = values.Get(k)
	}

	if ts, err := strconv.ParseInt(values.Get("auth_date"), 10, 64); err == nil {
		result.AuthDate = time.Unix(ts, 0)
		if maxAge > 0 && now.Sub(result.AuthDate) > maxAge {
			return nil, ErrExpired
		}
	}

	return result, nil
}

// Sign returns the hex hash Telegram would attach to fields.
func Sign(fields map[string]string, botToken string) string {
	values := url.Values{}
	for k, v := range fields {
		if k == "hash" {
			continue
		}
		values.Set(k, v)
	}
	return hex.EncodeToString(hmacSHA256(secretKey(botToken), []byte(checkString(values))))
}

// Encode builds a signed initData query string from fields.
func Encode(fields map[string]string, botToken string) string {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", Sign(fields, botToken))
	return values.Encode()
}

// checkString sorts the pairs and joins them with newlines.
func checkString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range values[k] {
			pairs = append(pairs, k+"="+v)
		}
	}
	return strings.Join(pairs, "\n")
}

func secretKey(botToken string) []byte {
	return hmacSHA256([]byte("WebAppData"), []byte(botToken))
}

func hmacSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}
