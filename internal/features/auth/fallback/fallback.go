// Package fallback signs and verifies "{uid}:{ts}:{wallet}" tuples for Mini App
// links opened in clients that do not deliver initData.
package fallback

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultSkew = 5 * time.Minute

var (
	ErrNotConfigured    = errors.New("fallback: secret not configured")
	ErrMissingFields    = errors.New("fallback: missing uid, ts or sig")
	ErrInvalidNumeric   = errors.New("fallback: uid or ts is not a number")
	ErrInvalidSignature = errors.New("fallback: invalid signature")
	ErrExpired          = errors.New("fallback: timestamp outside allowed skew")
)

// Credential is the raw link parameters.
type Credential struct {
	UID    string
	TS     string
	Sig    string
	Wallet string
}

func (c Credential) Present() bool {
	return c.UID != "" || c.TS != "" || c.Sig != ""
}

type Signer struct {
	secret string
	skew   time.Duration
	now    func() time.Time
}

func NewSigner(secret string, skew time.Duration) *Signer {
	if skew <= 0 {
		skew = DefaultSkew
	}
	return &Signer{secret: secret, skew: skew, now: time.Now}
}

func (s *Signer) Enabled() bool {
	return s.secret != ""
}

// Sign returns the hex signature for uid, ts (unix ms) and wallet.
func (s *Signer) Sign(uid int64, tsMillis int64, wallet string) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(payload(uid, tsMillis, wallet)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify returns the uid and wallet carried by a valid credential.
func (s *Signer) Verify(c Credential) (int64, string, error) {
	if !s.Enabled() {
		return 0, "", ErrNotConfigured
	}

	uidRaw := strings.TrimSpace(c.UID)
	tsRaw := strings.TrimSpace(c.TS)
	sig := strings.TrimSpace(c.Sig)
	wallet := strings.TrimSpace(c.Wallet)
	if uidRaw == "" || tsRaw == "" || sig == "" {
		return 0, "", ErrMissingFields
	}

	uid, err := strconv.ParseInt(uidRaw, 10, 64)
	if err != nil || uid <= 0 {
		return 0, "", ErrInvalidNumeric
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil || ts <= 0 {
		return 0, "", ErrInvalidNumeric
	}

	drift := s.now().Sub(time.UnixMilli(ts))
	if drift < 0 {
		drift = -drift
	}
	if drift > s.skew {
		return 0, "", ErrExpired
	}

	provided, err := hex.DecodeString(sig)
	if err != nil {
		return 0, "", ErrInvalidSignature
	}
	expected, _ := hex.DecodeString(s.Sign(uid, ts, wallet))
	if !hmac.Equal(expected, provided) {
		return 0, "", ErrInvalidSignature
	}

	return uid, wallet, nil
}

// SignURL appends uid, w, ts and sig (plus extra) to base.
func (s *Signer) SignURL(base string, uid int64, wallet string, extra url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	ts := s.now().UnixMilli()
	q := u.Query()
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("uid", strconv.FormatInt(uid, 10))
	q.Set("ts", strconv.FormatInt(ts, 10))
	if wallet != "" {
		q.Set("w", wallet)
	}
	if s.Enabled() {
		q.Set("sig", s.Sign(uid, ts, wallet))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func payload(uid, tsMillis int64, wallet string) string {
	return strconv.FormatInt(uid, 10) + ":" + strconv.FormatInt(tsMillis, 10) + ":" + wallet
}
