package initdata

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tginit "github.com/telegram-mini-apps/init-data-golang"
)

const testToken = "123456:TEST-bot-token"

func fields(authDate time.Time) map[string]string {
	return map[string]string{
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":12345,"first_name":"Ada","last_name":"L","username":"ada"}`,
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
	}
}

func TestVerifyValid(t *testing.T) {
	now := time.Now()
	raw := Encode(fields(now), testToken)

	res, err := Verify(raw, testToken, DefaultMaxAge, now)
	require.NoError(t, err)

	assert.Equal(t, int64(12345), int64(res.User.ID))
	assert.Equal(t, "ada", res.User.Username)
	assert.Equal(t, "Ada", res.User.FirstName)
	assert.Equal(t, now.Unix(), res.AuthDate.Unix())
	assert.NotContains(t, res.Fields, "hash")
	assert.Equal(t, "AAHdF6IQAAAAAN0XohDhrOrc", res.Fields["query_id"])
}

func TestSignMatchesLibrary(t *testing.T) {
	authDate := time.Now()
	f := fields(authDate)

	payload := map[string]string{"query_id": f["query_id"], "user": f["user"]}
	assert.Equal(t, tginit.Sign(payload, testToken, authDate), Sign(f, testToken))

	// the library's validator accepts what we produce
	assert.NoError(t, tginit.Validate(Encode(f, testToken), testToken, time.Hour))
}

func TestVerifyRejectsAnyFlippedHashCharacter(t *testing.T) {
	now := time.Now()
	f := fields(now)
	hash := Sign(f, testToken)

	for i := range hash {
		flipped := []byte(hash)
		if flipped[i] == 'a' {
			flipped[i] = 'b'
		} else {
			flipped[i] = 'a'
		}

		values := url.Values{}
		for k, v := range f {
			values.Set(k, v)
		}
		values.Set("hash", string(flipped))

		_, err := Verify(values.Encode(), testToken, DefaultMaxAge, now)
		assert.ErrorIs(t, err, ErrInvalidSignature, "position %d", i)
	}
}

func TestVerifyWrongToken(t *testing.T) {
	now := time.Now()
	raw := Encode(fields(now), testToken)

	_, err := Verify(raw, "other:token", DefaultMaxAge, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyMissingHash(t *testing.T) {
	values := url.Values{}
	for k, v := range fields(time.Now()) {
		values.Set(k, v)
	}

	_, err := Verify(values.Encode(), testToken, DefaultMaxAge, time.Now())
	assert.ErrorIs(t, err, ErrMissingHash)

	_, err = Verify("hash=abcd", testToken, DefaultMaxAge, time.Now())
	assert.ErrorIs(t, err, ErrMissingHash)
}

func TestVerifyMissingUser(t *testing.T) {
	now := time.Now()
	f := fields(now)
	delete(f, "user")

	_, err := Verify(Encode(f, testToken), testToken, DefaultMaxAge, now)
	assert.ErrorIs(t, err, ErrMissingUser)

	f = fields(now)
	f["user"] = `{"username":"ghost"}`
	_, err = Verify(Encode(f, testToken), testToken, DefaultMaxAge, now)
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestVerifyMalformedUserJSON(t *testing.T) {
	now := time.Now()
	f := fields(now)
	f["user"] = `{"id":`

	_, err := Verify(Encode(f, testToken), testToken, DefaultMaxAge, now)
	assert.ErrorIs(t, err, ErrMalformedUserJSON)
}

func TestVerifyExpired(t *testing.T) {
	signedAt := time.Now().Add(-25 * time.Hour)
	raw := Encode(fields(signedAt), testToken)

	_, err := Verify(raw, testToken, DefaultMaxAge, time.Now())
	assert.ErrorIs(t, err, ErrExpired)

	_, err = Verify(raw, testToken, 48*time.Hour, time.Now())
	assert.NoError(t, err)
}

func TestVerifyIgnoresNonNumericAuthDate(t *testing.T) {
	now := time.Now()
	f := fields(now)
	f["auth_date"] = "yesterday"

	res, err := Verify(Encode(f, testToken), testToken, DefaultMaxAge, now)
	require.NoError(t, err)
	assert.True(t, res.AuthDate.IsZero())
}

func TestVerifyNotConfigured(t *testing.T) {
	_, err := Verify(Encode(fields(time.Now()), testToken), "", DefaultMaxAge, time.Now())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyMalformedQuery(t *testing.T) {
	_, err := Verify("user=%zz&hash=00", testToken, DefaultMaxAge, time.Now())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifierUsesClock(t *testing.T) {
	signedAt := time.Now().Add(-2 * time.Hour)
	raw := Encode(fields(signedAt), testToken)

	v := NewVerifier(testToken, time.Hour)
	_, err := v.Verify(raw)
	assert.ErrorIs(t, err, ErrExpired)

	v.now = func() time.Time { return signedAt.Add(time.Minute) }
	_, err = v.Verify(raw)
	assert.NoError(t, err)
}
