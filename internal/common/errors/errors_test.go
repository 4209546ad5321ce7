package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewStorageError("get_session", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeStorage, err.Code)
	assert.Equal(t, "get_session", err.Details["operation"])
	assert.True(t, err.IsInternal())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	inner := NewNotFoundError("campaign", "abc")
	wrapped := fmt.Errorf("load: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, appErr)
	assert.True(t, HasCode(wrapped, ErrCodeNotFound))
	assert.False(t, HasCode(wrapped, ErrCodeForbidden))

	_, ok = AsAppError(nil)
	assert.False(t, ok)
	assert.False(t, IsAppError(stderrors.New("plain")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, NewValidationError("wallet", "Invalid wallet").IsValidation())
	assert.True(t, NewBadRequestError("bad").IsValidation())
	assert.True(t, NewPrincipalMismatchError().IsUnauthorized())
	assert.True(t, NewAdminNotUnlockedError().IsUnauthorized())
	assert.True(t, NewForbiddenError("nope").IsUnauthorized())
	assert.True(t, NewNotFoundError("campaign", 1).IsNotFound())
	assert.False(t, NewConflictError("entry", "dup").IsInternal())
}

func TestSerializationHidesInternals(t *testing.T) {
	err := NewUnauthorizedError("invalid_signature", stderrors.New("expected deadbeef")).
		WithContext("path", "/api/tg/me").
		WithUserID(42)

	data, mErr := json.Marshal(err)
	require.NoError(t, mErr)

	body := string(data)
	assert.NotContains(t, body, "deadbeef")
	assert.NotContains(t, body, "/api/tg/me")
	assert.NotContains(t, body, "stack")
	assert.Contains(t, body, "invalid_signature")
	assert.Equal(t, "Unauthorized", err.Message)
}

func TestAdminNotUnlockedMessageNamesCommand(t *testing.T) {
	err := NewAdminNotUnlockedError()
	assert.Contains(t, err.Message, "/admin <your invite code>")
	assert.Contains(t, err.Message, "Admin Panel")
}

func TestStackSkipsOwnPackage(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	require.NotEmpty(t, err.Stack)
	for _, frame := range err.Stack {
		assert.NotContains(t, frame, "internal/common/errors.New")
	}
}
