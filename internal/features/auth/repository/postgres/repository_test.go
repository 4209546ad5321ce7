package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veyra-backend/internal/features/auth/models"
)

var sessionColumns = []string{
	"id", "telegram_user_id", "kind", "session_key", "state_json",
	"chat_id", "message_id", "wallet", "expires_at", "created_at", "updated_at",
}

func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	s := &models.Session{
		ID:             uuid.New().String(),
		TelegramUserID: 12345,
		Kind:           models.SessionKindAdmin,
		SessionKey:     models.SessionKeyAdmin,
		State:          map[string]interface{}{"admin": true, "username": "ada"},
		ExpiresAt:      now.Add(30 * time.Minute),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	mock.ExpectExec("INSERT INTO app_sessions").
		WithArgs(s.ID, int64(12345), "admin", pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), s.ExpiresAt, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewSessionRepository(mock)
	require.NoError(t, repo.Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	now := time.Now()
	chatID := int64(555)

	mock.ExpectQuery("FROM app_sessions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(sessionColumns).AddRow(
			id, int64(12345), "admin", "admin", []byte(`{"admin":true,"username":"ada"}`),
			&chatID, (*int64)(nil), "", now.Add(time.Minute), now, now,
		))

	repo := NewSessionRepository(mock)
	s, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, int64(12345), s.TelegramUserID)
	assert.True(t, s.Flag("admin"))
	assert.Equal(t, "ada", s.State["username"])
	require.NotNil(t, s.ChatID)
	assert.Equal(t, int64(555), *s.ChatID)
	assert.Nil(t, s.MessageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	mock.ExpectQuery("FROM app_sessions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(sessionColumns))

	repo := NewSessionRepository(mock)
	s, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetNonUUIDNeverQueries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSessionRepository(mock)
	for _, id := range []string{"", "not-a-uuid", "'; DROP TABLE app_sessions; --", "{" + uuid.New().String() + "}"} {
		s, err := repo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, s)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetStorageError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	mock.ExpectQuery("FROM app_sessions WHERE id").
		WithArgs(id).
		WillReturnError(errors.New("connection reset"))

	repo := NewSessionRepository(mock)
	_, err = repo.Get(context.Background(), id)
	assert.Error(t, err)
}

func TestSessionRepository_GetCorruptStateIsEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	now := time.Now()
	mock.ExpectQuery("FROM app_sessions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(sessionColumns).AddRow(
			id, int64(1), "admin", "", []byte(`not json`),
			(*int64)(nil), (*int64)(nil), "", now, now, now,
		))

	repo := NewSessionRepository(mock)
	s, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, s.Flag("admin"))
}

func TestSessionRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	mock.ExpectExec("DELETE FROM app_sessions WHERE id").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM app_sessions WHERE telegram_user_id").
		WithArgs(int64(12345), "admin").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	repo := NewSessionRepository(mock)

	n, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(context.Background(), "garbage")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteByOwner(context.Background(), 12345, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormSessionRepository_CreateAndGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	fs := &models.FormSession{
		ID:             uuid.New().String(),
		CampaignID:     uuid.New().String(),
		TelegramUserID: 12345,
		ExpiresAt:      now.Add(30 * time.Minute),
		CreatedAt:      now,
	}

	mock.ExpectExec("INSERT INTO form_sessions").
		WithArgs(fs.ID, fs.CampaignID, int64(12345), fs.ExpiresAt, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM form_sessions WHERE id").
		WithArgs(fs.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "campaign_id", "telegram_user_id", "expires_at", "used_at", "created_at"}).
			AddRow(fs.ID, fs.CampaignID, int64(12345), fs.ExpiresAt, (*time.Time)(nil), now))

	repo := NewFormSessionRepository(mock)
	require.NoError(t, repo.Create(context.Background(), fs))

	got, err := repo.Get(context.Background(), fs.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fs.CampaignID, got.CampaignID)
	assert.Nil(t, got.UsedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormSessionRepository_MarkUsed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	at := time.Now()

	mock.ExpectExec("UPDATE form_sessions SET used_at").
		WithArgs(id, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE form_sessions SET used_at").
		WithArgs(id, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewFormSessionRepository(mock)

	ok, err := repo.MarkUsed(context.Background(), id, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkUsed(context.Background(), id, at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormSessionRepository_ClearUsed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	mock.ExpectExec("UPDATE form_sessions SET used_at = NULL").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewFormSessionRepository(mock).ClearUsed(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
