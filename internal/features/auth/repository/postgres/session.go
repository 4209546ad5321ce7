package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/auth/repository"
	"veyra-backend/internal/platform/postgres"
)

type sessionRepository struct {
	db postgres.DB
}

func NewSessionRepository(db postgres.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s *models.Session) error {
	state, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO app_sessions (
			id, telegram_user_id, kind, session_key, state_json,
			chat_id, message_id, wallet, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.TelegramUserID, s.Kind, postgres.NullString(s.SessionKey), state,
		s.ChatID, s.MessageID, postgres.NullString(s.Wallet), s.ExpiresAt, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	if !postgres.IsUUID(id) {
		return nil, nil
	}

	var (
		s     models.Session
		state []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id::text, telegram_user_id, kind, COALESCE(session_key, ''), state_json,
			chat_id, message_id, COALESCE(wallet, ''), expires_at, created_at, updated_at
		FROM app_sessions WHERE id = $1`, id,
	).Scan(
		&s.ID, &s.TelegramUserID, &s.Kind, &s.SessionKey, &state,
		&s.ChatID, &s.MessageID, &s.Wallet, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	s.State = map[string]interface{}{}
	if len(state) > 0 {
		// a corrupt state reads as empty, which fails every capability check
		_ = json.Unmarshal(state, &s.State)
	}
	return &s, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) (int64, error) {
	if !postgres.IsUUID(id) {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM app_sessions WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *sessionRepository) DeleteByOwner(ctx context.Context, telegramUserID int64, kind string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM app_sessions WHERE telegram_user_id = $1 AND kind = $2`,
		telegramUserID, kind,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
