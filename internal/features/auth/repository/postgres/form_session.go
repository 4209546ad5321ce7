package postgres

import (
	"context"
	"time"

	"veyra-backend/internal/features/auth/models"
	"veyra-backend/internal/features/auth/repository"
	"veyra-backend/internal/platform/postgres"
)

type formSessionRepository struct {
	db postgres.DB
}

func NewFormSessionRepository(db postgres.DB) repository.FormSessionRepository {
	return &formSessionRepository{db: db}
}

func (r *formSessionRepository) Create(ctx context.Context, s *models.FormSession) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO form_sessions (id, campaign_id, telegram_user_id, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, NULL, $5)`,
		s.ID, s.CampaignID, s.TelegramUserID, s.ExpiresAt, s.CreatedAt,
	)
	return err
}

func (r *formSessionRepository) Get(ctx context.Context, id string) (*models.FormSession, error) {
	if !postgres.IsUUID(id) {
		return nil, nil
	}

	var s models.FormSession
	err := r.db.QueryRow(ctx, `
		SELECT id::text, campaign_id::text, telegram_user_id, expires_at, used_at, created_at
		FROM form_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.CampaignID, &s.TelegramUserID, &s.ExpiresAt, &s.UsedAt, &s.CreatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// MarkUsed consumes the session; false means another request already did.
func (r *formSessionRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE form_sessions SET used_at = $2 WHERE id = $1 AND used_at IS NULL`,
		id, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearUsed hands a consumed session back to its owner.
func (r *formSessionRepository) ClearUsed(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE form_sessions SET used_at = NULL WHERE id = $1`, id)
	return err
}
