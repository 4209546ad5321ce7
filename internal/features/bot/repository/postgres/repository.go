package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"veyra-backend/internal/features/bot/models"
	"veyra-backend/internal/features/bot/repository"
	"veyra-backend/internal/platform/postgres"
)

type stateRepository struct {
	db postgres.DB
}

func NewStateRepository(db postgres.DB) repository.StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) Get(ctx context.Context, telegramUserID int64) (*models.State, error) {
	var (
		s    models.State
		data []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT telegram_user_id, state_key, state_json, updated_at
		FROM bot_states
		WHERE telegram_user_id = $1`,
		telegramUserID,
	).Scan(&s.TelegramUserID, &s.Key, &data, &s.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	s.Data = data
	return &s, nil
}

func (r *stateRepository) Set(ctx context.Context, telegramUserID int64, key string, data interface{}) error {
	var raw []byte
	if data != nil {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return fmt.Errorf("marshal bot state: %w", err)
		}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO bot_states (telegram_user_id, state_key, state_json, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (telegram_user_id) DO UPDATE SET
			state_key = EXCLUDED.state_key,
			state_json = EXCLUDED.state_json,
			updated_at = NOW()`,
		telegramUserID, key, raw,
	)
	return err
}

func (r *stateRepository) Clear(ctx context.Context, telegramUserID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bot_states WHERE telegram_user_id = $1`, telegramUserID)
	return err
}
